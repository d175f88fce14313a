package sink

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/matzehuels/orgchart/pkg/fonts"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/render/scene"
)

// RenderPNG rasterizes the layout's current positions. Avatars are drawn
// from [WithAvatarImages]; people without one get the flat fill.
func RenderPNG(l *layout.Layout, opts ...Option) ([]byte, error) {
	r := newRenderer(opts...)
	b, err := r.build(l)
	if err != nil {
		return nil, err
	}
	return DrawPNG(b.Scene(), b.Theme(), r.images, r.scale)
}

// DrawPNG rasterizes a scene at the given scale.
func DrawPNG(s *scene.Scene, t scene.Theme, images map[string]image.Image, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	w := int(math.Ceil(s.Width * scale))
	h := int(math.Ceil(s.Height * scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty canvas %dx%d", w, h)
	}

	labelFace, err := fonts.NewFace(t.FontSize)
	if err != nil {
		return nil, err
	}
	defer labelFace.Close()
	teamFace, err := fonts.NewFace(t.TeamFontSize)
	if err != nil {
		return nil, err
	}
	defer teamFace.Close()

	dc := gg.NewContext(w, h)
	setColor(dc, t.Background, 1)
	dc.Clear()

	dc.Scale(scale, scale)
	dc.Translate(s.Width/2, s.Height/2)
	dc.Translate(s.Transform.X, s.Transform.Y)
	dc.Scale(s.Transform.K, s.Transform.K)

	for _, l := range s.Links {
		col, op := t.LinkStroke, t.LinkOpacity
		if l.Highlight {
			col, op = t.Highlight, 1
		}
		setColor(dc, col, op)
		dc.SetLineWidth(t.LinkWidth)
		dc.DrawLine(l.X1, l.Y1, l.X2, l.Y2)
		dc.Stroke()
	}

	p := painter{dc: dc, theme: t, images: images, label: labelFace, teamLabel: teamFace}
	for _, n := range s.Nodes {
		if n.Kind == graph.KindTeam {
			p.team(n)
			continue
		}
		p.person(n.ID, n.Bubble, n.X, n.Y, n.R, n.Highlight)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

type painter struct {
	dc        *gg.Context
	theme     scene.Theme
	images    map[string]image.Image
	label     font.Face
	teamLabel font.Face
}

// person draws a bubble of radius r centred at (x, y): the bounding circle,
// the face and the label lines under it.
func (p painter) person(id string, b scene.Bubble, x, y, r float64, highlight bool) {
	dc, t := p.dc, p.theme

	setColor(dc, t.PersonFill, 1)
	dc.DrawCircle(x, y, r)
	dc.Fill()

	fy := y + b.FaceY
	if img, ok := p.images[id]; ok && img != nil && b.Face > 0 {
		d := max(1, int(math.Ceil(2*b.Face)))
		thumb := imaging.Fill(img, d, d, imaging.Center, imaging.Lanczos)
		dc.Push()
		dc.DrawCircle(x, fy, b.Face)
		dc.Clip()
		dc.DrawImageAnchored(thumb, int(math.Round(x)), int(math.Round(fy)), 0.5, 0.5)
		dc.ResetClip()
		dc.Pop()
	} else {
		setColor(dc, t.FaceFill, 1)
		dc.DrawCircle(x, fy, b.Face)
		dc.Fill()
	}

	col, width := t.PersonStroke, t.StrokeWidth
	if highlight {
		col, width = t.Highlight, t.StrokeWidth*2
	}
	setColor(dc, col, 1)
	dc.SetLineWidth(width)
	dc.DrawCircle(x, y, r)
	dc.Stroke()

	if len(b.Lines) == 0 || (len(b.Lines) == 1 && b.Lines[0] == "") {
		return
	}
	dc.SetFontFace(p.label)
	setColor(dc, t.Text, 1)
	for i, line := range b.Lines {
		dc.DrawStringAnchored(line, x, y+b.LineY(i), 0.5, 0.35)
	}
}

func (p painter) team(n *scene.Node) {
	dc, t := p.dc, p.theme

	setColor(dc, t.TeamFill, 1)
	dc.DrawCircle(n.X, n.Y, n.R)
	dc.Fill()
	if n.Highlight {
		setColor(dc, t.Highlight, 1)
		dc.SetLineWidth(t.StrokeWidth * 2)
		dc.DrawCircle(n.X, n.Y, n.R)
		dc.Stroke()
	}

	p.arcLabel(n.Name, n.X, n.Y, n.ArcR)

	for _, m := range n.Members {
		p.person(m.ID, m.Bubble, n.X+m.X, n.Y+m.Y, m.R, m.Highlight)
	}
}

// arcLabel sets text along the top of a circle, one glyph at a time.
func (p painter) arcLabel(text string, cx, cy, r float64) {
	dc, t := p.dc, p.theme
	if text == "" || r <= 0 {
		return
	}
	dc.SetFontFace(p.teamLabel)
	setColor(dc, t.Text, 1)

	total, _ := dc.MeasureString(text)
	angle := -math.Pi/2 - total/(2*r)
	for _, ch := range text {
		s := string(ch)
		w, _ := dc.MeasureString(s)
		mid := angle + w/(2*r)
		dc.Push()
		dc.Translate(cx+r*math.Cos(mid), cy+r*math.Sin(mid))
		dc.Rotate(mid + math.Pi/2)
		dc.DrawStringAnchored(s, 0, 0, 0.5, 0.35)
		dc.Pop()
		angle += w / r
	}
}

// setColor parses "#rgb" or "#rrggbb" and applies the given opacity.
func setColor(dc *gg.Context, hex string, alpha float64) {
	r, g, b, ok := parseHex(hex)
	if !ok {
		dc.SetRGBA(0, 0, 0, alpha)
		return
	}
	dc.SetRGBA(r, g, b, alpha)
}

func parseHex(hex string) (r, g, b float64, ok bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return float64(v>>16&0xff) / 255, float64(v>>8&0xff) / 255, float64(v&0xff) / 255, true
}
