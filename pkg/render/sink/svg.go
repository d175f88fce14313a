package sink

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/matzehuels/orgchart/pkg/fonts"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/render/scene"
	"github.com/matzehuels/orgchart/pkg/viewport"
)

const (
	defaultMargin = 40.0
	minFitSize    = 200.0
)

// Option configures static rendering of a layout.
type Option func(*renderer)

type renderer struct {
	width, height float64
	margin        float64
	focus         string
	highlight     string
	theme         scene.Theme
	script        bool
	embedFont     bool
	hrefs         map[string]string
	images        map[string]image.Image
	scale         float64
}

// WithSize sets the output size. Without it the size fits the layout.
func WithSize(w, h float64) Option { return func(r *renderer) { r.width, r.height = w, h } }

// WithMargin sets the margin added around a fitted layout.
func WithMargin(m float64) Option { return func(r *renderer) { r.margin = m } }

// WithFocus centres and zooms on a node and highlights it.
func WithFocus(id string) Option { return func(r *renderer) { r.focus = id } }

// WithHighlight highlights a node and its links without moving the view.
func WithHighlight(id string) Option { return func(r *renderer) { r.highlight = id } }

func WithTheme(t scene.Theme) Option { return func(r *renderer) { r.theme = t } }
func WithScript() Option             { return func(r *renderer) { r.script = true } }

// WithEmbeddedFont inlines the label font so the SVG renders identically
// without it installed.
func WithEmbeddedFont() Option { return func(r *renderer) { r.embedFont = true } }

// WithAvatarHrefs overrides avatar image hrefs by person id, typically with
// data URIs from the avatar fetcher.
func WithAvatarHrefs(hrefs map[string]string) Option {
	return func(r *renderer) { r.hrefs = hrefs }
}

// WithAvatarImages supplies decoded avatars for raster output.
func WithAvatarImages(images map[string]image.Image) Option {
	return func(r *renderer) { r.images = images }
}

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) Option { return func(r *renderer) { r.scale = s } }

func newRenderer(opts ...Option) renderer {
	r := renderer{margin: defaultMargin, theme: scene.DefaultTheme(), scale: 2.0}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// build draws the layout's current frame into a fresh binder.
func (r *renderer) build(l *layout.Layout) (*scene.Binder, error) {
	var bopts []scene.Option
	bopts = append(bopts, scene.WithTheme(r.theme))
	if r.script {
		bopts = append(bopts, scene.WithScript())
	}
	b := scene.NewBinder(l.Policy(), bopts...)
	for id, href := range r.hrefs {
		b.SetAvatar(id, href)
	}
	b.Bind(l.Nodes())

	f := l.Frame()
	w, h := r.width, r.height
	if w <= 0 || h <= 0 {
		w, h = FitSize(f, r.margin)
	}

	vp := viewport.New(w, h, viewport.WithDuration(0))
	if r.focus != "" {
		if err := vp.Focus(r.focus, f); err != nil {
			return nil, err
		}
		vp.Highlight(r.focus, f)
	}
	if r.highlight != "" {
		vp.Highlight(r.highlight, f)
	}
	b.Render(f, scene.ViewState(vp))
	return b, nil
}

// FitSize returns a square-ish size that shows every node in f around the
// origin, plus margin on each side.
func FitSize(f graph.Frame, margin float64) (w, h float64) {
	var ex, ey float64
	for _, n := range f.Nodes {
		ex = math.Max(ex, math.Abs(n.X)+n.R)
		ey = math.Max(ey, math.Abs(n.Y)+n.R)
	}
	w = math.Max(minFitSize, math.Ceil(2*(ex+margin)))
	h = math.Max(minFitSize, math.Ceil(2*(ey+margin)))
	return w, h
}

// RenderSVG renders the layout's current positions as a standalone SVG.
func RenderSVG(l *layout.Layout, opts ...Option) ([]byte, error) {
	r := newRenderer(opts...)
	b, err := r.build(l)
	if err != nil {
		return nil, err
	}
	svg := b.SVG()
	if r.embedFont {
		svg = embedFont(svg)
	}
	return svg, nil
}

func embedFont(svg []byte) []byte {
	style := fmt.Sprintf("  <defs>\n    <style>@font-face { font-family: '%s'; src: url(data:font/ttf;base64,%s) format('truetype'); }</style>\n",
		fonts.FontFamily, fonts.RegularTTFBase64())
	return bytes.Replace(svg, []byte("  <defs>\n"), []byte(style), 1)
}
