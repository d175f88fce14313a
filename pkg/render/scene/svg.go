package scene

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/matzehuels/orgchart/pkg/graph"
)

const nodeInteractionCSS = `
    .bound, .team-bound { transition: stroke-width 0.2s ease; }
    .hover > .bound, .hover > .team-bound { stroke-width: 4; }
    .link.hover { stroke-opacity: 1; }
    text { pointer-events: none; }`

const nodeInteractionJS = `
    function hover(id, on) {
      document.querySelectorAll('[data-id="' + id + '"]').forEach(el => el.classList.toggle('hover', on));
      document.querySelectorAll('.link').forEach(l => {
        if (l.dataset.source === id || l.dataset.target === id) l.classList.toggle('hover', on);
      });
    }
    document.querySelectorAll('.node, .member').forEach(el => {
      el.addEventListener('mouseenter', e => { e.stopPropagation(); hover(el.dataset.id, true); });
      el.addEventListener('mouseleave', () => hover(el.dataset.id, false));
    });`

// EscapeXML escapes s for use in SVG text and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// AvatarID returns the id of the image pattern for a person.
func AvatarID(id string) string { return "avatar-" + id }

func f2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func writeSVG(buf *bytes.Buffer, s *Scene, t Theme, script bool) {
	w, h := s.Width, s.Height
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%.0f" height="%.0f">`+"\n",
		f2(-w/2), f2(-h/2), f2(w), f2(h), w, h)

	writeDefs(buf, s)
	fmt.Fprintf(buf, `  <rect class="background" x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
		f2(-w/2), f2(-h/2), f2(w), f2(h), t.Background)

	fmt.Fprintf(buf, `  <g class="viewport" transform="%s">`+"\n", s.Transform)
	buf.WriteString(`    <g class="links">` + "\n")
	for _, l := range s.Links {
		writeLink(buf, l, t)
	}
	buf.WriteString("    </g>\n")
	buf.WriteString(`    <g class="nodes">` + "\n")
	for _, n := range s.Nodes {
		if n.Kind == graph.KindTeam {
			writeTeam(buf, n, t)
		} else {
			writePerson(buf, n, t)
		}
	}
	buf.WriteString("    </g>\n")
	buf.WriteString("  </g>\n")

	if script {
		fmt.Fprintf(buf, "  <style>%s\n  </style>\n", nodeInteractionCSS)
		fmt.Fprintf(buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", nodeInteractionJS)
	}
	buf.WriteString("</svg>\n")
}

func writeDefs(buf *bytes.Buffer, s *Scene) {
	buf.WriteString("  <defs>\n")
	pattern := func(id, href string) {
		if href == "" {
			return
		}
		fmt.Fprintf(buf, `    <pattern id="%s" patternContentUnits="objectBoundingBox" width="1" height="1">`+
			`<image href="%s" width="1" height="1" preserveAspectRatio="xMidYMid slice"/></pattern>`+"\n",
			EscapeXML(AvatarID(id)), EscapeXML(href))
	}
	for _, n := range s.Nodes {
		if n.Kind == graph.KindPerson {
			pattern(n.ID, n.Avatar)
		}
		for _, m := range n.Members {
			pattern(m.ID, m.Avatar)
		}
	}
	buf.WriteString("  </defs>\n")
}

func writeLink(buf *bytes.Buffer, l *Link, t Theme) {
	class, stroke, opacity := "link", t.LinkStroke, t.LinkOpacity
	if l.Highlight {
		class, stroke, opacity = "link highlight", t.Highlight, 1
	}
	fmt.Fprintf(buf, `      <line class="%s" data-source="%s" data-target="%s" x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-opacity="%s" stroke-width="%s"/>`+"\n",
		class, EscapeXML(l.Source), EscapeXML(l.Target),
		f2(l.X1), f2(l.Y1), f2(l.X2), f2(l.Y2),
		stroke, f2(opacity), f2(t.LinkWidth))
}

func faceFill(id, avatar string, t Theme) string {
	if avatar == "" {
		return t.FaceFill
	}
	return "url(#" + EscapeXML(AvatarID(id)) + ")"
}

func stroke(highlight bool, t Theme) (string, float64) {
	if highlight {
		return t.Highlight, t.StrokeWidth * 2
	}
	return t.PersonStroke, t.StrokeWidth
}

func writePerson(buf *bytes.Buffer, n *Node, t Theme) {
	class := "node person"
	if n.Highlight {
		class += " highlight"
	}
	col, width := stroke(n.Highlight, t)
	fmt.Fprintf(buf, `      <g class="%s" id="node-%s" data-id="%s" transform="translate(%s,%s)">`+"\n",
		class, EscapeXML(n.ID), EscapeXML(n.ID), f2(n.X), f2(n.Y))
	writeBubble(buf, n.ID, n.Bubble, n.R, col, width, t, "        ")
	buf.WriteString("      </g>\n")
}

func writeTeam(buf *bytes.Buffer, n *Node, t Theme) {
	class := "node team"
	if n.Highlight {
		class += " highlight"
	}
	col, width := t.TeamFill, 0.0
	if n.Highlight {
		col, width = t.Highlight, t.StrokeWidth*2
	}
	id := EscapeXML(n.ID)
	fmt.Fprintf(buf, `      <g class="%s" id="node-%s" data-id="%s" transform="translate(%s,%s)">`+"\n",
		class, id, id, f2(n.X), f2(n.Y))
	fmt.Fprintf(buf, `        <circle class="team-bound" r="%s" fill="%s" stroke="%s" stroke-width="%s"/>`+"\n",
		f2(n.R), t.TeamFill, col, f2(width))

	// The arc runs left to right over the top so the label reads upright.
	fmt.Fprintf(buf, `        <path id="team-arc-%s" d="M %s 0 A %s %s 0 0 1 %s 0" fill="none"/>`+"\n",
		id, f2(-n.ArcR), f2(n.ArcR), f2(n.ArcR), f2(n.ArcR))
	fmt.Fprintf(buf, `        <text class="team-label" font-family="%s" font-size="%s" fill="%s" dominant-baseline="middle">`+
		`<textPath href="#team-arc-%s" startOffset="50%%" text-anchor="middle">%s</textPath></text>`+"\n",
		EscapeXML(t.FontFamily), f2(t.TeamFontSize), t.Text, id, EscapeXML(n.Name))

	for _, m := range n.Members {
		mclass := "member"
		if m.Highlight {
			mclass += " highlight"
		}
		mcol, mwidth := stroke(m.Highlight, t)
		mid := EscapeXML(m.ID)
		fmt.Fprintf(buf, `        <g class="%s" id="node-%s" data-id="%s" transform="translate(%s,%s)">`+"\n",
			mclass, mid, mid, f2(m.X), f2(m.Y))
		writeBubble(buf, m.ID, m.Bubble, m.R, mcol, mwidth, t, "          ")
		buf.WriteString("        </g>\n")
	}
	buf.WriteString("      </g>\n")
}

// writeBubble draws a person's bounding circle of radius r, the face and the
// label lines under it.
func writeBubble(buf *bytes.Buffer, id string, b Bubble, r float64, col string, width float64, t Theme, indent string) {
	fmt.Fprintf(buf, `%s<circle class="bound" r="%s" fill="%s" stroke="%s" stroke-width="%s"/>`+"\n",
		indent, f2(r), t.PersonFill, col, f2(width))
	fmt.Fprintf(buf, `%s<circle class="face" cy="%s" r="%s" fill="%s"/>`+"\n",
		indent, f2(b.FaceY), f2(b.Face), faceFill(id, b.Avatar, t))

	if len(b.Lines) == 0 || (len(b.Lines) == 1 && b.Lines[0] == "") {
		return
	}
	fmt.Fprintf(buf, `%s<text class="label" text-anchor="middle" dominant-baseline="middle" font-family="%s" font-size="%s" fill="%s">`,
		indent, EscapeXML(t.FontFamily), f2(t.FontSize), t.Text)
	for i, line := range b.Lines {
		fmt.Fprintf(buf, `<tspan x="0" y="%s">%s</tspan>`, f2(b.LineY(i)), EscapeXML(line))
	}
	buf.WriteString("</text>\n")
}

// Loading returns a placeholder drawing shown while no layout exists.
func Loading(width, height float64) []byte {
	t := DefaultTheme()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%.0f" height="%.0f">`+"\n",
		f2(-width/2), f2(-height/2), f2(width), f2(height), width, height)
	fmt.Fprintf(&buf, `  <rect class="background" x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
		f2(-width/2), f2(-height/2), f2(width), f2(height), t.Background)
	fmt.Fprintf(&buf, `  <text class="loading" x="0" y="0" text-anchor="middle" dominant-baseline="middle" font-family="%s" font-size="%s" fill="%s">Loading…</text>`+"\n",
		EscapeXML(t.FontFamily), f2(t.TeamFontSize*1.5), t.PersonFill)
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}
