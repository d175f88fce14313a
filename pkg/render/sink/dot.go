package sink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout"
)

// pointsPerInch converts layout units to Graphviz inches.
const pointsPerInch = 72.0

// DOTOptions configures DOT export.
type DOTOptions struct {
	// Pinned fixes every node at its layout position (neato pos="x,y!").
	// When false Graphviz lays the chart out itself.
	Pinned bool
	// Members draws team members as their own nodes inside a cluster.
	Members bool
}

// ToDOT converts the layout's current frame to Graphviz DOT. Teams become
// clusters when Members is set, otherwise a single circle.
func ToDOT(l *layout.Layout, opts DOTOptions) string {
	f := l.Frame()
	names := make(map[string]string)
	for _, n := range l.Nodes() {
		names[n.ID()] = n.Name()
		for _, m := range n.Members() {
			names[m.ID] = m.Name
		}
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  node [shape=circle, fixedsize=true, style=filled, fillcolor=\"#eeeeee\", color=\"#e70000\", fontsize=10];\n")
	buf.WriteString("  edge [color=\"#999999\"];\n")
	buf.WriteString("\n")

	for _, n := range f.Nodes {
		if n.Kind == graph.KindTeam && opts.Members && len(n.Members) > 0 {
			fmt.Fprintf(&buf, "  subgraph %q {\n", "cluster_"+n.ID)
			fmt.Fprintf(&buf, "    label=%q;\n", names[n.ID])
			for _, m := range n.Members {
				attrs := nodeAttrs(names[m.ID], m.R, n.X+m.X, n.Y+m.Y, opts.Pinned)
				fmt.Fprintf(&buf, "    %q [%s];\n", m.ID, strings.Join(attrs, ", "))
			}
			buf.WriteString("  }\n")
			continue
		}
		attrs := nodeAttrs(names[n.ID], n.R, n.X, n.Y, opts.Pinned)
		if n.Kind == graph.KindTeam {
			attrs = append(attrs, "fillcolor=white", "color=\"#333333\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range f.Links {
		src, dst := e.Source, e.Target
		attrs := ""
		if opts.Members {
			src, attrs = clusterEndpoint(f, src, "ltail", attrs)
			dst, attrs = clusterEndpoint(f, dst, "lhead", attrs)
		}
		fmt.Fprintf(&buf, "  %q -- %q%s;\n", src, dst, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(label string, r, x, y float64, pinned bool) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("width=%.3f", 2*r/pointsPerInch),
	}
	if pinned {
		attrs = append(attrs, fmt.Sprintf("pos=\"%.2f,%.2f!\"", x, flipY(y)))
	}
	return attrs
}

// flipY converts to Graphviz's upward y axis without producing -0.
func flipY(y float64) float64 {
	if y == 0 {
		return 0
	}
	return -y
}

// clusterEndpoint routes a link to a team's first member so the edge can
// attach to the cluster.
func clusterEndpoint(f graph.Frame, id, attr, attrs string) (string, string) {
	n, ok := f.Find(id)
	if !ok || n.Kind != graph.KindTeam || len(n.Members) == 0 {
		return id, attrs
	}
	extra := fmt.Sprintf("%s=%q", attr, "cluster_"+id)
	if attrs == "" {
		return n.Members[0].ID, " [" + extra + "]"
	}
	return n.Members[0].ID, strings.TrimSuffix(attrs, "]") + ", " + extra + "]"
}

// RenderGraphviz renders a DOT graph to SVG using Graphviz.
func RenderGraphviz(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one sized
// in pixels.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %.2f %.2f" width="%.0f" height="%.0f">`,
		match[1], match[2], w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
