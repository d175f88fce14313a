// Package sink renders a layout's current positions to output formats.
//
// # Overview
//
// A "sink" turns a [layout.Layout] into bytes:
//
//   - SVG: the same drawing the live view shows, via [scene.Binder]
//   - PNG: rasterized directly with gg, avatars cropped with imaging
//   - JSON: positions, wrapped labels and issues for external tools
//   - DOT: Graphviz source, optionally pinned to the computed positions
//
// Sinks render whatever the layout holds; settle it first for a finished
// chart:
//
//	l.Settle(1000)
//	svg, err := sink.RenderSVG(l, sink.WithFocus("ada"))
//	png, err := sink.RenderPNG(l, sink.WithScale(2))
//
// # Options
//
//   - [WithSize]: fixed output size; otherwise [FitSize] frames every node
//   - [WithFocus]: centre and zoom on a node, highlighting it
//   - [WithHighlight]: highlight a node and its links in place
//   - [WithAvatarHrefs]: inline fetched avatars as data URIs (SVG)
//   - [WithAvatarImages]: decoded avatars for PNG output
//   - [WithEmbeddedFont], [WithScript], [WithTheme], [WithScale]
//
// # Graphviz
//
// [ToDOT] writes a neato graph. With Pinned set every node carries
// pos="x,y!" so Graphviz draws the force layout as computed; without it
// Graphviz lays the chart out itself. [RenderGraphviz] renders DOT to SVG
// with the embedded Graphviz build.
//
// [layout.Layout]: github.com/matzehuels/orgchart/pkg/layout.Layout
// [scene.Binder]: github.com/matzehuels/orgchart/pkg/render/scene.Binder
package sink
