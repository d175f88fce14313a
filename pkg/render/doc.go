// Package render groups the ways a laid-out chart is drawn.
//
// # Overview
//
// Drawing is split in two:
//
//   - scene: a retained scene graph kept in sync with the simulation. The
//     engine re-projects every tick into it and serialises it as live SVG.
//   - sink: one-shot renderers for a settled layout.Layout: SVG, PNG
//     (drawn with gg), JSON frames and Graphviz DOT.
//
// Both read the same radius policy as the layout, so circles, labels and
// collision sizes always agree.
//
//	e.WithLayout(func(l *layout.Layout) error {
//	    svg, err := sink.RenderSVG(l, sink.WithFocus(tr))
//	    ...
//	})
package render
