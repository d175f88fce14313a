// Package engine mounts an org chart: it ties the layout, the scene binder,
// the viewport controller and a tick scheduler together behind one mutex.
//
// # Lifecycle
//
// An engine starts empty and draws a loading placeholder. [Engine.Load]
// builds a fresh layout from a graph; loading again disposes the old one.
// [Engine.Start] ticks the layout on a [Host], redrawing after every step,
// until [Engine.Stop] or [Engine.Dispose]:
//
//	e := engine.New(engine.WithSize(1024, 768))
//	defer e.Dispose()
//	if err := e.Load(g); err != nil {
//	    return err
//	}
//	e.Start()
//
// Hosts decide where ticks come from. [TimerHost] uses a ticker goroutine;
// [ManualHost] runs callbacks only when stepped, for tests and for callers
// that own their frame loop.
//
// # Search
//
// [Engine.SetSearched] focuses and highlights a node, animating the viewport
// over [viewport.DefaultDuration]. An empty id animates back to the identity
// transform. A search set before data arrives is applied by the next Load.
//
// # Frames
//
// [Engine.Subscribe] delivers the layout frame after every redraw. Each
// subscriber holds at most one pending frame; a slow reader skips to the
// latest one.
//
// [viewport.DefaultDuration]: github.com/matzehuels/orgchart/pkg/viewport.DefaultDuration
package engine
