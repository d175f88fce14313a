// Package scene binds layout frames to a retained drawing.
//
// # Overview
//
// A [Binder] owns one element per node, team member and link. [Binder.Bind]
// attaches node data (names, wrapped labels, avatars); [Binder.Render]
// applies a [graph.Frame] and a view [State] by updating positions and
// highlight flags in place. Nothing is re-created on a tick, so rendering the
// same input twice produces the same scene and the same bytes.
//
//	b := scene.NewBinder(policy)
//	b.Bind(l.Nodes())
//	b.Render(l.Frame(), scene.ViewState(vp))
//	svg := b.SVG()
//
// # Drawing
//
// A person is a bounding circle at the radius the layout gave them. Inside
// it sits a face circle, filled with the avatar pattern (avatar-<id>) or a
// flat colour, with the wrapped name underneath; face and name are centred
// together. Teams are a bounding
// circle with the team name set on an arc along the top edge, and their
// members drawn at their packed offsets. Links are straight lines between
// top-level centres, drawn beneath the nodes.
//
// [Loading] returns the placeholder shown before any layout exists.
package scene
