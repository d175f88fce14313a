// Package layout computes org chart positions with a two-level force layout.
//
// # Radius Policy
//
// [Policy] sizes every circle. A person grows by [Params.LineHeight] for each
// line their name wraps to; a team is the enclosing circle of its packed
// members plus [Params.LabelMargin]. The packing, the outer collision force
// and the renderer all read radii from the same Policy.
//
// # Team Packing
//
// [PackTeam] runs a short, fixed-length simulation per team that pulls
// members towards the team centre while keeping them apart. It is
// synchronous and deterministic, so a team's shape only changes when its
// members do.
//
// # Outer Simulation
//
// [Layout] positions top-level people and teams with link, charge, collide
// and center forces, applied in that order. One node is pinned at the origin
// and the rest are seeded on a spiral by insertion order. The layout moves
// through [Initializing], [Running] and [Quiescent] and ends in [Disposed].
//
// Recoverable input problems (unresolved links, empty teams, blank names,
// duplicate ids) never fail the layout; they are recorded as [Issue] values
// and reported through observability hooks.
package layout
