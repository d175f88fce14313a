// Package force implements a small velocity Verlet force simulation.
//
// A [Simulation] owns a slice of [Body] values and an ordered list of
// [Force] implementations. Each tick alpha (the "temperature") decays
// towards its target, forces add velocity in order, and velocities are damped
// and integrated. The simulation is done once alpha drops below alphaMin.
//
// Available forces:
//
//   - [Link]: springs between connected bodies
//   - [ManyBody]: pairwise charge, repulsive for negative strength
//   - [Collide]: disc collision with a per-body radius
//   - [Center]: keeps the mean position at a point
//   - [Position]: pulls each body towards a point
//
// Coincident bodies are separated with a tiny jiggle from a seeded [LCG], so
// identical inputs always produce identical trajectories.
package force
