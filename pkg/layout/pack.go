package layout

import (
	"math"

	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout/force"
)

// minRelaxPasses is the floor on overlap clean-up passes after the packing
// ticks. Larger teams get n² passes.
const minRelaxPasses = 100

// relaxSlack is added to every correction so touching pairs end up apart.
const relaxSlack = 1e-7

// Packing is the result of packing a team: member offsets from the team
// centre, member radii, and the enclosing circle, which is centred at the
// origin.
type Packing struct {
	Offsets []geom.Point
	Radii   []float64
	Bounds  geom.Circle
}

// PackTeam arranges members in a tight cluster around the origin.
//
// Members start on a ring ordered by index and are pulled towards the origin
// while colliding at radius + padding, for exactly iterations synchronous
// ticks. A final relaxation separates any pair still closer than
// r_i + r_j + padding. Offsets are re-centred on the enclosing circle. A
// single member sits at the origin and non-finite offsets become (0, 0).
// The result depends only on the inputs.
func PackTeam(members []graph.Person, policy Policy, padding float64, iterations int) Packing {
	n := len(members)
	if n == 0 {
		return Packing{}
	}

	radii := make([]float64, n)
	for i, m := range members {
		radii[i] = policy.PersonRadius(m)
	}

	if n == 1 {
		return Packing{
			Offsets: []geom.Point{{}},
			Radii:   radii,
			Bounds:  geom.Circle{R: radii[0]},
		}
	}

	bodies := seedRing(radii, padding)
	sim := force.New(bodies)
	sim.AddForce("position", force.NewPosition(0, 0))
	sim.AddForce("collide", force.NewCollide(func(i int) float64 { return radii[i] + padding }))
	sim.Run(iterations)

	offsets := make([]geom.Point, n)
	for i, b := range bodies {
		offsets[i] = geom.Point{X: b.X, Y: b.Y}.OrZero()
	}
	relax(offsets, radii, padding)

	circles := make([]geom.Circle, n)
	for i, o := range offsets {
		circles[i] = geom.Circle{X: o.X, Y: o.Y, R: radii[i]}
	}
	bounds := geom.Enclose(circles)
	shift := bounds.Center()
	for i := range offsets {
		offsets[i] = offsets[i].Sub(shift)
	}

	return Packing{
		Offsets: offsets,
		Radii:   radii,
		Bounds:  geom.Circle{R: bounds.R},
	}
}

// seedRing places n bodies evenly on a ring wide enough that neighbours
// start apart.
func seedRing(radii []float64, padding float64) []*force.Body {
	n := len(radii)
	rmax := 0.0
	for _, r := range radii {
		rmax = math.Max(rmax, r)
	}
	ring := (rmax + padding) / math.Sin(math.Pi/float64(n))

	bodies := make([]*force.Body, n)
	for i := range bodies {
		a := 2 * math.Pi * float64(i) / float64(n)
		bodies[i] = &force.Body{X: ring * math.Cos(a), Y: ring * math.Sin(a)}
	}
	return bodies
}

// relax pushes apart pairs closer than r_i + r_j + padding, splitting the
// correction evenly, until a pass moves nothing. Coincident pairs are
// separated along the x axis. If the pass limit runs out first the offsets
// are spread out until no pair overlaps.
func relax(offsets []geom.Point, radii []float64, padding float64) {
	n := len(offsets)
	passes := max(minRelaxPasses, n*n)
	for pass := 0; pass < passes; pass++ {
		moved := false
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				a, b := padded(offsets, radii, padding, i), padded(offsets, radii, padding, j)
				if !a.Overlaps(b, 0) {
					continue
				}
				want := a.R + b.R
				dx, dy := b.X-a.X, b.Y-a.Y
				d := math.Hypot(dx, dy)
				if d == 0 {
					dx, dy, d = 1, 0, 1
					offsets[j].X += 1
				}
				push := (want - d + relaxSlack) / 2
				ux, uy := dx/d, dy/d
				offsets[i].X -= ux * push
				offsets[i].Y -= uy * push
				offsets[j].X += ux * push
				offsets[j].Y += uy * push
				moved = true
			}
		}
		if !moved {
			return
		}
	}
	spread(offsets, radii, padding)
}

// spread scales every offset about the origin by the largest ratio any
// overlapping pair needs. Scaling grows all distances by the same factor,
// so afterwards no pair overlaps.
func spread(offsets []geom.Point, radii []float64, padding float64) {
	k := 1.0
	for i := range offsets {
		for j := i + 1; j < len(offsets); j++ {
			a, b := padded(offsets, radii, padding, i), padded(offsets, radii, padding, j)
			d := math.Hypot(b.X-a.X, b.Y-a.Y)
			if d > 0 && a.Overlaps(b, 0) {
				k = math.Max(k, (a.R+b.R+relaxSlack)/d)
			}
		}
	}
	for i := range offsets {
		offsets[i].X *= k
		offsets[i].Y *= k
	}
}

// padded is member i as a circle carrying half the padding, so two padded
// circles touch at r_i + r_j + padding.
func padded(offsets []geom.Point, radii []float64, padding float64, i int) geom.Circle {
	return geom.Circle{X: offsets[i].X, Y: offsets[i].Y, R: radii[i] + padding/2}
}
