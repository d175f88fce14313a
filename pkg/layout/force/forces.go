package force

import "math"

// =============================================================================
// Link
// =============================================================================

// Edge connects two bodies by index.
type Edge struct {
	Source, Target int
}

// Link pulls connected bodies towards a target distance.
//
// Each edge's strength defaults to 1/min(degree(source), degree(target)) and
// the correction is split between the endpoints in proportion to degree, so
// highly connected bodies move less.
type Link struct {
	Edges    []Edge
	Distance float64

	bodies   []*Body
	random   func() float64
	strength []float64
	bias     []float64
}

// NewLink returns a link force with the given target distance.
func NewLink(edges []Edge, distance float64) *Link {
	return &Link{Edges: edges, Distance: distance}
}

// Initialize implements Force.
func (l *Link) Initialize(bodies []*Body, random func() float64) {
	l.bodies, l.random = bodies, random
	count := make([]int, len(bodies))
	for _, e := range l.Edges {
		count[e.Source]++
		count[e.Target]++
	}
	l.strength = make([]float64, len(l.Edges))
	l.bias = make([]float64, len(l.Edges))
	for i, e := range l.Edges {
		s, t := count[e.Source], count[e.Target]
		l.strength[i] = 1 / float64(min(s, t))
		l.bias[i] = float64(s) / float64(s+t)
	}
}

// Apply implements Force.
func (l *Link) Apply(alpha float64) {
	for i, e := range l.Edges {
		src, dst := l.bodies[e.Source], l.bodies[e.Target]
		x := dst.X + dst.VX - src.X - src.VX
		y := dst.Y + dst.VY - src.Y - src.VY
		if x == 0 {
			x = jiggle(l.random)
		}
		if y == 0 {
			y = jiggle(l.random)
		}
		d := math.Sqrt(x*x + y*y)
		k := (d - l.Distance) / d * alpha * l.strength[i]
		x, y = x*k, y*k

		b := l.bias[i]
		dst.VX -= x * b
		dst.VY -= y * b
		src.VX += x * (1 - b)
		src.VY += y * (1 - b)
	}
}

// =============================================================================
// ManyBody
// =============================================================================

// ManyBody applies a pairwise inverse-distance force between all bodies.
// Negative strength repels. The pairwise sum is exact.
type ManyBody struct {
	Strength    float64
	DistanceMin float64

	bodies []*Body
	random func() float64
}

// NewManyBody returns a many-body force with the given strength.
func NewManyBody(strength float64) *ManyBody {
	return &ManyBody{Strength: strength, DistanceMin: 1}
}

// Initialize implements Force.
func (m *ManyBody) Initialize(bodies []*Body, random func() float64) {
	m.bodies, m.random = bodies, random
}

// Apply implements Force.
func (m *ManyBody) Apply(alpha float64) {
	min2 := m.DistanceMin * m.DistanceMin
	for i, a := range m.bodies {
		for j, b := range m.bodies {
			if i == j {
				continue
			}
			x, y := b.X-a.X, b.Y-a.Y
			if x == 0 {
				x = jiggle(m.random)
			}
			if y == 0 {
				y = jiggle(m.random)
			}
			l := x*x + y*y
			if l < min2 {
				l = math.Sqrt(min2 * l)
			}
			w := m.Strength * alpha / l
			a.VX += x * w
			a.VY += y * w
		}
	}
}

// =============================================================================
// Collide
// =============================================================================

// Collide treats bodies as discs and pushes overlapping pairs apart.
// Radii are read once per Initialize; the radius callback must be pure.
type Collide struct {
	Radius     func(i int) float64
	Strength   float64
	Iterations int

	bodies []*Body
	random func() float64
	radii  []float64
}

// NewCollide returns a collision force with strength 1 and one iteration.
func NewCollide(radius func(i int) float64) *Collide {
	return &Collide{Radius: radius, Strength: 1, Iterations: 1}
}

// Initialize implements Force.
func (c *Collide) Initialize(bodies []*Body, random func() float64) {
	c.bodies, c.random = bodies, random
	c.radii = make([]float64, len(bodies))
	for i := range bodies {
		r := c.Radius(i)
		if math.IsNaN(r) || r < 0 {
			r = 0
		}
		c.radii[i] = r
	}
}

// Apply implements Force.
func (c *Collide) Apply(float64) {
	for k := 0; k < c.Iterations; k++ {
		for i, a := range c.bodies {
			ri := c.radii[i]
			ri2 := ri * ri
			xi, yi := a.X+a.VX, a.Y+a.VY
			for j := i + 1; j < len(c.bodies); j++ {
				b := c.bodies[j]
				rj := c.radii[j]
				r := ri + rj
				x := xi - b.X - b.VX
				y := yi - b.Y - b.VY
				l := x*x + y*y
				if l >= r*r {
					continue
				}
				if x == 0 {
					x = jiggle(c.random)
					l += x * x
				}
				if y == 0 {
					y = jiggle(c.random)
					l += y * y
				}
				l = math.Sqrt(l)
				l = (r - l) / l * c.Strength
				x, y = x*l, y*l
				rj2 := rj * rj
				share := rj2 / (ri2 + rj2)
				if ri2+rj2 == 0 {
					share = 0.5
				}
				a.VX += x * share
				a.VY += y * share
				b.VX -= x * (1 - share)
				b.VY -= y * (1 - share)
			}
		}
	}
}

// =============================================================================
// Center
// =============================================================================

// Center translates all bodies so their mean position sits at (X, Y).
// While any body is pinned, the pin anchors the frame and Center does nothing.
type Center struct {
	X, Y     float64
	Strength float64

	bodies []*Body
}

// NewCenter returns a centring force at (x, y) with strength 1.
func NewCenter(x, y float64) *Center {
	return &Center{X: x, Y: y, Strength: 1}
}

// Initialize implements Force.
func (c *Center) Initialize(bodies []*Body, _ func() float64) {
	c.bodies = bodies
}

// Apply implements Force.
func (c *Center) Apply(float64) {
	if len(c.bodies) == 0 {
		return
	}
	var sx, sy float64
	for _, b := range c.bodies {
		if b.Fixed {
			return
		}
		sx += b.X
		sy += b.Y
	}
	n := float64(len(c.bodies))
	sx = (sx/n - c.X) * c.Strength
	sy = (sy/n - c.Y) * c.Strength
	for _, b := range c.bodies {
		b.X -= sx
		b.Y -= sy
	}
}

// =============================================================================
// Position
// =============================================================================

// Position pulls every body towards a fixed coordinate on each axis.
type Position struct {
	X, Y     float64
	Strength float64

	bodies []*Body
}

// NewPosition returns a positioning force towards (x, y) with strength 0.1.
func NewPosition(x, y float64) *Position {
	return &Position{X: x, Y: y, Strength: 0.1}
}

// Initialize implements Force.
func (p *Position) Initialize(bodies []*Body, _ func() float64) {
	p.bodies = bodies
}

// Apply implements Force.
func (p *Position) Apply(alpha float64) {
	k := p.Strength * alpha
	for _, b := range p.bodies {
		b.VX += (p.X - b.X) * k
		b.VY += (p.Y - b.Y) * k
	}
}
