package geom

import "math"

// Point is a position in layout space. The y axis points down, as in SVG.
type Point struct {
	X, Y float64
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool { return finite(p.X) && finite(p.Y) }

// OrZero returns p, or the origin if either coordinate is NaN or infinite.
func (p Point) OrZero() Point {
	if !p.Finite() {
		return Point{}
	}
	return p
}

// Circle is a disc with centre (X, Y) and radius R.
type Circle struct {
	X, Y, R float64
}

// Center returns the centre of c.
func (c Circle) Center() Point { return Point{c.X, c.Y} }

// Valid reports whether all fields are finite.
func (c Circle) Valid() bool { return finite(c.X) && finite(c.Y) && finite(c.R) }

// Contains reports whether d lies inside c, allowing eps of slack.
func (c Circle) Contains(d Circle, eps float64) bool {
	return math.Hypot(d.X-c.X, d.Y-c.Y)+d.R <= c.R+eps
}

// Overlaps reports whether c and d intersect by more than eps.
func (c Circle) Overlaps(d Circle, eps float64) bool {
	return math.Hypot(d.X-c.X, d.Y-c.Y) < c.R+d.R-eps
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
