package geom

import "math"

// Enclose returns the smallest circle that contains every circle in cs.
//
// No circles yields the zero circle and one circle yields itself. Otherwise
// the incremental basis-extension algorithm (Matoušek, Sharir and Welzl) is
// used, visiting circles in their given order so the result is
// deterministic. Circles with non-finite fields are ignored. If the basis
// extension fails numerically a conservative circle around the centroid is
// returned, so the result always contains every input circle.
func Enclose(cs []Circle) Circle {
	circles := make([]Circle, 0, len(cs))
	for _, c := range cs {
		if c.Valid() {
			circles = append(circles, Circle{X: c.X, Y: c.Y, R: math.Max(c.R, 0)})
		}
	}

	switch len(circles) {
	case 0:
		return Circle{}
	case 1:
		return circles[0]
	}

	var (
		basis []Circle
		e     Circle
		have  bool
		steps int
	)
	limit := 64 * len(circles) * len(circles)
	for i := 0; i < len(circles); {
		if steps++; steps > limit {
			return fallbackEnclose(circles)
		}
		p := circles[i]
		if have && enclosesWeak(e, p) {
			i++
			continue
		}
		next, ok := extendBasis(basis, p)
		if !ok {
			return fallbackEnclose(circles)
		}
		basis = next
		e = encloseBasis(basis)
		if !e.Valid() {
			return fallbackEnclose(circles)
		}
		have = true
		i = 0
	}
	return e
}

func extendBasis(basis []Circle, p Circle) ([]Circle, bool) {
	if enclosesWeakAll(p, basis) {
		return []Circle{p}, true
	}

	for i := range basis {
		if enclosesNot(p, basis[i]) && enclosesWeakAll(encloseBasis2(basis[i], p), basis) {
			return []Circle{basis[i], p}, true
		}
	}

	for i := 0; i < len(basis)-1; i++ {
		for j := i + 1; j < len(basis); j++ {
			if enclosesNot(encloseBasis2(basis[i], basis[j]), p) &&
				enclosesNot(encloseBasis2(basis[i], p), basis[j]) &&
				enclosesNot(encloseBasis2(basis[j], p), basis[i]) &&
				enclosesWeakAll(encloseBasis3(basis[i], basis[j], p), basis) {
				return []Circle{basis[i], basis[j], p}, true
			}
		}
	}
	return nil, false
}

func enclosesNot(a, b Circle) bool {
	dr := a.R - b.R
	dx, dy := b.X-a.X, b.Y-a.Y
	return dr < 0 || dr*dr < dx*dx+dy*dy
}

func enclosesWeak(a, b Circle) bool {
	dr := a.R - b.R + math.Max(math.Max(a.R, b.R), 1)*1e-9
	dx, dy := b.X-a.X, b.Y-a.Y
	return dr > 0 && dr*dr > dx*dx+dy*dy
}

func enclosesWeakAll(a Circle, basis []Circle) bool {
	for _, b := range basis {
		if !enclosesWeak(a, b) {
			return false
		}
	}
	return true
}

func encloseBasis(basis []Circle) Circle {
	switch len(basis) {
	case 1:
		return basis[0]
	case 2:
		return encloseBasis2(basis[0], basis[1])
	default:
		return encloseBasis3(basis[0], basis[1], basis[2])
	}
}

func encloseBasis2(a, b Circle) Circle {
	x21, y21, r21 := b.X-a.X, b.Y-a.Y, b.R-a.R
	l := math.Hypot(x21, y21)
	if l == 0 {
		if a.R >= b.R {
			return a
		}
		return b
	}
	return Circle{
		X: (a.X + b.X + x21/l*r21) / 2,
		Y: (a.Y + b.Y + y21/l*r21) / 2,
		R: (l + a.R + b.R) / 2,
	}
}

func encloseBasis3(a, b, c Circle) Circle {
	x1, y1, r1 := a.X, a.Y, a.R
	x2, y2, r2 := b.X, b.Y, b.R
	x3, y3, r3 := c.X, c.Y, c.R

	a2, a3 := x1-x2, x1-x3
	b2, b3 := y1-y2, y1-y3
	c2, c3 := r2-r1, r3-r1
	d1 := x1*x1 + y1*y1 - r1*r1
	d2 := d1 - x2*x2 - y2*y2 + r2*r2
	d3 := d1 - x3*x3 - y3*y3 + r3*r3
	ab := a3*b2 - a2*b3

	xa := (b2*d3-b3*d2)/(ab*2) - x1
	xb := (b3*c2 - b2*c3) / ab
	ya := (a3*d2-a2*d3)/(ab*2) - y1
	yb := (a2*c3 - a3*c2) / ab

	qa := xb*xb + yb*yb - 1
	qb := 2 * (r1 + xa*xb + ya*yb)
	qc := xa*xa + ya*ya - r1*r1

	var r float64
	if math.Abs(qa) > 1e-6 {
		r = -(qb + math.Sqrt(qb*qb-4*qa*qc)) / (2 * qa)
	} else {
		r = -qc / qb
	}
	return Circle{X: x1 + xa + xb*r, Y: y1 + ya + yb*r, R: r}
}

// fallbackEnclose centres on the centroid and reaches the farthest edge.
func fallbackEnclose(circles []Circle) Circle {
	var cx, cy float64
	for _, c := range circles {
		cx += c.X
		cy += c.Y
	}
	n := float64(len(circles))
	cx, cy = cx/n, cy/n

	var r float64
	for _, c := range circles {
		r = math.Max(r, math.Hypot(c.X-cx, c.Y-cy)+c.R)
	}
	return Circle{X: cx, Y: cy, R: r}
}
