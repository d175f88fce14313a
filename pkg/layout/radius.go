package layout

import (
	"math"

	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/graph"
)

// Policy derives display and collision radii from labels and packings.
//
// The same Policy value is used for packing teams, for outer collision and
// for rendering, so all three always agree. Radii are pure functions of the
// name, the measurer and the packing.
type Policy struct {
	BaseRadius    float64
	LineHeight    float64
	MaxLabelWidth float64
	LabelMargin   float64
	Measurer      geom.Measurer
}

// NewPolicy builds a policy from params. A nil measurer falls back to a
// fixed advance of 0.6 × font size per rune.
func NewPolicy(p Params, m geom.Measurer) Policy {
	if m == nil {
		m = geom.FixedMeasurer{Advance: 0.6 * p.FontSize}
	}
	return Policy{
		BaseRadius:    p.BaseRadius,
		LineHeight:    p.LineHeight,
		MaxLabelWidth: p.MaxLabelWidth,
		LabelMargin:   p.LabelMargin,
		Measurer:      m,
	}
}

// WrapWidth is the effective label width, never below the base radius.
func (p Policy) WrapWidth() float64 {
	return math.Max(p.MaxLabelWidth, p.BaseRadius)
}

// Lines wraps name at WrapWidth. There is always at least one line.
func (p Policy) Lines(name string) []string {
	return geom.WrapLabel(name, p.WrapWidth(), p.Measurer)
}

// LineCount is the number of lines name wraps to.
func (p Policy) LineCount(name string) int {
	return geom.LineCount(name, p.WrapWidth(), p.Measurer)
}

// LabelRadius is the radius of a leaf labelled name.
func (p Policy) LabelRadius(name string) float64 {
	return p.BaseRadius + p.LineHeight*float64(p.LineCount(name))
}

// FaceRadius is the radius of a person's picture. A person's own Radius
// raises the base but never lowers it.
func (p Policy) FaceRadius(person graph.Person) float64 {
	return math.Max(person.Radius, p.BaseRadius)
}

// PersonRadius is the radius of the bubble holding a person's face and
// wrapped name.
func (p Policy) PersonRadius(person graph.Person) float64 {
	return p.FaceRadius(person) + p.LineHeight*float64(p.LineCount(person.Name))
}

// TeamRadius is the radius of a packed team: the enclosing circle of its
// members plus the label margin.
func (p Policy) TeamRadius(pk Packing) float64 {
	return pk.Bounds.R + p.LabelMargin
}

// Radius returns the bounding radius of n. Teams need their packing;
// a team with an empty packing is sized like a leaf on its own name.
func (p Policy) Radius(n graph.Node, pk Packing) float64 {
	switch n.Kind() {
	case graph.KindTeam:
		if len(pk.Offsets) == 0 {
			return p.LabelRadius(n.Name())
		}
		return p.TeamRadius(pk)
	default:
		person, _ := n.Person()
		return p.PersonRadius(person)
	}
}
