package scene

import (
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/viewport"
)

// Scene is the retained set of drawable elements. Elements are owned by the
// [Binder] that produced the scene and are updated in place on every render.
type Scene struct {
	Width, Height float64
	Transform     viewport.Transform
	Links         []*Link
	Nodes         []*Node
}

// Bubble is the content of a person's circle: a face picture with the
// wrapped name underneath, centred as a block on the circle centre.
type Bubble struct {
	Lines      []string
	Avatar     string  // Image href, empty for a flat fill
	Face       float64 // Face radius
	FaceY      float64 // Face centre, relative to the circle centre
	LineHeight float64
}

// LineY is the vertical centre of label line i, relative to the circle
// centre.
func (b Bubble) LineY(i int) float64 {
	return b.FaceY + b.Face + b.LineHeight*(float64(i)+0.5)
}

// Node is a top-level circle: a person, or a team with its members.
// Teams leave the Bubble empty.
type Node struct {
	Bubble
	ID        string
	Kind      graph.Kind
	Name      string
	X, Y, R   float64
	ArcR      float64 // Radius of the team label arc
	Highlight bool
	Members   []*Member
}

// Member is a packed team member, positioned relative to its team.
type Member struct {
	Bubble
	ID        string
	Name      string
	X, Y, R   float64
	Highlight bool
}

// Link is a line between two top-level nodes.
type Link struct {
	Source, Target string
	X1, Y1, X2, Y2 float64
	Highlight      bool
}

// Find returns the top-level node with the given id.
func (s *Scene) Find(id string) (*Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Theme holds the colours and font settings used for drawing.
type Theme struct {
	Background   string
	LinkStroke   string
	LinkOpacity  float64
	LinkWidth    float64
	PersonFill   string
	PersonStroke string
	FaceFill     string
	StrokeWidth  float64
	TeamFill     string
	Highlight    string
	Text         string
	FontFamily   string
	FontSize     float64
	TeamFontSize float64
}

// DefaultTheme returns the standard palette.
func DefaultTheme() Theme {
	return Theme{
		Background:   "#666666",
		LinkStroke:   "#999999",
		LinkOpacity:  0.6,
		LinkWidth:    1.414,
		PersonFill:   "#eeeeee",
		PersonStroke: "#e70000",
		FaceFill:     "#cccccc",
		StrokeWidth:  1.5,
		TeamFill:     "#ffffff",
		Highlight:    "#ffcc00",
		Text:         "#333333",
		FontFamily:   "Go, sans-serif",
		FontSize:     10,
		TeamFontSize: 12,
	}
}
