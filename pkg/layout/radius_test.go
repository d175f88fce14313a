package layout

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/graph"
)

// testPolicy measures 6 units per rune and wraps at 60.
func testPolicy() Policy {
	return NewPolicy(DefaultParams(), geom.FixedMeasurer{Advance: 6})
}

func TestPersonRadius(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		name   string
		person graph.Person
		want   float64
	}{
		{"one line", graph.Person{Name: "Ada"}, 32},
		{"empty name", graph.Person{Name: ""}, 32},
		{"blank name", graph.Person{Name: "   "}, 32},
		{"three lines", graph.Person{Name: "Ada Lovelace Byron"}, 56},
		{"larger own radius", graph.Person{Name: "Ada", Radius: 30}, 42},
		{"smaller own radius ignored", graph.Person{Name: "Ada", Radius: 5}, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.PersonRadius(tt.person); got != tt.want {
				t.Errorf("PersonRadius(%q) = %v, want %v", tt.person.Name, got, tt.want)
			}
		})
	}
}

func TestFaceRadius(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		person graph.Person
		face   float64
		lines  int
	}{
		{graph.Person{Name: "Ada"}, 20, 1},
		{graph.Person{Name: "Bartholomew Montgomery Fitzgerald"}, 20, 3},
		{graph.Person{Name: "Ada", Radius: 30}, 30, 1},
	}

	for _, tt := range tests {
		face := p.FaceRadius(tt.person)
		if face != tt.face {
			t.Errorf("FaceRadius(%q) = %v, want %v", tt.person.Name, face, tt.face)
		}
		if n := p.LineCount(tt.person.Name); n != tt.lines {
			t.Errorf("LineCount(%q) = %d, want %d", tt.person.Name, n, tt.lines)
		}
		if got, want := p.PersonRadius(tt.person), face+p.LineHeight*float64(tt.lines); got != want {
			t.Errorf("PersonRadius(%q) = %v, want face + lines = %v", tt.person.Name, got, want)
		}
	}
}

func TestWrapWidthNeverBelowBase(t *testing.T) {
	params := DefaultParams()
	params.MaxLabelWidth = 5
	p := NewPolicy(params, nil)
	if got := p.WrapWidth(); got != params.BaseRadius {
		t.Errorf("WrapWidth() = %v, want %v", got, params.BaseRadius)
	}
}

func TestRadiusDeterministic(t *testing.T) {
	p := testPolicy()
	a := p.PersonRadius(graph.Person{Name: "Margaret Heafield Hamilton"})
	for i := 0; i < 5; i++ {
		if b := p.PersonRadius(graph.Person{Name: "Margaret Heafield Hamilton"}); b != a {
			t.Fatalf("PersonRadius() = %v then %v", a, b)
		}
	}
}

func TestEmptyTeamUsesLeafRadius(t *testing.T) {
	p := testPolicy()
	team := graph.NewTeam(graph.Team{ID: "t", Name: "Ghost Team"})
	if got, want := p.Radius(team, Packing{}), p.LabelRadius("Ghost Team"); got != want {
		t.Errorf("Radius(empty team) = %v, want %v", got, want)
	}
}

func TestRadiusProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)
	p := testPolicy()

	properties.Property("person radius is at least the base radius", prop.ForAll(
		func(name string) bool {
			return p.PersonRadius(graph.Person{Name: name}) >= p.BaseRadius
		},
		gen.AnyString(),
	))

	properties.Property("team radius covers every packed member", prop.ForAll(
		func(names []string) bool {
			if len(names) == 0 {
				return true
			}
			members := make([]graph.Person, len(names))
			for i, n := range names {
				members[i] = graph.Person{ID: n, Name: n}
			}
			pk := PackTeam(members, p, 2, 60)
			team := p.TeamRadius(pk)

			circles := make([]geom.Circle, len(pk.Offsets))
			for i, o := range pk.Offsets {
				circles[i] = geom.Circle{X: o.X, Y: o.Y, R: pk.Radii[i]}
				if math.Hypot(o.X, o.Y)+pk.Radii[i] > team+1e-6 {
					return false
				}
			}
			return team >= geom.Enclose(circles).R+p.LabelMargin-1e-6
		},
		gen.SliceOfN(6, gen.AlphaString()),
	))

	properties.TestingRun(t)
}
