package graph

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// =============================================================================
// Node Kinds
// =============================================================================

// Kind discriminates the variants of [Node].
type Kind string

// Node kinds.
const (
	KindPerson Kind = "person"
	KindTeam   Kind = "team"
)

// Location is an optional facility tag attached to a person ("berlin",
// "remote", ...). Tags are compared case-insensitively.
type Location string

// ParseLocation normalises a raw facility tag.
func ParseLocation(s string) Location {
	return Location(strings.ToLower(strings.TrimSpace(s)))
}

// LocationRemote marks people who work from no facility. It is always known.
const LocationRemote Location = "remote"

// Locations enumerates the facility tags a deployment recognises.
// An empty set accepts every tag.
type Locations map[Location]struct{}

// NewLocations builds a set from raw tags. Blank tags are ignored.
func NewLocations(tags ...string) Locations {
	set := make(Locations, len(tags))
	for _, t := range tags {
		if l := ParseLocation(t); l != "" {
			set[l] = struct{}{}
		}
	}
	return set
}

// Known reports whether l is in the set. The empty tag is always known.
func (s Locations) Known(l Location) bool {
	if len(s) == 0 || l == "" || l == LocationRemote {
		return true
	}
	_, ok := s[l]
	return ok
}

// =============================================================================
// Person and Team
// =============================================================================

// Person is a leaf of the org chart.
type Person struct {
	ID         string   `json:"id" yaml:"id" toml:"id"`
	Name       string   `json:"name" yaml:"name" toml:"name"`
	PictureURL string   `json:"picture_url,omitempty" yaml:"picture_url,omitempty" toml:"picture_url"`
	Location   Location `json:"location,omitempty" yaml:"location,omitempty" toml:"location"`
	Radius     float64  `json:"r,omitempty" yaml:"r,omitempty" toml:"r"` // Display radius before label growth; 0 uses the policy default
}

// HasPicture reports whether the person has an avatar URL.
func (p Person) HasPicture() bool { return strings.TrimSpace(p.PictureURL) != "" }

// Team groups people into a single top-level node.
type Team struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Children []Person `json:"children"`
}

// =============================================================================
// Node - Person | Team
// =============================================================================

// Node is a top-level element of the chart: either a person or a team.
// The kind is fixed at construction; use [NewPerson] or [NewTeam].
type Node struct {
	kind   Kind
	person Person
	team   Team
}

// NewPerson wraps p as a top-level node.
func NewPerson(p Person) Node { return Node{kind: KindPerson, person: p} }

// NewTeam wraps t as a top-level node. The children are copied.
func NewTeam(t Team) Node {
	t.Children = slices.Clone(t.Children)
	return Node{kind: KindTeam, team: t}
}

// Kind returns the node's discriminant.
func (n Node) Kind() Kind { return n.kind }

// ID returns the node identifier.
func (n Node) ID() string {
	if n.kind == KindTeam {
		return n.team.ID
	}
	return n.person.ID
}

// Name returns the display name.
func (n Node) Name() string {
	if n.kind == KindTeam {
		return n.team.Name
	}
	return n.person.Name
}

// Person returns the person variant.
func (n Node) Person() (Person, bool) {
	return n.person, n.kind == KindPerson
}

// Team returns the team variant. The returned children are a copy.
func (n Node) Team() (Team, bool) {
	if n.kind != KindTeam {
		return Team{}, false
	}
	t := n.team
	t.Children = slices.Clone(t.Children)
	return t, true
}

// Members returns the team's children, or nil for a person.
// The slice is a copy.
func (n Node) Members() []Person {
	if n.kind != KindTeam {
		return nil
	}
	return slices.Clone(n.team.Children)
}

type wireNode struct {
	Kind       Kind     `json:"kind"`
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	PictureURL string   `json:"picture_url,omitempty"`
	Location   Location `json:"location,omitempty"`
	Radius     float64  `json:"r,omitempty"`
	Children   []Person `json:"children,omitempty"`
}

// MarshalJSON encodes the node with an explicit "kind" field.
func (n Node) MarshalJSON() ([]byte, error) {
	w := wireNode{Kind: n.kind, ID: n.ID(), Name: n.Name()}
	switch n.kind {
	case KindPerson:
		w.PictureURL = n.person.PictureURL
		w.Location = n.person.Location
		w.Radius = n.person.Radius
	case KindTeam:
		w.Children = n.team.Children
		if w.Children == nil {
			w.Children = []Person{}
		}
	default:
		return nil, fmt.Errorf("node %q: unknown kind %q", n.ID(), n.kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a node. A missing kind is inferred from the
// presence of a "children" array.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Kind == "" {
		w.Kind = KindPerson
		if w.Children != nil {
			w.Kind = KindTeam
		}
	}
	switch w.Kind {
	case KindPerson:
		*n = NewPerson(Person{ID: w.ID, Name: w.Name, PictureURL: w.PictureURL, Location: w.Location, Radius: w.Radius})
	case KindTeam:
		*n = NewTeam(Team{ID: w.ID, Name: w.Name, Children: w.Children})
	default:
		return fmt.Errorf("node %q: unknown kind %q", w.ID, w.Kind)
	}
	return nil
}

// =============================================================================
// Link and Graph
// =============================================================================

// Link connects two top-level nodes. Links are undirected for layout.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the input to the layout engine.
//
// A nil Nodes or Links slice means the collection is missing, which the
// engine rejects. Use empty slices for an empty chart.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Clone returns a deep copy of g. Nil collections stay nil.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	out := &Graph{Links: slices.Clone(g.Links)}
	if g.Nodes != nil {
		out.Nodes = make([]Node, len(g.Nodes))
		for i, n := range g.Nodes {
			if n.kind == KindTeam {
				n.team.Children = slices.Clone(n.team.Children)
			}
			out.Nodes[i] = n
		}
	}
	return out
}

// Address locates an id inside a graph. Member is -1 for top-level nodes.
type Address struct {
	Node   int
	Member int
}

// TopLevel reports whether the address is a top-level node.
func (a Address) TopLevel() bool { return a.Member < 0 }

// Index maps every id in g, top-level and team member, to its address.
// When an id repeats, the first occurrence wins.
func (g *Graph) Index() map[string]Address {
	idx := make(map[string]Address)
	for i, n := range g.Nodes {
		if _, dup := idx[n.ID()]; !dup {
			idx[n.ID()] = Address{Node: i, Member: -1}
		}
		if n.kind != KindTeam {
			continue
		}
		for j, c := range n.team.Children {
			if _, dup := idx[c.ID]; !dup {
				idx[c.ID] = Address{Node: i, Member: j}
			}
		}
	}
	return idx
}

// Duplicates returns ids that occur more than once, in first-seen order.
func (g *Graph) Duplicates() []string {
	seen := make(map[string]int)
	var order []string
	visit := func(id string) {
		seen[id]++
		if seen[id] == 2 {
			order = append(order, id)
		}
	}
	for _, n := range g.Nodes {
		visit(n.ID())
		for _, c := range n.Members() {
			visit(c.ID)
		}
	}
	return order
}

// PersonCount returns the number of people, counting team members.
func (g *Graph) PersonCount() int {
	count := 0
	for _, n := range g.Nodes {
		switch n.Kind() {
		case KindPerson:
			count++
		case KindTeam:
			count += len(n.team.Children)
		}
	}
	return count
}
