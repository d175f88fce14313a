package roster

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout"
)

// TeamPrefix starts the id of every team node.
const TeamPrefix = "team:"

// TeamID returns the node id of the team named name.
func TeamID(name string) string {
	return TeamPrefix + Slug(name)
}

// BuildGraph turns records into the layout input.
//
// People with a team are grouped into one team node per distinct team
// slug, placed where the team's first member appears. Every record with a
// parent yields a link from the parent's top-level node (the parent itself,
// or its team) to the record's top-level node. Links inside a team and
// repeated links are dropped. Invalid ids, duplicate ids and unknown
// parents are skipped and reported as MALFORMED_GRAPH issues. With
// [WithLocations], tags outside the set are reported and cleared.
func BuildGraph(records []Record, opts ...BuildOption) (*graph.Graph, []layout.Issue) {
	var cfg buildConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	b := builder{
		teams: make(map[string]int),
		addr:  make(map[string]string),
		seen:  make(map[[2]string]bool),
		g:     &graph.Graph{Nodes: []graph.Node{}, Links: []graph.Link{}},
	}

	var kept []Record
	ids := make(map[string]bool)
	for _, r := range records {
		r.ID = strings.TrimSpace(r.ID)
		if err := errors.ValidateNodeID(r.ID); err != nil {
			b.report(r.ID, "record %q skipped: %s", r.Name, errors.UserMessage(err))
			continue
		}
		if ids[r.ID] {
			b.report(r.ID, "duplicate id %q skipped", r.ID)
			continue
		}
		if strings.HasPrefix(r.ID, TeamPrefix) {
			b.report(r.ID, "id %q uses the reserved %q prefix", r.ID, TeamPrefix)
			continue
		}
		ids[r.ID] = true
		kept = append(kept, r)
	}

	// Nodes first so every address is known before links resolve.
	var members [][]graph.Person
	for _, r := range kept {
		p := graph.Person{
			ID:         r.ID,
			Name:       strings.TrimSpace(r.Name),
			PictureURL: strings.TrimSpace(r.PictureURL),
			Location:   graph.ParseLocation(r.Location),
		}
		if !cfg.locations.Known(p.Location) {
			b.report(p.ID, "unknown location %q for %q", p.Location, p.ID)
			p.Location = ""
		}
		team := strings.TrimSpace(r.Team)
		if team == "" || Slug(team) == "" {
			b.g.Nodes = append(b.g.Nodes, graph.NewPerson(p))
			members = append(members, nil)
			b.addr[p.ID] = p.ID
			continue
		}
		tid := TeamID(team)
		i, ok := b.teams[tid]
		if !ok {
			i = len(b.g.Nodes)
			b.teams[tid] = i
			b.g.Nodes = append(b.g.Nodes, graph.NewTeam(graph.Team{ID: tid, Name: team}))
			members = append(members, []graph.Person{})
		}
		members[i] = append(members[i], p)
		b.addr[p.ID] = tid
	}
	for _, i := range b.teams {
		t, _ := b.g.Nodes[i].Team()
		t.Children = members[i]
		b.g.Nodes[i] = graph.NewTeam(t)
	}

	for _, r := range kept {
		parent := strings.TrimSpace(r.Parent)
		if parent == "" {
			continue
		}
		src, ok := b.addr[parent]
		if !ok {
			b.report(r.ID, "parent %q of %q not found", parent, r.ID)
			continue
		}
		b.link(src, b.addr[r.ID])
	}
	return b.g, b.issues
}

// BuildOption configures BuildGraph.
type BuildOption func(*buildConfig)

type buildConfig struct {
	locations graph.Locations
}

// WithLocations restricts facility tags to set.
func WithLocations(set graph.Locations) BuildOption {
	return func(c *buildConfig) { c.locations = set }
}

type builder struct {
	g      *graph.Graph
	teams  map[string]int    // team id -> node index
	addr   map[string]string // person id -> top-level node id
	seen   map[[2]string]bool
	issues []layout.Issue
}

func (b *builder) link(src, dst string) {
	if src == dst {
		return
	}
	key := [2]string{src, dst}
	if dst < src {
		key = [2]string{dst, src}
	}
	if b.seen[key] {
		return
	}
	b.seen[key] = true
	b.g.Links = append(b.g.Links, graph.Link{Source: src, Target: dst})
}

func (b *builder) report(id, format string, args ...any) {
	b.issues = append(b.issues, layout.Issue{
		Code:    errors.ErrCodeMalformedGraph,
		NodeID:  id,
		Message: fmt.Sprintf(format, args...),
	})
}

// LoadGraph reads a roster file and builds its graph. A JSON file holding
// a graph document ({"nodes": ..., "links": ...}) is read as-is.
func LoadGraph(path string, opts ...BuildOption) (*graph.Graph, []Record, []layout.Issue, error) {
	if isGraphDocument(path) {
		g, err := graph.ReadGraphFile(path)
		if err != nil {
			return nil, nil, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "graph %s", path)
		}
		return g, recordsOf(g), nil, nil
	}
	records, err := Load(path)
	if err != nil {
		return nil, nil, nil, err
	}
	g, issues := BuildGraph(records, opts...)
	return g, records, issues, nil
}

// recordsOf lists the people of g, for avatar lookup.
func recordsOf(g *graph.Graph) []Record {
	var out []Record
	for _, n := range g.Nodes {
		if p, ok := n.Person(); ok {
			out = append(out, Record{ID: p.ID, Name: p.Name, PictureURL: p.PictureURL, Location: string(p.Location)})
			continue
		}
		for _, m := range n.Members() {
			out = append(out, Record{ID: m.ID, Name: m.Name, PictureURL: m.PictureURL, Location: string(m.Location), Team: n.Name()})
		}
	}
	return out
}

func isGraphDocument(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc map[string]json.RawMessage
	if json.Unmarshal(data, &doc) != nil {
		return false
	}
	_, ok := doc["nodes"]
	return ok
}
