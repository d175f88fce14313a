package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
)

var want = []Record{
	{ID: "1", Name: "Magnus", PictureURL: "https://example.com/m.png"},
	{ID: "2", Name: "Hugo", Team: "Technical Coordination", Parent: "1"},
	{ID: "3", Name: "Tobias", Team: "Technical Coordination", Parent: "1", Location: "Malmö"},
}

func TestReadFormats(t *testing.T) {
	tests := []struct {
		format Format
		input  string
	}{
		{FormatCSV, "id,name,picture_url,location,team,parent\n" +
			"1,Magnus,https://example.com/m.png,,,\n" +
			"2,Hugo,,,Technical Coordination,1\n" +
			"3,Tobias,,Malmö,Technical Coordination,1\n"},
		{FormatJSON, `[
			{"id": "1", "name": "Magnus", "picture_url": "https://example.com/m.png"},
			{"id": "2", "name": "Hugo", "team": "Technical Coordination", "parent": "1"},
			{"id": "3", "name": "Tobias", "team": "Technical Coordination", "parent": "1", "location": "Malmö"}
		]`},
		{FormatTOML, `
[[person]]
id = "1"
name = "Magnus"
picture_url = "https://example.com/m.png"

[[person]]
id = "2"
name = "Hugo"
team = "Technical Coordination"
parent = "1"

[[person]]
id = "3"
name = "Tobias"
team = "Technical Coordination"
parent = "1"
location = "Malmö"
`},
		{FormatYAML, `
- id: 1
  name: Magnus
  picture_url: https://example.com/m.png
- {id: 2, name: Hugo, team: Technical Coordination, parent: 1}
- {id: 3, name: Tobias, team: Technical Coordination, parent: 1, location: Malmö}
`},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			got, err := Read(strings.NewReader(tt.input), tt.format)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestReadCSVColumnOrder(t *testing.T) {
	in := "\ufeffName, ID ,Parent\nAda,a,\nGrace,g,a\n"
	got, err := Read(strings.NewReader(in), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, []Record{{ID: "a", Name: "Ada"}, {ID: "g", Name: "Grace", Parent: "a"}}, got)
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := Read(strings.NewReader("id,team\n1,x\n"), FormatCSV)
	assert.ErrorContains(t, err, `missing "name" column`)
}

func TestReadEmpty(t *testing.T) {
	for _, f := range []Format{FormatCSV, FormatJSON, FormatTOML, FormatYAML} {
		got, err := Read(strings.NewReader(""), f)
		if f == FormatJSON {
			assert.Error(t, err, "empty JSON is not a document")
			continue
		}
		require.NoError(t, err, f)
		assert.Empty(t, got, f)
	}
}

func TestReadTree(t *testing.T) {
	doc := `
name: engineering
network:
  name: Magnus Vejlstrup
  type: person
  children:
    - name: Technical Coordination
      type: team
      children:
        - {name: Hugo Firth, type: person}
        - {name: Tobias Johansson}
    - name: Frederik Clementson
      children:
        - name: Irfan Karaca
        - name: Irfan Karaca
`
	got, err := Read(strings.NewReader(doc), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{ID: "magnus-vejlstrup", Name: "Magnus Vejlstrup"},
		{ID: "hugo-firth", Name: "Hugo Firth", Team: "Technical Coordination", Parent: "magnus-vejlstrup"},
		{ID: "tobias-johansson", Name: "Tobias Johansson", Team: "Technical Coordination", Parent: "magnus-vejlstrup"},
		{ID: "frederik-clementson", Name: "Frederik Clementson", Parent: "magnus-vejlstrup"},
		{ID: "irfan-karaca", Name: "Irfan Karaca", Parent: "frederik-clementson"},
		{ID: "irfan-karaca-2", Name: "Irfan Karaca", Parent: "frederik-clementson"},
	}, got)
}

func TestReadTreeJSONRejectsNestedTeams(t *testing.T) {
	doc := `{"network": {"name": "A", "children": [
		{"name": "T", "type": "team", "children": [{"name": "U", "type": "team"}]}
	]}}`
	_, err := Read(strings.NewReader(doc), FormatJSON)
	assert.ErrorContains(t, err, "nested inside team")
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Technical Coordination": "technical-coordination",
		"  Console  ":            "console",
		"R&D / Platform":         "r-d-platform",
		"Ünïcode":                "n-code",
		"---":                    "",
	}
	for in, out := range tests {
		assert.Equal(t, out, Slug(in), in)
	}
}

func TestBuildGraph(t *testing.T) {
	records := []Record{
		{ID: "1", Name: "Magnus"},
		{ID: "2", Name: "Hugo", Team: "Coordination", Parent: "1"},
		{ID: "3", Name: "Frederik", Parent: "1"},
		{ID: "4", Name: "Tobias", Team: "coordination", Parent: "1"},
		{ID: "5", Name: "Rex", Team: "Console", Parent: "3"},
		{ID: "6", Name: "Elliot", Team: "Console", Parent: "5"},
		{ID: "7", Name: "Anu", Team: "Console", Parent: "2"},
	}
	g, issues := BuildGraph(records)
	assert.Empty(t, issues)

	var ids []string
	for _, n := range g.Nodes {
		ids = append(ids, n.ID())
	}
	assert.Equal(t, []string{"1", "team:coordination", "3", "team:console"}, ids)

	team, ok := g.Nodes[1].Team()
	require.True(t, ok)
	assert.Equal(t, "Coordination", team.Name, "first spelling wins")
	assert.Len(t, team.Children, 2)

	assert.Equal(t, []graph.Link{
		{Source: "1", Target: "team:coordination"},
		{Source: "1", Target: "3"},
		{Source: "3", Target: "team:console"},
		{Source: "team:coordination", Target: "team:console"},
	}, g.Links, "intra-team and repeated links dropped")
}

func TestBuildGraphIssues(t *testing.T) {
	records := []Record{
		{ID: "1", Name: "A"},
		{ID: "1", Name: "A again"},
		{ID: "", Name: "Nobody"},
		{ID: "bad id", Name: "Spaces"},
		{ID: "team:x", Name: "Reserved"},
		{ID: "2", Name: "B", Parent: "ghost"},
	}
	g, issues := BuildGraph(records)
	assert.Len(t, g.Nodes, 2)
	assert.Empty(t, g.Links)
	require.Len(t, issues, 5)
	for _, is := range issues {
		assert.Equal(t, errors.ErrCodeMalformedGraph, is.Code)
	}
	assert.Equal(t, "2", issues[4].NodeID)
}

func TestBuildGraphLocations(t *testing.T) {
	records := []Record{
		{ID: "1", Name: "A", Location: " Berlin "},
		{ID: "2", Name: "B", Location: "atlantis"},
		{ID: "3", Name: "C", Location: "Remote", Team: "Ops"},
		{ID: "4", Name: "D"},
	}

	g, issues := BuildGraph(records, WithLocations(graph.NewLocations("berlin", "lisbon")))
	require.Len(t, issues, 1)
	assert.Equal(t, "2", issues[0].NodeID)
	assert.Equal(t, errors.ErrCodeMalformedGraph, issues[0].Code)

	a, _ := g.Nodes[0].Person()
	assert.Equal(t, graph.Location("berlin"), a.Location)
	b, _ := g.Nodes[1].Person()
	assert.Empty(t, b.Location, "unknown tag cleared")
	assert.Equal(t, graph.LocationRemote, g.Nodes[2].Members()[0].Location)

	// Without a set every tag is kept.
	g, issues = BuildGraph(records)
	assert.Empty(t, issues)
	b, _ = g.Nodes[1].Person()
	assert.Equal(t, graph.Location("atlantis"), b.Location)
}

func TestBuildGraphSatisfiesLayoutInvariants(t *testing.T) {
	g, _ := BuildGraph(want)
	assert.Empty(t, g.Duplicates())
	idx := g.Index()
	for _, l := range g.Links {
		assert.True(t, idx[l.Source].TopLevel(), l.Source)
		assert.True(t, idx[l.Target].TopLevel(), l.Target)
	}
	assert.Equal(t, 3, g.PersonCount())
}

func TestPictureURLs(t *testing.T) {
	assert.Equal(t, map[string]string{"1": "https://example.com/m.png"}, PictureURLs(want))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "team.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name\n1,Ada\n"), 0o644))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []Record{{ID: "1", Name: "Ada"}}, got)

	_, err = Load(filepath.Join(dir, "absent.csv"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))

	_, err = Load(filepath.Join(dir, "team.xlsx"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("[{"), 0o644))
	_, err = Load(bad)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))
}

func TestLoadGraphDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	doc := `{"nodes": [
		{"id": "1", "name": "Ada", "picture_url": "https://example.com/a.png"},
		{"id": "t", "name": "Team", "children": [{"id": "2", "name": "Grace"}]}
	], "links": [{"source": "1", "target": "t"}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	g, records, issues, err := LoadGraph(path)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, records, 2)
	assert.Equal(t, map[string]string{"1": "https://example.com/a.png"}, PictureURLs(records))
}

func TestExampleRosters(t *testing.T) {
	for _, name := range []string{"acme.csv", "acme-tree.yaml"} {
		t.Run(name, func(t *testing.T) {
			known := graph.NewLocations("oslo", "london", "new-york", "helsinki")
			g, records, issues, err := LoadGraph(filepath.Join("..", "..", "examples", name), WithLocations(known))
			require.NoError(t, err)
			assert.Empty(t, issues)
			assert.Len(t, records, 9)
			assert.Len(t, g.Nodes, 6, "three managers, two teams and one report")
			assert.Len(t, g.Links, 5)
			assert.Equal(t, 9, g.PersonCount())
			assert.Empty(t, g.Duplicates())
		})
	}
}
