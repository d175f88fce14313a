package scene

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/viewport"
)

func testPolicy() layout.Policy {
	return layout.NewPolicy(layout.DefaultParams(), geom.FixedMeasurer{Advance: 6})
}

func testNodes() []graph.Node {
	return []graph.Node{
		graph.NewPerson(graph.Person{ID: "1", Name: "Ada Lovelace", PictureURL: "https://example.com/ada.png"}),
		graph.NewPerson(graph.Person{ID: "2", Name: "Grace"}),
		graph.NewTeam(graph.Team{ID: "t", Name: "Compilers & Tools", Children: []graph.Person{
			{ID: "3", Name: "Fran"},
			{ID: "4", Name: "Barbara", PictureURL: "https://example.com/b.png"},
		}}),
	}
}

func testFrame() graph.Frame {
	return graph.Frame{
		Nodes: []graph.NodePosition{
			{ID: "1", Kind: graph.KindPerson, X: 0, Y: 0, R: 32},
			{ID: "2", Kind: graph.KindPerson, X: 150, Y: 0, R: 32},
			{ID: "t", Kind: graph.KindTeam, X: -120, Y: 90, R: 100, Members: []graph.MemberPosition{
				{ID: "3", X: -34, Y: 0, R: 32},
				{ID: "4", X: 34, Y: 0, R: 32},
			}},
		},
		Links: []graph.Link{
			{Source: "1", Target: "2"},
			{Source: "1", Target: "t"},
		},
	}
}

func testState() State {
	return State{Width: 800, Height: 600, Transform: viewport.Identity()}
}

func TestRenderIsIdempotent(t *testing.T) {
	b := NewBinder(testPolicy())
	b.Bind(testNodes())

	b.Render(testFrame(), testState())
	first := b.SVG()
	nodes := append([]*Node(nil), b.Scene().Nodes...)

	b.Render(testFrame(), testState())
	second := b.SVG()

	assert.Equal(t, string(first), string(second))
	for i, n := range b.Scene().Nodes {
		assert.Same(t, nodes[i], n, "element for %s was re-created", n.ID)
	}
	for _, id := range []string{"1", "2", "t", "3", "4"} {
		assert.Equal(t, 1, bytes.Count(second, []byte(`id="node-`+id+`"`)), "node %s", id)
	}
	assert.Equal(t, 2, bytes.Count(second, []byte("<line ")))
}

func TestRenderDoesNotMutateInputs(t *testing.T) {
	nodes := testNodes()
	f := testFrame()
	before, _ := graph.MarshalFrame(f)

	b := NewBinder(testPolicy())
	b.Bind(nodes)
	b.Render(f, testState())
	b.SetAvatar("2", "data:image/png;base64,AAAA")

	after, _ := graph.MarshalFrame(f)
	assert.Equal(t, string(before), string(after))
	p, _ := nodes[1].Person()
	assert.Empty(t, p.PictureURL)
}

func TestRenderUpdatesPositions(t *testing.T) {
	b := NewBinder(testPolicy())
	b.Bind(testNodes())
	b.Render(testFrame(), testState())

	f := testFrame()
	f.Nodes[1].X = 200
	s := b.Render(f, testState())

	n, ok := s.Find("2")
	require.True(t, ok)
	assert.Equal(t, 200.0, n.X)
	assert.Equal(t, 200.0, s.Links[0].X2)
}

func TestBindRemovesStaleElements(t *testing.T) {
	b := NewBinder(testPolicy())
	b.Bind(testNodes())
	b.Render(testFrame(), testState())

	b.Bind(testNodes()[:1])
	s := b.Render(testFrame(), testState())
	assert.Len(t, s.Nodes, 1)
	assert.Empty(t, s.Links, "links to unbound nodes are dropped")
}

func TestHighlight(t *testing.T) {
	b := NewBinder(testPolicy())
	b.Bind(testNodes())
	f := testFrame()

	st := testState()
	st.Highlighted = "2"
	st.LinkHighlight = func(l graph.Link) bool { return l.Source == "2" || l.Target == "2" }
	s := b.Render(f, st)

	n, _ := s.Find("2")
	assert.True(t, n.Highlight)
	assert.True(t, s.Links[0].Highlight)
	assert.False(t, s.Links[1].Highlight)

	st.Highlighted = "3"
	st.LinkHighlight = nil
	s = b.Render(f, st)
	n, _ = s.Find("2")
	assert.False(t, n.Highlight)
	team, _ := s.Find("t")
	assert.True(t, team.Members[0].Highlight)
	assert.False(t, s.Links[0].Highlight)
}

func TestSVGContent(t *testing.T) {
	b := NewBinder(testPolicy())
	b.Bind(testNodes())
	b.Render(testFrame(), testState())
	svg := string(b.SVG())

	assert.Contains(t, svg, `viewBox="-400.00 -300.00 800.00 600.00"`)
	assert.Contains(t, svg, `transform="translate(0,0) scale(1)"`)
	assert.Contains(t, svg, `<pattern id="avatar-1"`)
	assert.Contains(t, svg, `fill="url(#avatar-1)"`)
	assert.Contains(t, svg, `<pattern id="avatar-4"`)
	assert.NotContains(t, svg, `avatar-2`)
	assert.Contains(t, svg, `<textPath href="#team-arc-t"`)
	assert.Contains(t, svg, `Compilers &amp; Tools`)
	assert.Contains(t, svg, `<tspan x="0"`)
	assert.Less(t, strings.Index(svg, `class="links"`), strings.Index(svg, `class="nodes"`))

	var doc struct{ XMLName xml.Name }
	require.NoError(t, xml.Unmarshal([]byte(svg), &doc))
	assert.Equal(t, "svg", doc.XMLName.Local)
}

func TestPersonBubble(t *testing.T) {
	b := NewBinder(testPolicy())
	b.Bind([]graph.Node{
		graph.NewPerson(graph.Person{ID: "x", Name: "Bartholomew Montgomery Fitzgerald", PictureURL: "https://example.com/x.png"}),
		graph.NewTeam(graph.Team{ID: "t", Name: "Ops", Children: []graph.Person{{ID: "m", Name: "Ada"}}}),
	})
	s := b.Render(graph.Frame{Nodes: []graph.NodePosition{
		{ID: "x", Kind: graph.KindPerson, R: 56},
		{ID: "t", Kind: graph.KindTeam, X: 200, R: 50, Members: []graph.MemberPosition{{ID: "m", R: 32}}},
	}}, testState())

	n, _ := s.Find("x")
	require.Len(t, n.Lines, 3)
	assert.Equal(t, 20.0, n.Face)
	assert.Equal(t, -18.0, n.FaceY)
	assert.Equal(t, n.R, n.Face+n.LineHeight*float64(len(n.Lines)), "face and lines fill the bubble")
	assert.LessOrEqual(t, -n.R, n.FaceY-n.Face)
	assert.LessOrEqual(t, n.LineY(len(n.Lines)-1)+n.LineHeight/2, n.R)
	assert.Greater(t, n.LineY(0)-n.LineHeight/2, n.FaceY+n.Face-1e-9, "label starts below the face")

	svg := string(b.SVG())
	person := svg[strings.Index(svg, `id="node-x"`):strings.Index(svg, `id="node-t"`)]
	assert.Equal(t, 2, strings.Count(person, "<circle"))
	assert.Contains(t, person, `<circle class="bound" r="56.00" fill="#eeeeee"`)
	assert.Contains(t, person, `<circle class="face" cy="-18.00" r="20.00" fill="url(#avatar-x)"/>`)
	assert.Contains(t, person, `<tspan x="0" y="8.00">Bartholomew</tspan>`)

	// Members get the same bubble; without a picture the face is flat.
	member := svg[strings.Index(svg, `id="node-m"`):]
	assert.Contains(t, member, `<circle class="bound" r="32.00"`)
	assert.Contains(t, member, `<circle class="face" cy="-6.00" r="20.00" fill="#cccccc"/>`)
}

func TestSetAvatar(t *testing.T) {
	b := NewBinder(testPolicy())
	b.Bind(testNodes())
	b.SetAvatar("3", "data:image/png;base64,AAAA")
	b.Render(testFrame(), testState())

	assert.Contains(t, string(b.SVG()), `<pattern id="avatar-3"`)

	// Overrides survive a rebind.
	b.Bind(testNodes())
	team, _ := b.Scene().Find("t")
	assert.Equal(t, "data:image/png;base64,AAAA", team.Members[0].Avatar)
}

func TestScript(t *testing.T) {
	b := NewBinder(testPolicy(), WithScript())
	b.Bind(testNodes())
	b.Render(testFrame(), testState())
	assert.Contains(t, string(b.SVG()), "<script")

	plain := NewBinder(testPolicy())
	plain.Bind(testNodes())
	plain.Render(testFrame(), testState())
	assert.NotContains(t, string(plain.SVG()), "<script")
}

func TestViewState(t *testing.T) {
	c := viewport.New(640, 480)
	f := testFrame()
	c.Highlight("1", f)

	st := ViewState(c)
	assert.Equal(t, 640.0, st.Width)
	assert.Equal(t, "1", st.Highlighted)
	assert.True(t, st.LinkHighlight(f.Links[1]))
}

func TestLoading(t *testing.T) {
	svg := string(Loading(300, 200))
	assert.Contains(t, svg, "Loading")
	assert.Contains(t, svg, `viewBox="-150.00 -100.00 300.00 200.00"`)
}
