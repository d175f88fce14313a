package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/render/scene"
	"github.com/matzehuels/orgchart/pkg/viewport"
)

func testLayout(t *testing.T) *layout.Layout {
	t.Helper()
	g := &graph.Graph{
		Nodes: []graph.Node{
			graph.NewPerson(graph.Person{ID: "1", Name: "Ada Lovelace"}),
			graph.NewPerson(graph.Person{ID: "2", Name: "Grace", PictureURL: "https://example.com/g.png"}),
			graph.NewTeam(graph.Team{ID: "t", Name: "Compilers", Children: []graph.Person{
				{ID: "3", Name: "Fran"},
				{ID: "4", Name: "Barbara"},
			}}),
		},
		Links: []graph.Link{{Source: "1", Target: "2"}, {Source: "1", Target: "t"}},
	}
	policy := layout.NewPolicy(layout.DefaultParams(), geom.FixedMeasurer{Advance: 6})
	l, err := layout.New(g, layout.DefaultParams(), policy)
	require.NoError(t, err)
	l.Settle(1000)
	return l
}

func TestRenderSVG(t *testing.T) {
	l := testLayout(t)

	svg, err := RenderSVG(l, WithSize(800, 600))
	require.NoError(t, err)
	s := string(svg)
	assert.True(t, strings.HasPrefix(s, "<svg"))
	assert.Contains(t, s, `width="800" height="600"`)
	assert.Contains(t, s, `id="node-t"`)
	assert.Contains(t, s, `<pattern id="avatar-2"`)

	again, err := RenderSVG(l, WithSize(800, 600))
	require.NoError(t, err)
	assert.Equal(t, s, string(again))
}

func TestRenderSVGFitsLayout(t *testing.T) {
	l := testLayout(t)
	w, h := FitSize(l.Frame(), defaultMargin)

	svg, err := RenderSVG(l)
	require.NoError(t, err)
	assert.Contains(t, string(svg), fmt.Sprintf(`width="%.0f" height="%.0f"`, w, h))
	assert.GreaterOrEqual(t, h, minFitSize)
}

func TestRenderSVGFocus(t *testing.T) {
	l := testLayout(t)

	svg, err := RenderSVG(l, WithSize(400, 400), WithFocus("3"))
	require.NoError(t, err)
	assert.Contains(t, string(svg), `class="member highlight"`)
	assert.NotContains(t, string(svg), `transform="translate(0,0) scale(1)"`)

	_, err = RenderSVG(l, WithFocus("nobody"))
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestRenderSVGOptions(t *testing.T) {
	l := testLayout(t)

	svg, err := RenderSVG(l,
		WithEmbeddedFont(),
		WithScript(),
		WithHighlight("1"),
		WithAvatarHrefs(map[string]string{"3": "data:image/png;base64,AAAA"}),
	)
	require.NoError(t, err)
	s := string(svg)
	assert.Contains(t, s, "@font-face")
	assert.Contains(t, s, "<script")
	assert.Contains(t, s, `class="link highlight"`)
	assert.Contains(t, s, `<pattern id="avatar-3"`)
	assert.Equal(t, 1, strings.Count(s, "<defs>"))
}

func TestRenderPNG(t *testing.T) {
	l := testLayout(t)

	avatar := image.NewRGBA(image.Rect(0, 0, 10, 20))
	for i := range avatar.Pix {
		avatar.Pix[i] = 0xff
	}

	data, err := RenderPNG(l,
		WithSize(1000, 800),
		WithScale(0.5),
		WithAvatarImages(map[string]image.Image{"2": avatar}),
	)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 500, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())

	// Corners show the background.
	r, g, b, _ := img.At(0, 0).RGBA()
	want := color.RGBA{0x66, 0x66, 0x66, 0xff}
	wr, wg, wb, _ := want.RGBA()
	assert.Equal(t, []uint32{wr, wg, wb}, []uint32{r, g, b})
}

func TestDrawPNGFaceAboveLabel(t *testing.T) {
	policy := layout.NewPolicy(layout.DefaultParams(), geom.FixedMeasurer{Advance: 6})
	b := scene.NewBinder(policy)
	b.Bind([]graph.Node{graph.NewPerson(graph.Person{ID: "b", Name: "Bartholomew Montgomery Fitzgerald"})})
	s := b.Render(graph.Frame{Nodes: []graph.NodePosition{
		{ID: "b", Kind: graph.KindPerson, R: 56},
	}}, scene.State{Width: 200, Height: 200, Transform: viewport.Identity()})

	red := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(red.Pix); i += 4 {
		red.Pix[i], red.Pix[i+3] = 0xff, 0xff
	}
	data, err := DrawPNG(s, b.Theme(), map[string]image.Image{"b": red}, 1)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	rgb := func(x, y int) []uint32 {
		r, g, b, _ := img.At(x, y).RGBA()
		return []uint32{r >> 8, g >> 8, b >> 8}
	}
	// Face centre sits 18 above the bubble centre (three 12px lines).
	face := rgb(100, 82)
	assert.InDelta(t, 0xff, face[0], 2, "avatar inside the face")
	assert.InDelta(t, 0, face[1], 2)
	assert.InDelta(t, 0, face[2], 2)
	assert.Equal(t, []uint32{0xee, 0xee, 0xee}, rgb(55, 100), "bubble fill outside the face")
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b float64
		ok      bool
	}{
		{"#ffffff", 1, 1, 1, true},
		{"#000", 0, 0, 0, true},
		{"#ff0000", 1, 0, 0, true},
		{"nope", 0, 0, 0, false},
		{"#12345", 0, 0, 0, false},
	}
	for _, tt := range tests {
		r, g, b, ok := parseHex(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.InDelta(t, tt.r, r, 1e-9, tt.in)
		assert.InDelta(t, tt.g, g, 1e-9, tt.in)
		assert.InDelta(t, tt.b, b, 1e-9, tt.in)
	}
}

func TestRenderJSON(t *testing.T) {
	l := testLayout(t)

	data, err := RenderJSON(l, WithSize(800, 600))
	require.NoError(t, err)

	var out jsonOutput
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 800.0, out.Width)
	assert.Equal(t, "quiescent", out.State)
	require.Len(t, out.Nodes, 3)
	assert.Equal(t, []string{"Ada", "Lovelace"}, out.Nodes[0].Lines)
	assert.Equal(t, "https://example.com/g.png", out.Nodes[1].Picture)
	assert.Len(t, out.Nodes[2].Members, 2)
	assert.Equal(t, "Barbara", out.Nodes[2].Members[1].Name)
	assert.Len(t, out.Links, 2)
	assert.Empty(t, out.Issues)
}

func TestToDOT(t *testing.T) {
	l := testLayout(t)

	dot := ToDOT(l, DOTOptions{})
	assert.Contains(t, dot, "graph G {")
	assert.Contains(t, dot, `"1" -- "2"`)
	assert.Contains(t, dot, `label="Ada Lovelace"`)
	assert.NotContains(t, dot, "pos=")
	assert.NotContains(t, dot, "cluster_")

	pinned := ToDOT(l, DOTOptions{Pinned: true, Members: true})
	assert.Contains(t, pinned, `pos="0.00,0.00!"`)
	assert.Contains(t, pinned, `subgraph "cluster_t"`)
	assert.Contains(t, pinned, `lhead="cluster_t"`)
	assert.Contains(t, pinned, `"1" -- "3"`)
}

func TestRenderGraphviz(t *testing.T) {
	l := testLayout(t)

	svg, err := RenderGraphviz(context.Background(), ToDOT(l, DOTOptions{Pinned: true}))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}

func TestRenderGraphvizInvalidDOT(t *testing.T) {
	_, err := RenderGraphviz(context.Background(), "this is not dot {{{")
	assert.Error(t, err)
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	assert.Contains(t, out, `width="100" height="50"`)
	assert.NotContains(t, out, "pt")
}
