package sink

import (
	"encoding/json"

	"github.com/matzehuels/orgchart/pkg/layout"
)

type jsonOutput struct {
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Tick   int         `json:"tick"`
	Alpha  float64     `json:"alpha"`
	State  string      `json:"state"`
	Focus  string      `json:"focus,omitempty"`
	Nodes  []jsonNode  `json:"nodes"`
	Links  []jsonLink  `json:"links"`
	Issues []jsonIssue `json:"issues,omitempty"`
}

type jsonNode struct {
	ID      string       `json:"id"`
	Kind    string       `json:"kind"`
	Name    string       `json:"name"`
	Picture string       `json:"picture_url,omitempty"`
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
	R       float64      `json:"r"`
	Lines   []string     `json:"lines,omitempty"`
	Members []jsonMember `json:"members,omitempty"`
}

type jsonMember struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Picture string   `json:"picture_url,omitempty"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	R       float64  `json:"r"`
	Lines   []string `json:"lines,omitempty"`
}

type jsonLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type jsonIssue struct {
	Code    string `json:"code"`
	NodeID  string `json:"node_id,omitempty"`
	Message string `json:"message"`
}

// RenderJSON exports the layout's current positions, wrapped labels and
// issues as indented JSON. Member positions are relative to their team.
func RenderJSON(l *layout.Layout, opts ...Option) ([]byte, error) {
	r := newRenderer(opts...)
	f := l.Frame()
	policy := l.Policy()

	out := jsonOutput{
		Width:  r.width,
		Height: r.height,
		Tick:   f.Tick,
		Alpha:  f.Alpha,
		State:  f.State,
		Nodes:  make([]jsonNode, 0, len(f.Nodes)),
		Links:  make([]jsonLink, 0, len(f.Links)),
		Focus:  r.focus,
	}
	if out.Width <= 0 || out.Height <= 0 {
		out.Width, out.Height = FitSize(f, r.margin)
	}

	nodes := l.Nodes()
	for i, np := range f.Nodes {
		n := nodes[i]
		jn := jsonNode{ID: np.ID, Kind: string(np.Kind), Name: n.Name(), X: np.X, Y: np.Y, R: np.R}
		if p, ok := n.Person(); ok {
			jn.Picture = p.PictureURL
			jn.Lines = policy.Lines(p.Name)
		}
		members := n.Members()
		for j, mp := range np.Members {
			m := members[j]
			jn.Members = append(jn.Members, jsonMember{
				ID: mp.ID, Name: m.Name, Picture: m.PictureURL,
				X: mp.X, Y: mp.Y, R: mp.R,
				Lines: policy.Lines(m.Name),
			})
		}
		out.Nodes = append(out.Nodes, jn)
	}
	for _, link := range f.Links {
		out.Links = append(out.Links, jsonLink{Source: link.Source, Target: link.Target})
	}
	for _, is := range l.Issues() {
		out.Issues = append(out.Issues, jsonIssue{Code: string(is.Code), NodeID: is.NodeID, Message: is.Message})
	}

	return json.MarshalIndent(out, "", "  ")
}
