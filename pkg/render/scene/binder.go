package scene

import (
	"bytes"

	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/viewport"
)

// State is the view state applied on a render.
type State struct {
	Width, Height float64
	Transform     viewport.Transform
	Highlighted   string                // Node or member id, empty for none
	LinkHighlight func(graph.Link) bool // Nil highlights no links
}

// ViewState captures the current state of a viewport controller.
func ViewState(c *viewport.Controller) State {
	w, h := c.Size()
	return State{
		Width:         w,
		Height:        h,
		Transform:     c.Transform(),
		Highlighted:   c.Highlighted(),
		LinkHighlight: c.LinkHighlighted,
	}
}

type linkKey struct{ source, target string }

// Binder keeps one scene element per node id and link and brings them up to
// date with each frame.
//
// Elements are created once, when a node is bound or a link first appears in
// a frame, and updated in place afterwards. Rendering the same frame and
// state twice leaves the scene unchanged. Bound nodes are copies; the binder
// never writes to the graph or the frame it is given.
type Binder struct {
	policy  layout.Policy
	theme   Theme
	script  bool
	scene   Scene
	nodes   map[string]*Node
	links   map[linkKey]*Link
	avatars map[string]string
}

// Option configures a Binder.
type Option func(*Binder)

// WithTheme sets the drawing theme.
func WithTheme(t Theme) Option { return func(b *Binder) { b.theme = t } }

// WithScript embeds the hover-highlight script in SVG output.
func WithScript() Option { return func(b *Binder) { b.script = true } }

// NewBinder returns an empty binder. Labels are wrapped with policy.
func NewBinder(policy layout.Policy, opts ...Option) *Binder {
	b := &Binder{
		policy:  policy,
		theme:   DefaultTheme(),
		nodes:   make(map[string]*Node),
		links:   make(map[linkKey]*Link),
		avatars: make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Theme returns the drawing theme.
func (b *Binder) Theme() Theme { return b.theme }

// Bind reconciles the scene's node elements with nodes: unknown ids get a new
// element, known ids keep theirs and ids no longer present are dropped.
func (b *Binder) Bind(nodes []graph.Node) {
	keep := make(map[string]bool, len(nodes))
	order := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		id := n.ID()
		if keep[id] {
			continue
		}
		keep[id] = true

		el, ok := b.nodes[id]
		if !ok {
			el = &Node{ID: id}
			b.nodes[id] = el
		}
		b.fill(el, n)
		order = append(order, el)
	}
	for id := range b.nodes {
		if !keep[id] {
			delete(b.nodes, id)
		}
	}
	b.scene.Nodes = order
}

func (b *Binder) fill(el *Node, n graph.Node) {
	el.Kind = n.Kind()
	el.Name = n.Name()
	el.Bubble = Bubble{}
	if p, ok := n.Person(); ok {
		el.Bubble = b.bubble(p)
	}

	members := n.Members()
	prev := make(map[string]*Member, len(el.Members))
	for _, m := range el.Members {
		prev[m.ID] = m
	}
	el.Members = el.Members[:0]
	for _, p := range members {
		m, ok := prev[p.ID]
		if !ok {
			m = &Member{ID: p.ID}
		}
		m.Name = p.Name
		m.Bubble = b.bubble(p)
		el.Members = append(el.Members, m)
	}
}

// bubble lays out a person's face and label. Face plus lines add up to the
// radius the policy gives the person.
func (b *Binder) bubble(p graph.Person) Bubble {
	lines := b.policy.Lines(p.Name)
	lh := b.policy.LineHeight
	return Bubble{
		Lines:      lines,
		Avatar:     b.avatarFor(p),
		Face:       b.policy.FaceRadius(p),
		FaceY:      -lh * float64(len(lines)) / 2,
		LineHeight: lh,
	}
}

func (b *Binder) avatarFor(p graph.Person) string {
	if href, ok := b.avatars[p.ID]; ok {
		return href
	}
	return p.PictureURL
}

// SetAvatar overrides the image href for a person, typically with an inlined
// data URI. It applies to bound elements immediately.
func (b *Binder) SetAvatar(id, href string) {
	b.avatars[id] = href
	for _, n := range b.scene.Nodes {
		if n.ID == id && n.Kind == graph.KindPerson {
			n.Avatar = href
		}
		for _, m := range n.Members {
			if m.ID == id {
				m.Avatar = href
			}
		}
	}
}

// Render applies a frame and view state to the scene and returns it.
// Bound nodes missing from the frame keep their last position.
func (b *Binder) Render(f graph.Frame, st State) *Scene {
	b.scene.Width, b.scene.Height = st.Width, st.Height
	b.scene.Transform = st.Transform

	for _, np := range f.Nodes {
		el, ok := b.nodes[np.ID]
		if !ok {
			continue
		}
		el.X, el.Y, el.R = np.X, np.Y, np.R
		el.ArcR = max(np.R-b.policy.LabelMargin/2, 0)
		el.Highlight = st.Highlighted != "" && np.ID == st.Highlighted
		for _, mp := range np.Members {
			for _, m := range el.Members {
				if m.ID == mp.ID {
					m.X, m.Y, m.R = mp.X, mp.Y, mp.R
					m.Highlight = st.Highlighted != "" && m.ID == st.Highlighted
				}
			}
		}
	}

	b.renderLinks(f, st)
	return &b.scene
}

func (b *Binder) renderLinks(f graph.Frame, st State) {
	keep := make(map[linkKey]bool, len(f.Links))
	order := make([]*Link, 0, len(f.Links))
	for _, l := range f.Links {
		key := linkKey{l.Source, l.Target}
		if keep[key] {
			continue
		}
		src, okS := b.nodes[l.Source]
		dst, okT := b.nodes[l.Target]
		if !okS || !okT {
			continue
		}
		keep[key] = true

		el, ok := b.links[key]
		if !ok {
			el = &Link{Source: l.Source, Target: l.Target}
			b.links[key] = el
		}
		el.X1, el.Y1, el.X2, el.Y2 = src.X, src.Y, dst.X, dst.Y
		el.Highlight = st.LinkHighlight != nil && st.LinkHighlight(l)
		order = append(order, el)
	}
	for key := range b.links {
		if !keep[key] {
			delete(b.links, key)
		}
	}
	b.scene.Links = order
}

// Scene returns the current scene.
func (b *Binder) Scene() *Scene { return &b.scene }

// SVG serializes the current scene.
func (b *Binder) SVG() []byte {
	var buf bytes.Buffer
	writeSVG(&buf, &b.scene, b.theme, b.script)
	return buf.Bytes()
}
