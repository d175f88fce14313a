package layout

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout/force"
	"github.com/matzehuels/orgchart/pkg/observability"
)

// =============================================================================
// State
// =============================================================================

// State is the lifecycle stage of a layout.
type State int

const (
	Initializing State = iota
	Running
	Quiescent
	Disposed
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Quiescent:
		return "quiescent"
	case Disposed:
		return "disposed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Force names, in application order.
const (
	ForceLink    = "link"
	ForceCharge  = "charge"
	ForceCollide = "collide"
	ForceCenter  = "center"
)

// =============================================================================
// Layout
// =============================================================================

// Layout runs the outer simulation over a private copy of a graph.
//
// Teams are packed once, synchronously, when the layout is built. The outer
// simulation then positions top-level nodes under link, charge, collide and
// center forces, in that order. A Layout is not safe for concurrent use;
// the engine serialises access.
type Layout struct {
	ctx    context.Context
	hooks  observability.LayoutHooks
	params Params
	policy Policy

	nodes   []graph.Node
	links   []graph.Link
	packs   []Packing
	radii   []float64
	index   map[string]int
	bodies  []*force.Body
	sim     *force.Simulation
	center  int
	issues  []Issue
	state   State
	started time.Time
}

// Option configures a Layout.
type Option func(*Layout)

// WithHooks sets the observer for layout events. Nil keeps the global hooks.
func WithHooks(h observability.LayoutHooks) Option {
	return func(l *Layout) {
		if h != nil {
			l.hooks = h
		}
	}
}

// WithContext sets the context passed to hooks.
func WithContext(ctx context.Context) Option {
	return func(l *Layout) { l.ctx = ctx }
}

// New copies g, packs every team and seeds the outer simulation.
//
// A nil graph, or a nil Nodes or Links collection, is fatal and returns an
// ErrCodeMissingGraph error. Everything else is recoverable: duplicate ids,
// empty teams, blank names and unresolved or self links are reported as
// issues and worked around. A graph with no nodes is immediately quiescent.
func New(g *graph.Graph, params Params, policy Policy, opts ...Option) (*Layout, error) {
	if g == nil {
		return nil, errors.New(errors.ErrCodeMissingGraph, "graph is missing")
	}
	if g.Nodes == nil {
		return nil, errors.New(errors.ErrCodeMissingGraph, "node collection is missing")
	}
	if g.Links == nil {
		return nil, errors.New(errors.ErrCodeMissingGraph, "link collection is missing")
	}

	l := &Layout{
		ctx:    context.Background(),
		hooks:  observability.Layout(),
		params: params,
		policy: policy,
		index:  make(map[string]int),
		center: -1,
		state:  Initializing,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.copyNodes(g.Clone())
	l.hooks.OnLayoutStart(l.ctx, len(l.nodes), len(g.Links))
	l.packTeams()
	l.resolveLinks(g.Links)
	l.seed()
	l.buildSimulation()

	l.started = time.Now()
	if len(l.nodes) == 0 {
		l.state = Quiescent
		l.hooks.OnQuiescent(l.ctx, 0, 0)
	}
	return l, nil
}

func (l *Layout) copyNodes(g *graph.Graph) {
	members := make(map[string]bool)
	for _, n := range g.Nodes {
		id := n.ID()
		if _, dup := l.index[id]; dup || members[id] {
			l.report(errors.ErrCodeMalformedGraph, id, "duplicate id %q dropped", id)
			continue
		}
		if n.Kind() == graph.KindTeam {
			t, _ := n.Team()
			kept := t.Children[:0]
			for _, c := range t.Children {
				if _, dup := l.index[c.ID]; dup || members[c.ID] || c.ID == id {
					l.report(errors.ErrCodeMalformedGraph, c.ID, "duplicate member id %q dropped from team %q", c.ID, id)
					continue
				}
				members[c.ID] = true
				kept = append(kept, c)
			}
			t.Children = kept
			n = graph.NewTeam(t)
		}
		l.index[id] = len(l.nodes)
		l.nodes = append(l.nodes, n)
	}
}

func (l *Layout) packTeams() {
	l.packs = make([]Packing, len(l.nodes))
	l.radii = make([]float64, len(l.nodes))
	for i, n := range l.nodes {
		switch n.Kind() {
		case graph.KindTeam:
			members := n.Members()
			if len(members) == 0 {
				l.report(errors.ErrCodeEmptyTeam, n.ID(), "team %q has no members", n.ID())
				break
			}
			for _, m := range members {
				l.checkLabel(m.ID, m.Name)
			}
			start := time.Now()
			l.packs[i] = PackTeam(members, l.policy, l.params.TeamPadding, l.params.InnerIterations)
			l.hooks.OnPack(l.ctx, n.ID(), len(members), l.policy.TeamRadius(l.packs[i]), time.Since(start))
		case graph.KindPerson:
			l.checkLabel(n.ID(), n.Name())
		}
		l.radii[i] = l.policy.Radius(n, l.packs[i])
	}
}

func (l *Layout) checkLabel(id, name string) {
	if lines := l.policy.Lines(name); len(lines) == 1 && lines[0] == "" {
		l.report(errors.ErrCodeDegenerateLabel, id, "empty name for %q rendered at base radius", id)
	}
}

func (l *Layout) resolveLinks(links []graph.Link) {
	seen := make(map[[2]int]bool)
	for _, link := range links {
		s, okS := l.index[link.Source]
		t, okT := l.index[link.Target]
		switch {
		case !okS || !okT:
			l.report(errors.ErrCodeMalformedGraph, link.Source, "link %s -> %s skipped: endpoint not found", link.Source, link.Target)
			continue
		case s == t:
			l.report(errors.ErrCodeMalformedGraph, link.Source, "self link on %s skipped", link.Source)
			continue
		}
		key := [2]int{min(s, t), max(s, t)}
		if seen[key] {
			continue
		}
		seen[key] = true
		l.links = append(l.links, link)
	}
}

// seed pins the centre node and lays the rest on an expanding spiral by
// insertion index.
func (l *Layout) seed() {
	l.bodies = make([]*force.Body, len(l.nodes))
	if l.params.PinCenter && len(l.nodes) > 0 {
		l.center = 0
		if i, ok := l.index[l.params.CenterID]; ok {
			l.center = i
		}
	}
	for i := range l.bodies {
		b := &force.Body{}
		if i == l.center {
			b.Pin(0, 0)
		} else {
			a := float64(i) * l.params.SpiralAngle
			r := l.params.SpiralRadius + float64(i)*l.params.SpiralStep
			b.X, b.Y = r*math.Cos(a), r*math.Sin(a)
		}
		l.bodies[i] = b
	}
}

func (l *Layout) buildSimulation() {
	edges := make([]force.Edge, len(l.links))
	for i, link := range l.links {
		edges[i] = force.Edge{Source: l.index[link.Source], Target: l.index[link.Target]}
	}

	l.sim = force.New(l.bodies,
		force.WithAlphaMin(l.params.AlphaMin),
		force.WithAlphaDecay(l.params.alphaDecay()),
		force.WithVelocityDecay(l.params.VelocityDecay),
		force.WithSeed(l.params.Seed),
	)
	l.sim.AddForce(ForceLink, force.NewLink(edges, l.params.LinkDistance))
	l.sim.AddForce(ForceCharge, force.NewManyBody(l.params.ChargeStrength))
	l.sim.AddForce(ForceCollide, force.NewCollide(l.CollisionRadius))
	l.sim.AddForce(ForceCenter, force.NewCenter(0, 0))
}

func (l *Layout) report(code errors.Code, id, format string, args ...any) {
	issue := Issue{Code: code, NodeID: id, Message: fmt.Sprintf(format, args...)}
	l.issues = append(l.issues, issue)
	l.hooks.OnIssue(l.ctx, string(code), id, issue.Message)
}

// =============================================================================
// Simulation Control
// =============================================================================

// Tick advances the outer simulation by one step. It returns false without
// doing anything once the layout is quiescent or disposed.
func (l *Layout) Tick() bool {
	if l.state == Quiescent || l.state == Disposed {
		return false
	}
	l.state = Running
	l.sim.Tick()
	for _, b := range l.bodies {
		if !(geom.Point{X: b.X, Y: b.Y}).Finite() {
			b.X, b.Y, b.VX, b.VY = 0, 0, 0, 0
		}
	}
	l.hooks.OnTick(l.ctx, l.sim.Ticks(), l.sim.Alpha())
	if l.sim.Done() {
		l.state = Quiescent
		l.hooks.OnQuiescent(l.ctx, l.sim.Ticks(), time.Since(l.started))
	}
	return true
}

// Settle ticks until the layout is quiescent or maxTicks have run, and
// returns the number of ticks performed.
func (l *Layout) Settle(maxTicks int) int {
	n := 0
	for n < maxTicks && l.Tick() {
		n++
	}
	return n
}

// Reheat raises alpha and resumes a quiescent layout. It has no effect on a
// disposed or empty layout.
func (l *Layout) Reheat(alpha float64) {
	if l.state == Disposed || len(l.nodes) == 0 {
		return
	}
	if l.sim.Alpha() < alpha {
		l.sim.SetAlpha(alpha)
	}
	l.started = time.Now()
	l.state = Running
}

// Dispose stops the layout for good and releases the simulation.
func (l *Layout) Dispose() {
	if l.state == Disposed {
		return
	}
	l.state = Disposed
	l.sim = nil
	l.hooks.OnDispose(l.ctx)
}

// =============================================================================
// Accessors
// =============================================================================

// State returns the lifecycle state.
func (l *Layout) State() State { return l.state }

// Alpha returns the current simulation alpha, or 0 once disposed.
func (l *Layout) Alpha() float64 {
	if l.sim == nil {
		return 0
	}
	return l.sim.Alpha()
}

// Ticks returns the number of outer ticks run.
func (l *Layout) Ticks() int {
	if l.sim == nil {
		return 0
	}
	return l.sim.Ticks()
}

// Issues returns the recoverable problems found in the input.
func (l *Layout) Issues() []Issue { return append([]Issue(nil), l.issues...) }

// Policy returns the radius policy.
func (l *Layout) Policy() Policy { return l.policy }

// Nodes returns the layout's copy of the top-level nodes.
func (l *Layout) Nodes() []graph.Node { return append([]graph.Node(nil), l.nodes...) }

// Links returns the resolved links.
func (l *Layout) Links() []graph.Link { return append([]graph.Link(nil), l.links...) }

// Packing returns the packing of top-level node i (empty for people).
func (l *Layout) Packing(i int) Packing { return l.packs[i] }

// Radius returns the bounding radius of top-level node i.
func (l *Layout) Radius(i int) float64 { return l.radii[i] }

// CollisionRadius returns the outer collision radius of top-level node i.
func (l *Layout) CollisionRadius(i int) float64 {
	return l.radii[i] + l.params.CollidePadding
}

// Position returns the position of top-level node i.
func (l *Layout) Position(i int) geom.Point {
	b := l.bodies[i]
	return geom.Point{X: b.X, Y: b.Y}
}

// CenterIndex returns the pinned node's index, or -1.
func (l *Layout) CenterIndex() int { return l.center }

// Frame snapshots the current positions.
func (l *Layout) Frame() graph.Frame {
	f := graph.Frame{
		Tick:  l.Ticks(),
		Alpha: l.Alpha(),
		State: l.state.String(),
		Nodes: make([]graph.NodePosition, len(l.nodes)),
		Links: l.Links(),
	}
	for i, n := range l.nodes {
		p := l.Position(i).OrZero()
		np := graph.NodePosition{ID: n.ID(), Kind: n.Kind(), X: p.X, Y: p.Y, R: l.radii[i]}
		if n.Kind() == graph.KindTeam {
			pk := l.packs[i]
			for j, m := range n.Members() {
				o := pk.Offsets[j]
				np.Members = append(np.Members, graph.MemberPosition{ID: m.ID, X: o.X, Y: o.Y, R: pk.Radii[j]})
			}
		}
		f.Nodes[i] = np
	}
	return f
}
