package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/observability"
	"github.com/matzehuels/orgchart/pkg/render/scene"
	"github.com/matzehuels/orgchart/pkg/viewport"
)

// Defaults for a new engine.
const (
	DefaultWidth  = 960
	DefaultHeight = 720
	ReheatAlpha   = 0.3
)

// Engine is the mount point of one org chart: it owns the layout, the scene
// binder, the viewport and the tick scheduler.
//
// Every operation takes the engine mutex, so a tick never starts before the
// previous tick's render has finished and loads, focus changes and resizes
// never interleave with a tick. Before the first Load the engine renders a
// loading placeholder.
type Engine struct {
	mu sync.Mutex

	id       string
	ctx      context.Context
	params   layout.Params
	policy   layout.Policy
	lhooks   observability.LayoutHooks
	vhooks   observability.ViewportHooks
	host     Host
	interval time.Duration
	now      func() time.Time
	theme    scene.Theme
	focusK   float64
	duration time.Duration
	ease     viewport.Easing

	layout   *layout.Layout
	binder   *scene.Binder
	vp       *viewport.Controller
	sched    *Scheduler
	searched string
	disposed bool
	loads    int

	subs    map[int]chan graph.Frame
	nextSub int
}

// Option configures an Engine.
type Option func(*Engine)

// WithParams sets the layout constants.
func WithParams(p layout.Params) Option { return func(e *Engine) { e.params = p } }

// WithMeasurer sets the label measurer used by the radius policy.
func WithMeasurer(m geom.Measurer) Option {
	return func(e *Engine) { e.policy.Measurer = m }
}

// WithSize sets the initial viewport size.
func WithSize(w, h float64) Option {
	return func(e *Engine) { e.vp.Resize(w, h) }
}

// WithHost sets the scheduler host. The default is a TimerHost.
func WithHost(h Host) Option { return func(e *Engine) { e.host = h } }

// WithInterval sets the tick interval.
func WithInterval(d time.Duration) Option { return func(e *Engine) { e.interval = d } }

// WithClock replaces time.Now for viewport transitions.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithFocus sets the focus zoom and transition duration.
func WithFocus(scale float64, d time.Duration) Option {
	return func(e *Engine) { e.focusK, e.duration = scale, d }
}

// WithEasing sets the focus transition easing.
func WithEasing(ease viewport.Easing) Option { return func(e *Engine) { e.ease = ease } }

// WithTheme sets the drawing theme.
func WithTheme(t scene.Theme) Option { return func(e *Engine) { e.theme = t } }

// WithHooks sets the layout and viewport observers. Nil keeps the globals.
func WithHooks(l observability.LayoutHooks, v observability.ViewportHooks) Option {
	return func(e *Engine) {
		if l != nil {
			e.lhooks = l
		}
		if v != nil {
			e.vhooks = v
		}
	}
}

// WithContext sets the context passed to hooks.
func WithContext(ctx context.Context) Option { return func(e *Engine) { e.ctx = ctx } }

// New returns an engine with no data. Labels are measured with the Go
// Regular font unless WithMeasurer is given.
func New(opts ...Option) *Engine {
	e := &Engine{
		id:       uuid.NewString(),
		ctx:      context.Background(),
		params:   layout.DefaultParams(),
		lhooks:   observability.Layout(),
		vhooks:   observability.Viewport(),
		interval: DefaultInterval,
		now:      time.Now,
		theme:    scene.DefaultTheme(),
		focusK:   viewport.DefaultFocusScale,
		duration: viewport.DefaultDuration,
		ease:     viewport.CubicInOut,
		vp:       viewport.New(DefaultWidth, DefaultHeight),
		subs:     make(map[int]chan graph.Frame),
	}
	for _, opt := range opts {
		opt(e)
	}

	measurer := e.policy.Measurer
	if measurer == nil {
		if fm, err := geom.NewFontMeasurer(e.params.FontSize); err == nil {
			measurer = fm
		}
	}
	e.policy = layout.NewPolicy(e.params, measurer)

	w, h := e.vp.Size()
	e.vp = viewport.New(w, h,
		viewport.WithClock(e.now),
		viewport.WithFocusScale(e.focusK),
		viewport.WithDuration(e.duration),
		viewport.WithEasing(e.ease),
		viewport.WithHooks(e.vhooks),
		viewport.WithContext(e.ctx),
	)
	e.binder = scene.NewBinder(e.policy, scene.WithTheme(e.theme))
	e.sched = NewScheduler(e.host, e.interval, func() { e.Tick() })
	return e
}

// ID returns the engine's unique id.
func (e *Engine) ID() string { return e.id }

// Policy returns the radius policy.
func (e *Engine) Policy() layout.Policy { return e.policy }

// Load replaces the engine's data. The previous layout is disposed and a new
// one is built from a private copy of g; the layout restarts from its seed
// positions. A missing graph or collection is returned as an error and the
// current layout is kept. The current search is re-applied if its node still
// exists.
func (e *Engine) Load(g *graph.Graph) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return errors.New(errors.ErrCodeDisposed, "engine disposed")
	}

	l, err := layout.New(g, e.params, e.policy,
		layout.WithHooks(e.lhooks),
		layout.WithContext(e.ctx),
	)
	if err != nil {
		return err
	}
	if e.layout != nil {
		e.layout.Dispose()
	}
	e.layout = l
	e.loads++
	e.binder.Bind(l.Nodes())

	if e.searched != "" {
		f := l.Frame()
		if err := e.vp.Focus(e.searched, f); err != nil {
			e.searched = ""
			_ = e.vp.Focus("", f)
		} else {
			e.vp.Highlight(e.searched, f)
		}
	}
	e.renderLocked()
	return nil
}

// Loaded reports whether data has been loaded.
func (e *Engine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layout != nil
}

// SetSearched focuses and highlights the node id, which may be a team
// member. An empty id clears the search. Before data arrives the id is
// remembered and applied on Load.
func (e *Engine) SetSearched(id string) error {
	if id == "" {
		e.ClearSearch()
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return errors.New(errors.ErrCodeDisposed, "engine disposed")
	}
	if e.layout == nil {
		e.searched = id
		return nil
	}

	f := e.layout.Frame()
	if err := e.vp.Focus(id, f); err != nil {
		return err
	}
	e.vp.Highlight(id, f)
	e.searched = id
	e.renderLocked()
	return nil
}

// ClearSearch animates back to the identity view and clears the highlight.
func (e *Engine) ClearSearch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.searched = ""
	var f graph.Frame
	if e.layout != nil {
		f = e.layout.Frame()
	}
	_ = e.vp.Focus("", f)
	e.renderLocked()
}

// Searched returns the searched node id, or "".
func (e *Engine) Searched() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.searched
}

// Resize changes the viewport size and redraws at the current positions
// without restarting the simulation.
func (e *Engine) Resize(w, h float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.vp.Resize(w, h)
	e.renderLocked()
}

// Pan moves the view by (dx, dy).
func (e *Engine) Pan(dx, dy float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.vp.Pan(dx, dy)
	e.renderLocked()
}

// Zoom scales the view by factor around the viewport point (x, y).
func (e *Engine) Zoom(factor, x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.vp.ZoomAt(factor, geom.Point{X: x, Y: y})
	e.renderLocked()
}

// Tick advances the simulation one step and redraws. It reports whether
// anything changed: a simulation step or a running viewport transition.
func (e *Engine) Tick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed || e.layout == nil {
		return false
	}

	stepped := e.layout.Tick()
	animating := e.vp.Animating()
	if !stepped && !animating {
		return false
	}
	e.renderLocked()
	return true
}

// Settle ticks synchronously until the layout is quiescent or maxTicks have
// run, and returns the number of ticks. Viewport transitions are not waited
// for.
func (e *Engine) Settle(maxTicks int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed || e.layout == nil {
		return 0
	}
	n := e.layout.Settle(maxTicks)
	e.renderLocked()
	return n
}

// Reheat restarts a settled simulation.
func (e *Engine) Reheat() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.layout != nil {
		e.layout.Reheat(ReheatAlpha)
	}
}

// Start begins ticking on the host.
func (e *Engine) Start() error { return e.sched.Start() }

// Stop pauses ticking.
func (e *Engine) Stop() { e.sched.Stop() }

// Running reports whether the scheduler is ticking.
func (e *Engine) Running() bool { return e.sched.Running() }

// Dispose stops the scheduler, releases the simulation and closes every
// subscription. It is safe to call more than once.
func (e *Engine) Dispose() {
	e.sched.Dispose()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.disposed = true
	if e.layout != nil {
		e.layout.Dispose()
	}
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
}

// SVG returns the current drawing, or the loading placeholder before any
// data has been loaded.
func (e *Engine) SVG() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.layout == nil {
		w, h := e.vp.Size()
		return scene.Loading(w, h)
	}
	e.binder.Render(e.layout.Frame(), scene.ViewState(e.vp))
	return e.binder.SVG()
}

// Frame returns the current layout frame. ok is false before any data has
// been loaded.
func (e *Engine) Frame() (f graph.Frame, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.layout == nil {
		return graph.Frame{}, false
	}
	return e.layout.Frame(), true
}

// Transform returns the current viewport transform.
func (e *Engine) Transform() viewport.Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vp.Transform()
}

// SetAvatar sets the image href for a person's avatar pattern.
func (e *Engine) SetAvatar(id, href string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.binder.SetAvatar(id, href)
}

// WithLayout calls fn with the current layout while holding the engine
// lock. fn must not retain l. It fails before any data has been loaded.
func (e *Engine) WithLayout(fn func(l *layout.Layout) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.layout == nil {
		return errors.New(errors.ErrCodeMissingGraph, "no data loaded")
	}
	return fn(e.layout)
}

// Subscribe returns a channel receiving a frame after every redraw. Slow
// receivers only see the latest frame. The channel is closed by cancel or
// by Dispose.
func (e *Engine) Subscribe() (frames <-chan graph.Frame, cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan graph.Frame, 1)
	if e.disposed {
		close(ch)
		return ch, func() {}
	}
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if c, ok := e.subs[id]; ok {
				close(c)
				delete(e.subs, id)
			}
		})
	}
}

// renderLocked redraws the scene and publishes the frame. e.mu must be held.
func (e *Engine) renderLocked() {
	if e.layout == nil {
		return
	}
	f := e.layout.Frame()
	e.binder.Render(f, scene.ViewState(e.vp))
	for _, ch := range e.subs {
		publish(ch, f)
	}
}

// publish replaces any unread frame with f.
func publish(ch chan graph.Frame, f graph.Frame) {
	select {
	case ch <- f:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- f:
	default:
	}
}

// Info summarises the engine state.
type Info struct {
	ID       string         `json:"id"`
	Loaded   bool           `json:"loaded"`
	Loads    int            `json:"loads"`
	State    string         `json:"state"`
	Tick     int            `json:"tick"`
	Alpha    float64        `json:"alpha"`
	Nodes    int            `json:"nodes"`
	Links    int            `json:"links"`
	Issues   []layout.Issue `json:"issues,omitempty"`
	Searched string         `json:"searched,omitempty"`
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Running  bool           `json:"running"`
}

// Info returns a summary of the engine state.
func (e *Engine) Info() Info {
	running := e.sched.Running()

	e.mu.Lock()
	defer e.mu.Unlock()
	w, h := e.vp.Size()
	info := Info{
		ID:       e.id,
		Loaded:   e.layout != nil,
		Loads:    e.loads,
		State:    "loading",
		Searched: e.searched,
		Width:    w,
		Height:   h,
		Running:  running,
	}
	if e.disposed {
		info.State = layout.Disposed.String()
	}
	if e.layout != nil {
		info.State = e.layout.State().String()
		info.Tick = e.layout.Ticks()
		info.Alpha = e.layout.Alpha()
		info.Nodes = len(e.layout.Nodes())
		info.Links = len(e.layout.Links())
		info.Issues = e.layout.Issues()
	}
	return info
}
