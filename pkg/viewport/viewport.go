package viewport

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/observability"
)

// Defaults for focus transitions and zoom limits.
const (
	DefaultFocusScale = 2.0
	DefaultDuration   = 750 * time.Millisecond
	MinScale          = 0.1
	MaxScale          = 8.0
)

// =============================================================================
// Transform
// =============================================================================

// Transform is a pan/zoom transform: a point p is drawn at K·p + (X, Y).
// The viewport's origin is the centre of the drawing surface.
type Transform struct {
	X, Y, K float64
}

// Identity is the transform that leaves positions unchanged.
func Identity() Transform { return Transform{K: 1} }

// Apply maps a layout point to viewport coordinates.
func (t Transform) Apply(p geom.Point) geom.Point {
	return geom.Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// Invert maps a viewport point back to layout coordinates.
func (t Transform) Invert(p geom.Point) geom.Point {
	return geom.Point{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

// String renders the transform as an SVG transform attribute.
func (t Transform) String() string {
	return fmt.Sprintf("translate(%s,%s) scale(%s)", num(t.X), num(t.Y), num(t.K))
}

// Interpolate returns the transform a fraction u of the way from a to b.
func Interpolate(a, b Transform, u float64) Transform {
	return Transform{
		X: a.X + (b.X-a.X)*u,
		Y: a.Y + (b.Y-a.Y)*u,
		K: a.K + (b.K-a.K)*u,
	}
}

// centreOn returns the transform that draws p at the viewport centre at scale k.
func centreOn(p geom.Point, k float64) Transform {
	return Transform{X: -p.X * k, Y: -p.Y * k, K: k}
}

func num(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.3f", v)
}

// Easing maps linear progress in [0, 1] to eased progress.
type Easing func(float64) float64

// CubicInOut is symmetric cubic easing.
func CubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

// Easing names accepted by EasingByName.
const (
	EaseCubic  = "cubic"
	EaseLinear = "linear"
)

// EasingByName returns the easing called name. Unknown names get CubicInOut.
func EasingByName(name string) Easing {
	if name == EaseLinear {
		return Linear
	}
	return CubicInOut
}

// =============================================================================
// Controller
// =============================================================================

type transition struct {
	from, to Transform
	start    time.Time
	duration time.Duration
}

// Controller owns the pan/zoom transform and the highlight state.
//
// Focus transitions are time-based: the transform at any moment is derived
// from the clock, independent of how often the simulation ticks. Starting a
// new transition cancels the running one, continuing from wherever it had
// got to. A Controller is not safe for concurrent use.
type Controller struct {
	ctx      context.Context
	hooks    observability.ViewportHooks
	now      func() time.Time
	ease     Easing
	scale    float64
	duration time.Duration

	width, height float64
	settled       Transform
	active        *transition

	focused     string
	highlighted string
	hlLinks     []graph.Link
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithFocusScale sets the zoom factor used when focusing a node.
func WithFocusScale(k float64) Option {
	return func(c *Controller) { c.scale = clampScale(k) }
}

// WithDuration sets the focus transition duration.
func WithDuration(d time.Duration) Option {
	return func(c *Controller) { c.duration = d }
}

// WithEasing sets the transition easing. Nil keeps CubicInOut.
func WithEasing(e Easing) Option {
	return func(c *Controller) {
		if e != nil {
			c.ease = e
		}
	}
}

// WithHooks sets the observer for focus and highlight events.
func WithHooks(h observability.ViewportHooks) Option {
	return func(c *Controller) {
		if h != nil {
			c.hooks = h
		}
	}
}

// WithContext sets the context passed to hooks.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) { c.ctx = ctx }
}

// New returns a controller for a width × height surface at the identity
// transform.
func New(width, height float64, opts ...Option) *Controller {
	c := &Controller{
		ctx:      context.Background(),
		hooks:    observability.Viewport(),
		now:      time.Now,
		ease:     CubicInOut,
		scale:    DefaultFocusScale,
		duration: DefaultDuration,
		width:    width,
		height:   height,
		settled:  Identity(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Size returns the surface dimensions.
func (c *Controller) Size() (width, height float64) { return c.width, c.height }

// Resize changes the surface dimensions. The transform is unchanged.
func (c *Controller) Resize(width, height float64) {
	c.width, c.height = width, height
}

// Transform returns the transform at the current time.
func (c *Controller) Transform() Transform {
	if c.active == nil {
		return c.settled
	}
	elapsed := c.now().Sub(c.active.start)
	if c.active.duration <= 0 || elapsed >= c.active.duration {
		c.settled = c.active.to
		c.active = nil
		return c.settled
	}
	if elapsed < 0 {
		elapsed = 0
	}
	u := c.ease(float64(elapsed) / float64(c.active.duration))
	return Interpolate(c.active.from, c.active.to, u)
}

// Target returns the transform the controller is heading to.
func (c *Controller) Target() Transform {
	if c.active != nil {
		return c.active.to
	}
	return c.settled
}

// Animating reports whether a transition is in progress.
func (c *Controller) Animating() bool {
	c.Transform()
	return c.active != nil
}

// Focused returns the id of the focused node, or "".
func (c *Controller) Focused() string { return c.focused }

func (c *Controller) animateTo(to Transform) {
	from := c.Transform()
	c.active = &transition{from: from, to: to, start: c.now(), duration: c.duration}
}

// Focus animates to centre the node id at the focus scale. Team members are
// resolved through their team's position. An empty id resets to the identity
// transform and clears the highlight. Focusing the same node twice yields
// the same target.
func (c *Controller) Focus(id string, f graph.Frame) error {
	if id == "" {
		c.focused = ""
		c.clearHighlight()
		c.animateTo(Identity())
		c.hooks.OnFocus(c.ctx, "")
		return nil
	}

	x, y, _, ok := f.Absolute(id)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "node %q not in layout", id)
	}
	c.focused = id
	c.animateTo(centreOn(geom.Point{X: x, Y: y}, c.scale))
	c.hooks.OnFocus(c.ctx, id)
	return nil
}

// Highlight marks the node id and every link incident to it, clearing any
// previous highlight first. An empty id only clears.
func (c *Controller) Highlight(id string, f graph.Frame) {
	c.clearHighlight()
	if id == "" {
		return
	}
	c.highlighted = id
	for _, l := range f.Links {
		if l.Source == id || l.Target == id {
			c.hlLinks = append(c.hlLinks, l)
		}
	}
	c.hooks.OnHighlight(c.ctx, id, len(c.hlLinks))
}

func (c *Controller) clearHighlight() {
	c.highlighted = ""
	c.hlLinks = nil
}

// Highlighted returns the highlighted node id, or "".
func (c *Controller) Highlighted() string { return c.highlighted }

// LinkHighlighted reports whether l is incident to the highlighted node.
func (c *Controller) LinkHighlighted(l graph.Link) bool {
	for _, h := range c.hlLinks {
		if h == l {
			return true
		}
	}
	return false
}

// Pan moves the view immediately by (dx, dy) viewport units, cancelling
// any transition.
func (c *Controller) Pan(dx, dy float64) {
	t := c.Transform()
	c.active = nil
	c.settled = Transform{X: t.X + dx, Y: t.Y + dy, K: t.K}
}

// ZoomAt scales the view by factor around the viewport point p, cancelling
// any transition. The scale is clamped to [MinScale, MaxScale].
func (c *Controller) ZoomAt(factor float64, p geom.Point) {
	t := c.Transform()
	c.active = nil
	k := clampScale(t.K * factor)
	anchor := t.Invert(p)
	c.settled = Transform{X: p.X - anchor.X*k, Y: p.Y - anchor.Y*k, K: k}
}

// ViewBox returns the SVG viewBox for the current size, centred on the origin.
func (c *Controller) ViewBox() string {
	return fmt.Sprintf("%s %s %s %s", num(-c.width/2), num(-c.height/2), num(c.width), num(c.height))
}

func clampScale(k float64) float64 {
	return math.Min(MaxScale, math.Max(MinScale, k))
}
