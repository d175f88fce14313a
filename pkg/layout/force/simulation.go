package force

import "math"

// Body is the mutable simulation state of one node. Bodies are owned by a
// simulation and never alias domain records.
type Body struct {
	X, Y   float64
	VX, VY float64

	// Fixed pins the body at (FX, FY); its velocity is discarded each tick.
	Fixed  bool
	FX, FY float64
}

// Pin fixes the body at (x, y).
func (b *Body) Pin(x, y float64) {
	b.Fixed, b.FX, b.FY = true, x, y
	b.X, b.Y, b.VX, b.VY = x, y, 0, 0
}

// Force contributes velocity (or, for centring, position) changes each tick.
type Force interface {
	// Initialize is called when the force is added or the bodies change.
	Initialize(bodies []*Body, random func() float64)
	// Apply runs the force for the given alpha.
	Apply(alpha float64)
}

type namedForce struct {
	name  string
	force Force
}

// Simulation integrates a set of bodies under an ordered list of forces.
//
// Each tick alpha decays geometrically towards zero, every force is applied in the
// order it was added, and velocities are damped and integrated. The
// simulation is not safe for concurrent use.
type Simulation struct {
	bodies []*Body
	forces []namedForce
	rng    *LCG

	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	velocityDecay float64
	ticks         int
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithAlphaMin sets the alpha threshold below which the simulation is done.
func WithAlphaMin(v float64) Option {
	return func(s *Simulation) { s.alphaMin = v }
}

// WithAlphaDecay sets the per-tick alpha decay rate.
func WithAlphaDecay(v float64) Option {
	return func(s *Simulation) { s.alphaDecay = v }
}

// WithVelocityDecay sets the fraction of velocity lost each tick.
func WithVelocityDecay(v float64) Option {
	return func(s *Simulation) { s.velocityDecay = v }
}

// WithSeed seeds the generator used to break ties between coincident bodies.
func WithSeed(seed uint32) Option {
	return func(s *Simulation) { s.rng = NewLCG(seed) }
}

// DefaultAlphaMin is the alpha below which a simulation counts as settled.
const DefaultAlphaMin = 0.001

// DecayFor returns the alpha decay that reaches alphaMin after ticks steps.
func DecayFor(alphaMin float64, ticks int) float64 {
	return 1 - math.Pow(alphaMin, 1/float64(ticks))
}

// New creates a simulation over bodies with alpha = 1.
func New(bodies []*Body, opts ...Option) *Simulation {
	s := &Simulation{
		bodies:        bodies,
		rng:           NewLCG(1),
		alpha:         1,
		alphaMin:      DefaultAlphaMin,
		alphaDecay:    DecayFor(DefaultAlphaMin, 300),
		velocityDecay: 0.4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddForce appends a force. Forces run in the order they were added.
func (s *Simulation) AddForce(name string, f Force) {
	f.Initialize(s.bodies, s.rng.Float64)
	s.forces = append(s.forces, namedForce{name: name, force: f})
}

// Force returns the named force, or nil.
func (s *Simulation) Force(name string) Force {
	for _, nf := range s.forces {
		if nf.name == name {
			return nf.force
		}
	}
	return nil
}

// ForceNames returns force names in application order.
func (s *Simulation) ForceNames() []string {
	names := make([]string, len(s.forces))
	for i, nf := range s.forces {
		names[i] = nf.name
	}
	return names
}

// Bodies returns the simulated bodies.
func (s *Simulation) Bodies() []*Body { return s.bodies }

// Alpha returns the current alpha.
func (s *Simulation) Alpha() float64 { return s.alpha }

// SetAlpha sets alpha directly.
func (s *Simulation) SetAlpha(a float64) { s.alpha = a }

// Ticks returns the number of ticks run so far.
func (s *Simulation) Ticks() int { return s.ticks }

// Done reports whether alpha has dropped below the minimum.
func (s *Simulation) Done() bool { return s.alpha < s.alphaMin }

// Tick advances the simulation by one step.
func (s *Simulation) Tick() {
	s.ticks++
	s.alpha -= s.alpha * s.alphaDecay

	for _, nf := range s.forces {
		nf.force.Apply(s.alpha)
	}

	keep := 1 - s.velocityDecay
	for _, b := range s.bodies {
		if b.Fixed {
			b.X, b.Y, b.VX, b.VY = b.FX, b.FY, 0, 0
			continue
		}
		b.VX *= keep
		b.VY *= keep
		b.X += b.VX
		b.Y += b.VY
	}
}

// Run performs n ticks regardless of alpha.
func (s *Simulation) Run(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

// LCG is the linear congruential generator used for deterministic jiggle.
type LCG struct {
	state uint32
}

// NewLCG returns a generator with the given seed.
func NewLCG(seed uint32) *LCG { return &LCG{state: seed} }

// Float64 returns a value in [0, 1).
func (l *LCG) Float64() float64 {
	l.state = 1664525*l.state + 1013904223
	return float64(l.state) / 4294967296
}

func jiggle(random func() float64) float64 {
	return (random() - 0.5) * 1e-6
}
