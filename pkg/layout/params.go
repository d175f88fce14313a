package layout

import "github.com/matzehuels/orgchart/pkg/layout/force"

// Params holds the tunable constants of the radius policy and both
// simulations. The zero value is not useful; start from [DefaultParams].
type Params struct {
	// Radius policy
	BaseRadius    float64 // Radius of a person with a one-line label
	LineHeight    float64 // Radius growth per wrapped label line
	FontSize      float64 // Label font size used for measurement
	MaxLabelWidth float64 // Wrap width; never below BaseRadius
	LabelMargin   float64 // Ring around packed members reserved for the team label

	// Team packing
	TeamPadding     float64 // Gap between packed members
	InnerIterations int     // Fixed number of packing ticks

	// Outer simulation
	CollidePadding float64 // Gap between top-level nodes
	LinkDistance   float64
	ChargeStrength float64
	VelocityDecay  float64
	AlphaMin       float64
	AlphaDecay     float64 // 0 derives the decay from AlphaMin over 300 ticks
	Seed           uint32

	// Initial placement
	CenterID     string // Pinned at the origin; empty pins the first node
	PinCenter    bool
	SpiralAngle  float64 // Angle step per insertion index (radians)
	SpiralRadius float64 // Radius of index 0
	SpiralStep   float64 // Radius growth per index
}

// DefaultParams returns the standard layout constants.
func DefaultParams() Params {
	return Params{
		BaseRadius:    20,
		LineHeight:    12,
		FontSize:      10,
		MaxLabelWidth: 60,
		LabelMargin:   18,

		TeamPadding:     2,
		InnerIterations: 60,

		CollidePadding: 20,
		LinkDistance:   150,
		ChargeStrength: -30,
		VelocityDecay:  0.4,
		AlphaMin:       force.DefaultAlphaMin,
		Seed:           1,

		PinCenter:    true,
		SpiralAngle:  2.4,
		SpiralRadius: 100,
		SpiralStep:   10,
	}
}

func (p Params) alphaDecay() float64 {
	if p.AlphaDecay > 0 {
		return p.AlphaDecay
	}
	return force.DecayFor(p.AlphaMin, 300)
}
