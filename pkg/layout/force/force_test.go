package force

import (
	"math"
	"testing"
)

func dist(a, b *Body) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

func TestLinkConvergesToDistance(t *testing.T) {
	a, b := &Body{X: 0, Y: 0}, &Body{X: 50, Y: 0}
	sim := New([]*Body{a, b})
	sim.AddForce("link", NewLink([]Edge{{Source: 0, Target: 1}}, 100))
	sim.Run(300)

	if d := dist(a, b); math.Abs(d-100) > 0.5 {
		t.Errorf("distance = %v, want 100", d)
	}
}

func TestCollideSeparatesOverlap(t *testing.T) {
	a, b := &Body{X: 0, Y: 0}, &Body{X: 5, Y: 0}
	sim := New([]*Body{a, b})
	sim.AddForce("collide", NewCollide(func(int) float64 { return 10 }))
	sim.Run(100)

	if d := dist(a, b); d < 20-1e-6 {
		t.Errorf("distance = %v, want >= 20", d)
	}
}

func TestCollideCoincidentBodies(t *testing.T) {
	a, b := &Body{}, &Body{}
	sim := New([]*Body{a, b})
	sim.AddForce("collide", NewCollide(func(int) float64 { return 10 }))
	sim.Run(200)

	if d := dist(a, b); d < 20-1e-3 {
		t.Errorf("distance = %v, want >= 20", d)
	}
	if math.IsNaN(a.X) || math.IsNaN(b.Y) {
		t.Error("coincident collision produced NaN")
	}
}

func TestManyBodyRepels(t *testing.T) {
	a, b := &Body{X: -1, Y: 0}, &Body{X: 1, Y: 0}
	sim := New([]*Body{a, b})
	sim.AddForce("charge", NewManyBody(-30))
	sim.Run(10)

	if d := dist(a, b); d <= 2 {
		t.Errorf("distance = %v, want > 2", d)
	}
}

func TestCenterKeepsMeanAtOrigin(t *testing.T) {
	bodies := []*Body{{X: 10, Y: 10}, {X: 30, Y: 50}, {X: 20, Y: -3}}
	sim := New(bodies)
	sim.AddForce("center", NewCenter(0, 0))
	sim.Tick()

	var sx, sy float64
	for _, b := range bodies {
		sx += b.X
		sy += b.Y
	}
	if math.Abs(sx) > 1e-9 || math.Abs(sy) > 1e-9 {
		t.Errorf("mean = (%v, %v), want (0, 0)", sx/3, sy/3)
	}
}

func TestCenterIdleWhilePinned(t *testing.T) {
	pinned, free := &Body{}, &Body{X: 40, Y: 0}
	pinned.Pin(0, 0)
	sim := New([]*Body{pinned, free})
	sim.AddForce("center", NewCenter(0, 0))
	sim.Tick()

	if free.X != 40 {
		t.Errorf("free.X = %v, want 40", free.X)
	}
}

func TestPinnedBodyStays(t *testing.T) {
	pinned, free := &Body{}, &Body{X: 10, Y: 0}
	pinned.Pin(0, 0)
	sim := New([]*Body{pinned, free})
	sim.AddForce("link", NewLink([]Edge{{Source: 0, Target: 1}}, 100))
	sim.AddForce("charge", NewManyBody(-30))
	sim.Run(50)

	if pinned.X != 0 || pinned.Y != 0 {
		t.Errorf("pinned body moved to (%v, %v)", pinned.X, pinned.Y)
	}
	if free.X == 10 {
		t.Error("free body did not move")
	}
}

func TestPositionPullsTowardsPoint(t *testing.T) {
	b := &Body{X: 100, Y: -100}
	sim := New([]*Body{b})
	sim.AddForce("x", NewPosition(0, 0))
	sim.Run(300)

	if math.Hypot(b.X, b.Y) > 5 {
		t.Errorf("position = (%v, %v), want near origin", b.X, b.Y)
	}
}

func TestForceOrder(t *testing.T) {
	sim := New(nil)
	sim.AddForce("link", NewLink(nil, 30))
	sim.AddForce("charge", NewManyBody(-30))
	sim.AddForce("collide", NewCollide(func(int) float64 { return 1 }))
	sim.AddForce("center", NewCenter(0, 0))

	want := []string{"link", "charge", "collide", "center"}
	got := sim.ForceNames()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ForceNames() = %v, want %v", got, want)
		}
	}
	if sim.Force("charge") == nil || sim.Force("missing") != nil {
		t.Error("Force() lookup mismatch")
	}
}

func TestAlphaDecay(t *testing.T) {
	sim := New(nil)
	sim.Run(200)
	if sim.Done() {
		t.Errorf("Done() after 200 ticks, alpha = %v", sim.Alpha())
	}
	sim.Run(110)
	if !sim.Done() {
		t.Errorf("Done() = false after 310 ticks, alpha = %v", sim.Alpha())
	}
	if sim.Ticks() != 310 {
		t.Errorf("Ticks() = %d, want 310", sim.Ticks())
	}
}

func TestDeterministic(t *testing.T) {
	run := func() []Body {
		bodies := make([]*Body, 6)
		for i := range bodies {
			bodies[i] = &Body{X: float64(10 * i), Y: float64(7 * (i % 3))}
		}
		sim := New(bodies, WithSeed(7))
		sim.AddForce("link", NewLink([]Edge{{0, 1}, {1, 2}, {2, 3}}, 40))
		sim.AddForce("charge", NewManyBody(-30))
		sim.AddForce("collide", NewCollide(func(i int) float64 { return float64(5 + i) }))
		sim.AddForce("center", NewCenter(0, 0))
		sim.Run(120)

		out := make([]Body, len(bodies))
		for i, b := range bodies {
			out[i] = *b
		}
		return out
	}

	first, second := run(), run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("body %d: %+v != %+v", i, first[i], second[i])
		}
	}
}

func TestLCG(t *testing.T) {
	a, b := NewLCG(42), NewLCG(42)
	for i := 0; i < 100; i++ {
		x, y := a.Float64(), b.Float64()
		if x != y {
			t.Fatalf("draw %d differs: %v != %v", i, x, y)
		}
		if x < 0 || x >= 1 {
			t.Fatalf("draw %d out of range: %v", i, x)
		}
	}
}
