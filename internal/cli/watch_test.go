package cli

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/orgchart/pkg/engine"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/pipeline"
	"github.com/matzehuels/orgchart/pkg/roster"
)

func newWatchEngine(t *testing.T) *engine.Engine {
	t.Helper()
	g, _, _, err := roster.LoadGraph(writeRoster(t))
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	e := pipeline.NewEngine(context.Background(), pipeline.Options{
		Params:   layout.DefaultParams(),
		Measurer: geom.FixedMeasurer{Advance: 6},
	})
	t.Cleanup(e.Dispose)
	if err := e.Load(g); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return e
}

var (
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyR     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}
	keyQ     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
)

func update(t *testing.T, m watchModel, msg tea.Msg) (watchModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	wm, ok := next.(watchModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return wm, cmd
}

func TestWatchModelSteps(t *testing.T) {
	m := newWatchModel(newWatchEngine(t), "team.csv", nil)
	if m.Init() == nil {
		t.Fatal("Init should schedule the first step")
	}

	m, cmd := update(t, m, stepMsg(time.Now()))
	if cmd == nil {
		t.Error("a step should schedule the next one")
	}
	if m.info.Tick != 1 {
		t.Errorf("tick = %d, want 1", m.info.Tick)
	}

	m, _ = update(t, m, keySpace)
	if !m.paused {
		t.Fatal("space should pause")
	}
	m, _ = update(t, m, stepMsg(time.Now()))
	if m.info.Tick != 1 {
		t.Errorf("paused model ticked to %d", m.info.Tick)
	}
	if !strings.Contains(m.View(), "paused") {
		t.Error("view should show the pause")
	}

	m, _ = update(t, m, keySpace)
	m, _ = update(t, m, stepMsg(time.Now()))
	if m.paused || m.info.Tick != 2 {
		t.Errorf("resumed model: paused=%v tick=%d", m.paused, m.info.Tick)
	}
}

func TestWatchModelReheat(t *testing.T) {
	e := newWatchEngine(t)
	e.Settle(5000)
	m := newWatchModel(e, "team.csv", nil)
	if m.info.State != layout.Quiescent.String() {
		t.Fatalf("state = %s, want quiescent", m.info.State)
	}

	m, _ = update(t, m, keyR)
	if m.info.State != layout.Running.String() {
		t.Errorf("state after reheat = %s, want running", m.info.State)
	}
	if m.info.Alpha < engine.ReheatAlpha-1e-9 {
		t.Errorf("alpha after reheat = %v", m.info.Alpha)
	}
}

func TestWatchModelQuit(t *testing.T) {
	m := newWatchModel(newWatchEngine(t), "team.csv", nil)
	_, cmd := update(t, m, keyQ)
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestWatchModelView(t *testing.T) {
	var issues []layout.Issue
	for i := range 7 {
		issues = append(issues, layout.Issue{
			Code:    errors.ErrCodeMalformedGraph,
			NodeID:  fmt.Sprintf("p%d", i),
			Message: "parent not found",
		})
	}
	view := newWatchModel(newWatchEngine(t), "team.csv", issues).View()

	for _, want := range []string{"team.csv", "state", "tick", "alpha", "3 nodes · 2 links", "p0", "… 2 more", "space pause"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "p6") {
		t.Error("issues beyond the cap should be summarised")
	}
}

func TestAlphaBar(t *testing.T) {
	tests := []struct {
		alpha  float64
		filled int
	}{
		{0, 0},
		{0.5, 5},
		{1, 10},
		{2, 10},
	}
	for _, tt := range tests {
		bar := alphaBar(tt.alpha, 10)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("alphaBar(%v): %d filled cells, want %d", tt.alpha, got, tt.filled)
		}
		if got := strings.Count(bar, "░"); got != 10-tt.filled {
			t.Errorf("alphaBar(%v): %d empty cells, want %d", tt.alpha, got, 10-tt.filled)
		}
	}
}
