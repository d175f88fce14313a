package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/engine"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/pipeline"
)

const (
	// watchInterval is the time between simulation steps in the monitor.
	watchInterval = time.Second / 30

	// alphaBarWidth is the width of the alpha gauge in cells.
	alphaBarWidth = 30

	// maxListedIssues caps the issues shown below the gauges.
	maxListedIssues = 5
)

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <roster>",
		Short: "Step the simulation in the terminal",
		Long: `Watch loads a roster and steps the force simulation live, showing the
tick count, the cooling alpha, the layout state and any issues found.

Keys: space pauses or resumes, r reheats a settled layout, q quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runWatch(ctx context.Context, rosterPath string) error {
	opts := c.baseOptions(rosterPath)
	if err := opts.ValidateForParse(); err != nil {
		return err
	}
	g, _, issues, err := pipeline.Parse(opts)
	if err != nil {
		return err
	}

	cfg := c.settings()
	opts.Width, opts.Height = cfg.Viewport.Width, cfg.Viewport.Height
	e := pipeline.NewEngine(ctx, opts)
	defer e.Dispose()
	if err := e.Load(g); err != nil {
		return err
	}

	p := tea.NewProgram(newWatchModel(e, rosterPath, issues), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}

// =============================================================================
// watchModel - live simulation monitor
// =============================================================================

// stepMsg asks the model to advance the simulation.
type stepMsg time.Time

// watchModel is the bubbletea model of the watch command.
type watchModel struct {
	engine   *engine.Engine
	path     string
	roster   []layout.Issue // problems found while building the graph
	info     engine.Info
	paused   bool
	interval time.Duration
}

func newWatchModel(e *engine.Engine, path string, roster []layout.Issue) watchModel {
	return watchModel{
		engine:   e,
		path:     path,
		roster:   roster,
		info:     e.Info(),
		interval: watchInterval,
	}
}

func (m watchModel) step() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return stepMsg(t) })
}

func (m watchModel) Init() tea.Cmd {
	return m.step()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "space":
			m.paused = !m.paused
		case "r":
			m.engine.Reheat()
			m.info = m.engine.Info()
		}
	case stepMsg:
		if !m.paused {
			m.engine.Tick()
			m.info = m.engine.Info()
		}
		return m, m.step()
	}
	return m, nil
}

func (m watchModel) issues() []layout.Issue {
	return append(append([]layout.Issue(nil), m.roster...), m.info.Issues...)
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("orgchart watch"))
	b.WriteString(" " + StyleDim.Render(m.path))
	b.WriteString("\n\n")

	state := m.info.State
	stateStyle := StyleHighlight
	switch {
	case m.paused:
		state += " (paused)"
		stateStyle = StyleWarning
	case m.info.State == layout.Quiescent.String():
		stateStyle = StyleSuccess
	}

	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(8)
	row := func(key, value string) {
		b.WriteString(keyStyle.Render(key) + " " + value + "\n")
	}
	row("state", stateStyle.Render(state))
	row("tick", StyleNumber.Render(fmt.Sprint(m.info.Tick)))
	row("alpha", alphaBar(m.info.Alpha, alphaBarWidth)+" "+StyleValue.Render(fmt.Sprintf("%.4f", m.info.Alpha)))
	row("nodes", StyleValue.Render(fmt.Sprintf("%d nodes · %d links", m.info.Nodes, m.info.Links)))

	issues := m.issues()
	if len(issues) == 0 {
		row("issues", StyleDim.Render("none"))
	} else {
		row("issues", StyleWarning.Render(fmt.Sprint(len(issues))))
		for i, is := range issues {
			if i == maxListedIssues {
				b.WriteString(StyleDim.Render(fmt.Sprintf("  … %d more", len(issues)-maxListedIssues)) + "\n")
				break
			}
			b.WriteString("  " + styleIconWarning.Render(iconWarning) + " " + StyleDim.Render(is.String()) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render("space pause  r reheat  q quit"))
	b.WriteString("\n")
	return b.String()
}

// alphaBar draws alpha (0 to 1) as a gauge width cells wide.
func alphaBar(alpha float64, width int) string {
	filled := int(alpha*float64(width) + 0.5)
	filled = max(0, min(width, filled))
	return StyleHighlight.Render(strings.Repeat("█", filled)) +
		StyleDim.Render(strings.Repeat("░", width-filled))
}
