package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/pipeline"
)

// inspectRow is one line of the inspect table.
type inspectRow struct {
	ID      string
	Name    string
	Kind    graph.Kind
	Members int
	Lines   int
	Radius  float64
	Member  bool // a team member listed under its team
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var members bool
	cmd := &cobra.Command{
		Use:   "inspect <roster>",
		Short: "Print the nodes of a roster with their sizes",
		Long: `Inspect builds the layout input of a roster and prints every top-level
node: people and teams, the number of team members, how many lines the
label wraps to and the bounding radius. No simulation is run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), cmd.OutOrStdout(), args[0], members)
		},
	}
	cmd.Flags().BoolVar(&members, "members", false, "list team members under their team")
	return cmd
}

func (c *CLI) runInspect(ctx context.Context, w io.Writer, rosterPath string, members bool) error {
	opts := c.baseOptions(rosterPath)
	if err := opts.ValidateForParse(); err != nil {
		return err
	}
	g, _, issues, err := pipeline.Parse(opts)
	if err != nil {
		return err
	}

	e := pipeline.NewEngine(ctx, opts)
	defer e.Dispose()
	if err := e.Load(g); err != nil {
		return err
	}

	var rows []inspectRow
	err = e.WithLayout(func(l *layout.Layout) error {
		rows = inspectRows(l, members)
		issues = append(issues, l.Issues()...)
		return nil
	})
	if err != nil {
		return err
	}

	p := newPrinter(w)
	fmt.Fprintln(w, renderInspectTable(rows))
	p.stats(len(g.Nodes), g.PersonCount(), len(g.Links), len(issues))
	for _, is := range issues {
		p.warning("%s", is.String())
	}
	return nil
}

// inspectRows lists the nodes of l in layout order. With members set, each
// team is followed by its members.
func inspectRows(l *layout.Layout, members bool) []inspectRow {
	policy := l.Policy()
	var rows []inspectRow
	for i, n := range l.Nodes() {
		rows = append(rows, inspectRow{
			ID:      n.ID(),
			Name:    n.Name(),
			Kind:    n.Kind(),
			Members: len(n.Members()),
			Lines:   policy.LineCount(n.Name()),
			Radius:  l.Radius(i),
		})
		if !members {
			continue
		}
		pk := l.Packing(i)
		for j, p := range n.Members() {
			r := policy.PersonRadius(p)
			if j < len(pk.Radii) {
				r = pk.Radii[j]
			}
			rows = append(rows, inspectRow{
				ID:     p.ID,
				Name:   p.Name,
				Kind:   graph.KindPerson,
				Lines:  policy.LineCount(p.Name),
				Radius: r,
				Member: true,
			})
		}
	}
	return rows
}

func renderInspectTable(rows []inspectRow) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		id := r.ID
		if r.Member {
			id = "  └ " + id
		}
		members := ""
		if r.Kind == graph.KindTeam {
			members = strconv.Itoa(r.Members)
		}
		data[i] = []string{id, r.Name, string(r.Kind), members, strconv.Itoa(r.Lines), strconv.FormatFloat(r.Radius, 'f', 1, 64)}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("ID", "Name", "Kind", "Members", "Lines", "Radius").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row < 0 || row >= len(rows) {
				return base
			}
			switch {
			case col >= 3:
				return base.Foreground(colorCyan).Align(lipgloss.Right)
			case rows[row].Member:
				return base.Foreground(colorGray)
			case rows[row].Kind == graph.KindTeam:
				return base.Foreground(colorGreen).Bold(true)
			}
			return base.Foreground(colorWhite)
		}).
		String()
}
