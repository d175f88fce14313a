package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string   // output file (single format) or base path (multiple)
	formats   []string // svg, png, json, dot, graphviz, graph
	focus     string   // node to centre and highlight
	width     float64  // viewport width; 0 fits the chart
	height    float64  // viewport height; 0 fits the chart
	maxTicks  int      // tick budget for settling
	avatars   bool     // fetch profile pictures
	scale     float64  // PNG pixel scale
	embedFont bool     // embed the label font in SVG output
	members   bool     // DOT: draw team members as clusters
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <roster>",
		Short: "Lay out a roster and render the settled chart",
		Long: `Render reads a roster (CSV, JSON, YAML or TOML), runs the layout until it
settles and writes one file per requested format.

With a single format, -o names the output file. With several formats, -o is
a base path and each format appends its own extension.`,
		Example: `  orgchart render team.csv
  orgchart render org.yaml -f svg,png --focus team:console -o out/org
  orgchart render org.json -f graphviz --avatars`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-ticks") {
				opts.maxTicks = c.settings().Layout.MaxTicks
			}
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, json, dot, graphviz, graph (comma-separated)")
	cmd.Flags().StringVar(&opts.focus, "focus", "", "centre and highlight this node id")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "viewport width (0 fits the chart)")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "viewport height (0 fits the chart)")
	cmd.Flags().IntVar(&opts.maxTicks, "max-ticks", pipeline.DefaultMaxTicks, "maximum simulation ticks")
	cmd.Flags().BoolVar(&opts.avatars, "avatars", false, "fetch profile pictures into the chart")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "PNG pixel scale")
	cmd.Flags().BoolVar(&opts.embedFont, "embed-font", false, "embed the label font in SVG output")
	cmd.Flags().BoolVar(&opts.members, "members", false, "draw team members as DOT clusters")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, w io.Writer, rosterPath string, ro renderOpts) error {
	runner, closeFn, err := c.newRunner(ctx, ro.avatars)
	if err != nil {
		return fmt.Errorf("avatar cache: %w", err)
	}
	defer closeFn()

	opts := c.baseOptions(rosterPath)
	opts.Formats = ro.formats
	opts.Focus = ro.focus
	opts.Width = ro.width
	opts.Height = ro.height
	opts.MaxTicks = ro.maxTicks
	opts.Avatars = ro.avatars
	opts.Scale = ro.scale
	opts.EmbedFont = ro.embedFont
	opts.Members = ro.members

	prog := newProgress(loggerFromContext(ctx))
	spin := newSpinner(ctx, os.Stderr, "Laying out "+rosterPath)
	if !c.verbose {
		spin.Start()
	}
	result, err := runner.Execute(ctx, opts)
	spin.Stop()
	if err != nil {
		return err
	}

	paths, err := writeArtifacts(result.Artifacts, ro.formats, outputBase(rosterPath, ro.output, len(ro.formats)))
	if err != nil {
		return err
	}
	prog.done("rendered", "roster", rosterPath, "files", len(paths))

	p := newPrinter(w)
	p.success("Rendered %d format(s)", len(paths))
	p.stats(result.Stats.NodeCount, result.Stats.PersonCount, result.Stats.LinkCount, len(result.Issues))
	for _, path := range paths {
		p.file(path)
	}
	if len(result.Avatars.Failed) > 0 {
		p.warning("%d avatar(s) unavailable", len(result.Avatars.Failed))
	}
	p.nextStep("Explore it live", appName+" serve "+rosterPath)
	return nil
}

// outputBase returns the path the artifacts are written under. An empty
// output derives it from the roster name. A single format with an explicit
// extension is written to output as-is.
func outputBase(rosterPath, output string, formats int) string {
	if output != "" {
		if formats == 1 && filepath.Ext(output) != "" {
			return output
		}
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	base := filepath.Base(rosterPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// writeArtifacts writes each format's bytes and returns the paths in format
// order.
func writeArtifacts(artifacts map[string][]byte, formats []string, base string) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	exact := len(formats) == 1 && filepath.Ext(base) != ""

	var paths []string
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok {
			continue
		}
		path := base
		if !exact {
			path = base + "." + pipeline.Extension(f)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
