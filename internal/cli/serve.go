package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/engine"
	"github.com/matzehuels/orgchart/pkg/observability/promhooks"
	"github.com/matzehuels/orgchart/pkg/server"
	"github.com/matzehuels/orgchart/pkg/viewport"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string
	watch   bool
	fps     float64
	avatars bool
	metrics bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve <roster>",
		Short: "Serve a live chart over HTTP and websockets",
		Long: `Serve runs the simulation continuously and streams node positions to
connected browsers. Open the address in a browser to explore the chart:
search for a name to zoom onto it, clear the search to zoom back out.

With --watch the roster is reloaded whenever the file changes.`,
		Example: `  orgchart serve team.csv
  orgchart serve org.yaml --addr :9000 --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()
			if !cmd.Flags().Changed("addr") {
				opts.addr = cfg.Server.Addr
			}
			if !cmd.Flags().Changed("fps") {
				opts.fps = cfg.Server.FPS
			}
			if !cmd.Flags().Changed("avatars") {
				opts.avatars = cfg.Avatar.Enabled
			}
			return c.runServe(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "reload the roster when the file changes")
	cmd.Flags().Float64Var(&opts.fps, "fps", server.DefaultFPS, "maximum frames per second streamed to clients")
	cmd.Flags().BoolVar(&opts.avatars, "avatars", true, "fetch profile pictures")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", true, "expose Prometheus metrics at /metrics")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, w io.Writer, rosterPath string, so serveOpts) error {
	cfg := c.settings()

	srvOpts := []server.Option{
		server.WithLogger(c.Logger),
		server.WithFPS(so.fps),
		server.WithCORSOrigins(cfg.Server.CORSOrigins),
		server.WithRoster(rosterPath, so.watch),
		server.WithLocations(cfg.Roster.Locations),
	}

	if so.metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := promhooks.New(reg)
		m.Register()
		srvOpts = append(srvOpts, server.WithMetrics(m, reg))
	}

	if so.avatars {
		f, closeFn, err := c.newFetcher(ctx)
		if err != nil {
			return fmt.Errorf("avatar cache: %w", err)
		}
		defer closeFn()
		srvOpts = append(srvOpts, server.WithAvatars(f))
	}

	// Hooks are read when the engine is built, so metrics register first.
	e := engine.New(
		engine.WithParams(cfg.Params()),
		engine.WithSize(cfg.Viewport.Width, cfg.Viewport.Height),
		engine.WithFocus(cfg.Viewport.FocusScale, cfg.Viewport.Duration),
		engine.WithEasing(viewport.EasingByName(cfg.Viewport.Easing)),
		engine.WithContext(ctx),
	)
	defer e.Dispose()

	srv := server.New(e, srvOpts...)
	p := newPrinter(w)
	p.success("Serving %s", rosterPath)
	p.detail("http://%s", displayAddr(so.addr))
	if so.watch {
		p.detail("Watching for changes")
	}
	return srv.Run(ctx, so.addr)
}

// displayAddr turns a listen address into something a browser accepts.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
