package cli

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/avatar"
	"github.com/matzehuels/orgchart/pkg/buildinfo"
	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/config"
	"github.com/matzehuels/orgchart/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "orgchart"

	// defaultConfigFile is read when --config is not given.
	defaultConfigFile = "orgchart.yaml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        *config.Config
}

// New creates a CLI that logs to w at level. Command output goes to the
// cobra command's output stream.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Orgchart lays out an organisation as a force-directed bubble chart",
		Long:          `Orgchart reads a roster of people and teams, packs each team into a tight cluster and lays the organisation out with a force simulation. Charts render to SVG, PNG, JSON or DOT, or stream live to a browser.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./"+defaultConfigFile+")")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads --config (or orgchart.yaml in the working directory) and
// the ORGCHART_ environment overrides.
func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		path = defaultConfigFile
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("loaded config", "path", path)
	return nil
}

// settings returns the loaded configuration, or the defaults when the root
// pre-run has not happened (tests calling subcommands directly).
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// =============================================================================
// Factories
// =============================================================================

// openCache opens the avatar cache selected by the configuration.
func (c *CLI) openCache(ctx context.Context) (cache.Cache, error) {
	cc := c.settings().Cache
	return cache.Open(ctx, cache.Options{
		Backend:   cc.Backend,
		Dir:       cc.Dir,
		RedisAddr: cc.RedisAddr,
		RedisDB:   cc.RedisDB,
	})
}

// newFetcher returns an avatar fetcher backed by the configured cache. The
// returned close func releases the cache.
func (c *CLI) newFetcher(ctx context.Context) (*avatar.Fetcher, func(), error) {
	store, err := c.openCache(ctx)
	if err != nil {
		return nil, nil, err
	}
	cfg := c.settings()
	f := avatar.NewFetcher(store,
		avatar.WithSize(cfg.Avatar.Size),
		avatar.WithConcurrency(cfg.Avatar.Concurrency),
		avatar.WithTTL(cfg.Cache.TTL),
		avatar.WithHTTPClient(&http.Client{Timeout: cfg.Avatar.Timeout}),
		avatar.WithUserAgent(appName+"/"+buildinfo.Version),
	)
	return f, func() { _ = store.Close() }, nil
}

// newRunner creates a pipeline runner for CLI use. Avatars are fetched only
// when requested.
func (c *CLI) newRunner(ctx context.Context, avatars bool) (*pipeline.Runner, func(), error) {
	if !avatars {
		return pipeline.NewRunner(nil, c.Logger), func() {}, nil
	}
	f, closeFn, err := c.newFetcher(ctx)
	if err != nil {
		return nil, nil, err
	}
	return pipeline.NewRunner(f, c.Logger), closeFn, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// baseOptions fills the layout options from the configuration.
func (c *CLI) baseOptions(rosterPath string) pipeline.Options {
	cfg := c.settings()
	return pipeline.Options{
		Roster:    rosterPath,
		Locations: cfg.Roster.Locations,
		Params:    cfg.Params(),
		MaxTicks:  cfg.Layout.MaxTicks,
		Logger:    c.Logger,
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
