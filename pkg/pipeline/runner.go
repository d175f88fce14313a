package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgchart/pkg/avatar"
	"github.com/matzehuels/orgchart/pkg/engine"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/observability"
	"github.com/matzehuels/orgchart/pkg/roster"
)

// Runner encapsulates pipeline execution. The render command and the
// server both use it so that charts come out the same everywhere.
//
// The Runner is stateless except for the avatar fetcher and logger - it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Fetcher *avatar.Fetcher
	Hooks   observability.PipelineHooks
	Logger  *log.Logger
}

// NewRunner creates a runner. A nil fetcher disables avatars; a nil logger
// uses the default logger. Pipeline events go to the global hooks.
func NewRunner(f *avatar.Fetcher, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Fetcher: f,
		Hooks:   observability.Pipeline(),
		Logger:  logger,
	}
}

// Execute runs the complete parse → layout → avatars → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger

	result := &Result{}

	// Stage 1: Parse
	parseStart := time.Now()
	g, records, issues, err := r.Parse(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Graph = g
	result.Records = records
	result.Issues = issues
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.PersonCount = g.PersonCount()

	logger.Info("parsed roster",
		"nodes", len(g.Nodes),
		"people", g.PersonCount(),
		"links", len(g.Links),
		"duration", result.Stats.ParseTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	e, ticks, err := r.Layout(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	defer e.Dispose()
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Ticks = ticks

	info := e.Info()
	result.Issues = append(result.Issues, info.Issues...)
	result.Stats.LinkCount = info.Links
	result.Frame, _ = e.Frame()

	logger.Info("settled layout",
		"ticks", ticks,
		"state", info.State,
		"issues", len(result.Issues),
		"duration", result.Stats.LayoutTime)
	for _, is := range result.Issues {
		logger.Warn(is.Message, "code", is.Code, "node", is.NodeID)
	}

	// Stage 3: Avatars
	if opts.Avatars && r.Fetcher != nil {
		avatarStart := time.Now()
		urls := PictureURLs(g)
		res, err := r.Fetcher.FetchAll(ctx, urls)
		if err != nil {
			return nil, fmt.Errorf("avatars: %w", err)
		}
		result.Avatars = res
		result.Stats.AvatarTime = time.Since(avatarStart)
		for _, id := range res.FailedIDs() {
			logger.Warn("avatar unavailable", "id", id, "err", res.Failed[id])
		}
		logger.Info("fetched avatars",
			"fetched", len(res.Avatars),
			"failed", len(res.Failed),
			"duration", result.Stats.AvatarTime)
	}

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, err := r.Render(ctx, e, opts, result.Avatars)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Parse builds the layout input, reporting to the pipeline hooks.
func (r *Runner) Parse(ctx context.Context, opts Options) (*graph.Graph, []roster.Record, []layout.Issue, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, nil, nil, err
	}
	source := opts.Roster
	if opts.Graph != nil {
		source = "graph"
	}

	r.hooks().OnParseStart(ctx, source)
	start := time.Now()
	g, records, issues, err := Parse(opts)
	nodes := 0
	if g != nil {
		nodes = len(g.Nodes)
	}
	r.hooks().OnParseComplete(ctx, source, nodes, time.Since(start), err)
	return g, records, issues, err
}

// Layout loads g into a new engine and settles it, reporting to the
// pipeline hooks. The caller must Dispose the engine.
func (r *Runner) Layout(ctx context.Context, g *graph.Graph, opts Options) (*engine.Engine, int, error) {
	opts.SetLayoutDefaults()

	r.hooks().OnLayoutStart(ctx, len(g.Nodes))
	start := time.Now()
	e, ticks, err := Settle(ctx, g, opts)
	r.hooks().OnLayoutComplete(ctx, ticks, time.Since(start), err)
	return e, ticks, err
}

// Render renders the engine's layout, reporting to the pipeline hooks.
func (r *Runner) Render(ctx context.Context, e *engine.Engine, opts Options, avatars avatar.Result) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	r.hooks().OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	var artifacts map[string][]byte
	err := e.WithLayout(func(l *layout.Layout) error {
		var err error
		artifacts, err = Render(ctx, l, opts, avatars)
		return err
	})
	r.hooks().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

// PictureURLs maps every person in g, team members included, to their
// picture URL.
func PictureURLs(g *graph.Graph) map[string]string {
	urls := make(map[string]string)
	add := func(p graph.Person) {
		if p.HasPicture() {
			urls[p.ID] = p.PictureURL
		}
	}
	for _, n := range g.Nodes {
		if p, ok := n.Person(); ok {
			add(p)
		}
		for _, m := range n.Members() {
			add(m)
		}
	}
	return urls
}

func (r *Runner) hooks() observability.PipelineHooks {
	if r.Hooks == nil {
		return observability.Pipeline()
	}
	return r.Hooks
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
