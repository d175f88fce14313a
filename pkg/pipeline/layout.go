package pipeline

import (
	"context"

	"github.com/matzehuels/orgchart/pkg/engine"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/viewport"
)

// NewEngine returns an engine configured from opts without data. The engine
// is never started; callers step it with Settle or Tick.
func NewEngine(ctx context.Context, opts Options) *engine.Engine {
	eopts := []engine.Option{
		engine.WithParams(opts.Params),
		engine.WithHost(engine.NewManualHost()),
		engine.WithContext(ctx),
		engine.WithFocus(viewport.DefaultFocusScale, 0),
	}
	if opts.Width > 0 && opts.Height > 0 {
		eopts = append(eopts, engine.WithSize(opts.Width, opts.Height))
	}
	if opts.Measurer != nil {
		eopts = append(eopts, engine.WithMeasurer(opts.Measurer))
	}
	return engine.New(eopts...)
}

// Settle loads g into a fresh engine and ticks it until quiescence or
// opts.MaxTicks. When opts.Focus is set the node must exist.
func Settle(ctx context.Context, g *graph.Graph, opts Options) (*engine.Engine, int, error) {
	e := NewEngine(ctx, opts)
	if err := e.Load(g); err != nil {
		e.Dispose()
		return nil, 0, err
	}
	ticks := e.Settle(opts.MaxTicks)
	if opts.Focus != "" {
		if err := e.SetSearched(opts.Focus); err != nil {
			e.Dispose()
			return nil, ticks, err
		}
	}
	return e, ticks, nil
}
