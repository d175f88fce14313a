// Package observability defines the events the layout engine, the viewport
// controller, the pipeline, the avatar cache and the avatar HTTP client
// emit, without tying them to a backend.
//
// Every hook interface has a no-op default and a global registry entry.
// Engines read the registry when they are built and also accept their own
// hooks, so tests can observe one engine in isolation.
//
// Implementations live elsewhere: [LogHooks] in this package writes events to
// a charmbracelet logger, and the promhooks subpackage records Prometheus
// metrics.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLayoutHooks(promhooks.New(registry))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Layout().OnTick(ctx, tick, alpha)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the force layout.
type LayoutHooks interface {
	// OnLayoutStart is called once per data load, after the input is copied.
	OnLayoutStart(ctx context.Context, nodeCount, linkCount int)

	// OnPack is called after a team's members are packed.
	OnPack(ctx context.Context, teamID string, members int, radius float64, duration time.Duration)

	// OnIssue reports a recoverable data problem (malformed link, empty team...).
	OnIssue(ctx context.Context, code, nodeID, message string)

	// OnTick is called after every outer simulation tick.
	OnTick(ctx context.Context, tick int, alpha float64)

	// OnQuiescent is called when the simulation settles.
	OnQuiescent(ctx context.Context, ticks int, duration time.Duration)

	// OnDispose is called when a layout is released.
	OnDispose(ctx context.Context)
}

// =============================================================================
// Viewport Hooks
// =============================================================================

// ViewportHooks receives events from the viewport controller.
type ViewportHooks interface {
	// OnFocus records a focus request. id is empty when focus is cleared.
	OnFocus(ctx context.Context, id string)

	// OnHighlight records the highlighted node and number of incident links.
	OnHighlight(ctx context.Context, id string, links int)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the batch rendering pipeline.
type PipelineHooks interface {
	// Parse events
	OnParseStart(ctx context.Context, source string)
	OnParseComplete(ctx context.Context, source string, nodeCount int, duration time.Duration, err error)

	// Layout events
	OnLayoutStart(ctx context.Context, nodeCount int)
	OnLayoutComplete(ctx context.Context, ticks int, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(context.Context, int, int)                     {}
func (NoopLayoutHooks) OnPack(context.Context, string, int, float64, time.Duration) {}
func (NoopLayoutHooks) OnIssue(context.Context, string, string, string)             {}
func (NoopLayoutHooks) OnTick(context.Context, int, float64)                        {}
func (NoopLayoutHooks) OnQuiescent(context.Context, int, time.Duration)             {}
func (NoopLayoutHooks) OnDispose(context.Context)                                   {}

// NoopViewportHooks is a no-op implementation of ViewportHooks.
type NoopViewportHooks struct{}

func (NoopViewportHooks) OnFocus(context.Context, string)          {}
func (NoopViewportHooks) OnHighlight(context.Context, string, int) {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnParseStart(context.Context, string)                               {}
func (NoopPipelineHooks) OnParseComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, int)                                 {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, int, time.Duration, error)        {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                            {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error)   {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// slot holds one registered hook implementation behind a lock.
type slot[T any] struct {
	mu   sync.RWMutex
	def  T
	hook T
}

func newSlot[T any](def T) *slot[T] { return &slot[T]{def: def, hook: def} }

// set installs h. A nil h is ignored so callers can pass optional hooks.
func (s *slot[T]) set(h T) {
	if any(h) == nil {
		return
	}
	s.mu.Lock()
	s.hook = h
	s.mu.Unlock()
}

func (s *slot[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hook
}

func (s *slot[T]) reset() {
	s.mu.Lock()
	s.hook = s.def
	s.mu.Unlock()
}

var (
	layoutHooks   = newSlot[LayoutHooks](NoopLayoutHooks{})
	viewportHooks = newSlot[ViewportHooks](NoopViewportHooks{})
	pipelineHooks = newSlot[PipelineHooks](NoopPipelineHooks{})
	cacheHooks    = newSlot[CacheHooks](NoopCacheHooks{})
	httpHooks     = newSlot[HTTPHooks](NoopHTTPHooks{})
)

// SetLayoutHooks registers layout hooks. Engines read the registered hooks
// when they are built, so call this before creating one.
func SetLayoutHooks(h LayoutHooks) { layoutHooks.set(h) }

func SetViewportHooks(h ViewportHooks) { viewportHooks.set(h) }

func SetPipelineHooks(h PipelineHooks) { pipelineHooks.set(h) }

func SetCacheHooks(h CacheHooks) { cacheHooks.set(h) }

func SetHTTPHooks(h HTTPHooks) { httpHooks.set(h) }

// Layout returns the registered layout hooks.
func Layout() LayoutHooks { return layoutHooks.get() }

func Viewport() ViewportHooks { return viewportHooks.get() }

func Pipeline() PipelineHooks { return pipelineHooks.get() }

func Cache() CacheHooks { return cacheHooks.get() }

func HTTP() HTTPHooks { return httpHooks.get() }

// Reset restores every hook to its no-op default.
func Reset() {
	layoutHooks.reset()
	viewportHooks.reset()
	pipelineHooks.reset()
	cacheHooks.reset()
	httpHooks.reset()
}
