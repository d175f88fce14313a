package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes layout and viewport events to a logger.
// Per-tick events are logged at debug level, everything else at info.
type LogHooks struct {
	Logger *log.Logger
}

var (
	_ LayoutHooks   = LogHooks{}
	_ ViewportHooks = LogHooks{}
)

func (h LogHooks) OnLayoutStart(_ context.Context, nodeCount, linkCount int) {
	h.Logger.Info("layout started", "nodes", nodeCount, "links", linkCount)
}

func (h LogHooks) OnPack(_ context.Context, teamID string, members int, radius float64, d time.Duration) {
	h.Logger.Debug("team packed", "team", teamID, "members", members, "radius", radius, "took", d)
}

func (h LogHooks) OnIssue(_ context.Context, code, nodeID, message string) {
	h.Logger.Warn(message, "code", code, "node", nodeID)
}

func (h LogHooks) OnTick(_ context.Context, tick int, alpha float64) {
	h.Logger.Debug("tick", "n", tick, "alpha", alpha)
}

func (h LogHooks) OnQuiescent(_ context.Context, ticks int, d time.Duration) {
	h.Logger.Info("layout settled", "ticks", ticks, "took", d.Round(time.Millisecond))
}

func (h LogHooks) OnDispose(context.Context) {
	h.Logger.Debug("layout disposed")
}

func (h LogHooks) OnFocus(_ context.Context, id string) {
	if id == "" {
		h.Logger.Info("focus cleared")
		return
	}
	h.Logger.Info("focus requested", "node", id)
}

func (h LogHooks) OnHighlight(_ context.Context, id string, links int) {
	h.Logger.Debug("highlight", "node", id, "links", links)
}
