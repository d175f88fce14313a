package server

import (
	"context"
	"encoding/json"

	"golang.org/x/time/rate"

	"github.com/matzehuels/orgchart/pkg/graph"
)

// Message types sent over the websocket.
const (
	MessageFrame  = "frame"
	MessageReload = "reload"
)

// Message is one websocket payload. A frame message carries positions and
// the viewport transform; a reload message tells clients to fetch a new
// scene.
type Message struct {
	Type      string       `json:"type"`
	Frame     *graph.Frame `json:"frame,omitempty"`
	Transform string       `json:"transform,omitempty"`
	Searched  string       `json:"searched,omitempty"`
}

func (s *Server) frameMessage() (Message, bool) {
	f, ok := s.engine.Frame()
	if !ok {
		return Message{}, false
	}
	return Message{
		Type:      MessageFrame,
		Frame:     &f,
		Transform: s.engine.Transform().String(),
		Searched:  s.engine.Searched(),
	}, true
}

func reloadMessage() []byte {
	data, _ := json.Marshal(Message{Type: MessageReload})
	return data
}

// Stream broadcasts engine frames to the hub until ctx is cancelled or the
// engine is disposed. Frames arriving faster than the configured rate are
// coalesced; clients always get the newest one.
func (s *Server) Stream(ctx context.Context) {
	frames, cancel := s.engine.Subscribe()
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(s.fps), 1)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-frames:
			if !ok {
				return
			}
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		// Drop anything published while waiting; frameMessage reads the
		// latest state.
		select {
		case _, ok := <-frames:
			if !ok {
				return
			}
		default:
		}

		msg, ok := s.frameMessage()
		if !ok {
			continue
		}
		data, err := json.Marshal(msg)
		if err != nil {
			s.logger.Error("encode frame", "err", err)
			continue
		}
		s.hub.Broadcast(data)
		if s.metrics != nil {
			s.metrics.FramesSent.Inc()
		}
	}
}
