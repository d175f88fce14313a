package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/orgchart/pkg/errors"
)

// maxBody bounds JSON request bodies.
const maxBody = 1 << 16

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(s.engine.SVG())
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	msg, ok := s.frameMessage()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no data loaded")
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Info())
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID string `json:"id"`
	}
	if !decode(w, r, &payload) {
		return
	}
	if payload.ID != "" {
		if err := errors.ValidateNodeID(payload.ID); err != nil {
			writeErr(w, err)
			return
		}
	}
	if err := s.engine.SetSearched(payload.ID); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Info())
}

func (s *Server) handleClearFocus(w http.ResponseWriter, r *http.Request) {
	s.engine.ClearSearch()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if !decode(w, r, &payload) {
		return
	}
	if payload.Width <= 0 || payload.Height <= 0 {
		writeError(w, http.StatusBadRequest, "width and height must be positive")
		return
	}
	s.engine.Resize(payload.Width, payload.Height)
	writeJSON(w, http.StatusOK, s.engine.Info())
}

func (s *Server) handleReheat(w http.ResponseWriter, r *http.Request) {
	s.engine.Reheat()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reheated"})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	c := newClient(conn, s.logger)
	s.hub.Register(c)
	if msg, ok := s.frameMessage(); ok {
		if data, err := json.Marshal(msg); err == nil {
			c.Send(data)
		}
	}
	go c.writePump()
	go func() {
		c.readPump()
		s.hub.Unregister(c)
	}()
}

// checkOrigin accepts same-host pages and the configured CORS origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	return slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)
}

// observe logs each request and records it in the metrics.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		if s.metrics != nil {
			s.metrics.RecordRequest(r.Method, route, status, d)
		}
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", d,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeJSON sends a JSON payload.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr maps an error code to an HTTP status.
func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeMissingGraph:
		status = http.StatusConflict
	case errors.ErrCodeDisposed:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(errors.GetCode(err)),
	})
}
