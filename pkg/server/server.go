// Package server hosts one live org chart over HTTP.
//
// The server owns an [engine.Engine] ticking on its own timer. Clients get
// the current drawing from GET /api/scene.svg and then follow the
// simulation over a websocket at /ws, which streams frames at no more than
// the configured rate. Focus, resize and reheat are plain JSON endpoints:
//
//	GET    /                 page with the chart and a websocket client
//	GET    /api/scene.svg    current drawing
//	GET    /api/frame        current positions as JSON
//	POST   /api/focus        {"id": "ada"} focus and highlight a node
//	DELETE /api/focus        clear the search
//	POST   /api/resize       {"width": 1280, "height": 800}
//	POST   /api/reheat       restart a settled simulation
//	GET    /api/info         engine summary
//	GET    /ws               frame stream
//	GET    /metrics          Prometheus metrics, when enabled
//	GET    /healthz          liveness
//
// With a roster path the server loads data through [Server.Reload]; with
// watching enabled every change of the file reloads it.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/orgchart/pkg/avatar"
	"github.com/matzehuels/orgchart/pkg/engine"
	"github.com/matzehuels/orgchart/pkg/observability/promhooks"
	"github.com/matzehuels/orgchart/pkg/pipeline"
)

// Defaults for a new Server.
const (
	DefaultFPS      = 30
	DefaultDebounce = 200 * time.Millisecond
	shutdownTimeout = 5 * time.Second
)

// Server serves one engine.
type Server struct {
	engine   *engine.Engine
	logger   *log.Logger
	metrics  *promhooks.Metrics
	gatherer prometheus.Gatherer
	fetcher  *avatar.Fetcher
	hub      *Hub
	upgrader websocket.Upgrader
	router   chi.Router

	fps       float64
	origins   []string
	roster    string
	locations []string
	watch     bool
	debounce  time.Duration

	reloadMu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithMetrics records request and stream metrics in m and serves g on
// /metrics.
func WithMetrics(m *promhooks.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) { s.metrics, s.gatherer = m, g }
}

// WithFPS limits the websocket frame rate.
func WithFPS(fps float64) Option { return func(s *Server) { s.fps = fps } }

// WithCORSOrigins sets the allowed cross-origin callers. Empty allows
// localhost only.
func WithCORSOrigins(origins []string) Option { return func(s *Server) { s.origins = origins } }

// WithRoster sets the roster file read by Reload. With watch set, Run
// reloads it whenever it changes.
func WithRoster(path string, watch bool) Option {
	return func(s *Server) { s.roster, s.watch = path, watch }
}

// WithLocations sets the facility tags Reload accepts. Empty accepts any.
func WithLocations(tags []string) Option { return func(s *Server) { s.locations = tags } }

// WithDebounce sets how long the watcher waits for writes to settle.
func WithDebounce(d time.Duration) Option { return func(s *Server) { s.debounce = d } }

// WithAvatars fetches profile pictures with f after every reload.
func WithAvatars(f *avatar.Fetcher) Option { return func(s *Server) { s.fetcher = f } }

// New returns a server for e. The caller keeps ownership of e.
func New(e *engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine:   e,
		logger:   log.Default(),
		fps:      DefaultFPS,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fps <= 0 {
		s.fps = DefaultFPS
	}
	s.hub = NewHub(s.logger)
	if s.metrics != nil {
		s.hub.onCount = func(n int) { s.metrics.WSClients.Set(float64(n)) }
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ws", s.handleWS)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhooks.Handler(s.gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/scene.svg", s.handleScene)
		r.Get("/frame", s.handleFrame)
		r.Get("/info", s.handleInfo)
		r.Post("/focus", s.handleFocus)
		r.Delete("/focus", s.handleClearFocus)
		r.Post("/resize", s.handleResize)
		r.Post("/reheat", s.handleReheat)
	})

	return r
}

func (s *Server) allowedOrigins() []string {
	if len(s.origins) > 0 {
		return s.origins
	}
	return []string{"http://localhost:*", "http://127.0.0.1:*"}
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Reload reads the roster and replaces the engine's data. Avatars are
// fetched afterwards when a fetcher is configured; clients are told to
// redraw either way.
func (s *Server) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	g, _, issues, err := pipeline.Parse(pipeline.Options{Roster: s.roster, Locations: s.locations})
	if err != nil {
		return err
	}
	if err := s.engine.Load(g); err != nil {
		return err
	}
	for _, is := range append(issues, s.engine.Info().Issues...) {
		s.logger.Warn(is.Message, "code", is.Code, "node", is.NodeID)
	}
	s.logger.Info("loaded roster",
		"path", s.roster,
		"nodes", len(g.Nodes),
		"people", g.PersonCount(),
		"duration", time.Since(start))

	if s.fetcher != nil {
		res, err := s.fetcher.FetchAll(ctx, pipeline.PictureURLs(g))
		if err != nil {
			return err
		}
		for id, a := range res.Avatars {
			s.engine.SetAvatar(id, a.DataURI())
		}
		if len(res.Failed) > 0 {
			s.logger.Warn("avatars unavailable", "count", len(res.Failed), "ids", res.FailedIDs())
		}
	}

	s.hub.Broadcast(reloadMessage())
	return nil
}

// Run serves on addr until ctx is cancelled. It loads the roster if one is
// set, starts the engine's ticker, streams frames to websocket clients and
// watches the roster when asked.
func (s *Server) Run(ctx context.Context, addr string) error {
	if s.roster != "" {
		if err := s.Reload(ctx); err != nil {
			return err
		}
	}
	if err := s.engine.Start(); err != nil {
		return err
	}
	defer s.engine.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Stream(ctx)
	}()
	if s.roster != "" && s.watch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WatchRoster(ctx, s.roster, s.debounce, func() {
				if err := s.Reload(ctx); err != nil {
					s.logger.Error("reload failed", "path", s.roster, "err", err)
				}
			})
			if err != nil {
				s.logger.Error("watch failed", "path", s.roster, "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving org chart", "addr", addr, "id", s.engine.ID())
		errc <- srv.ListenAndServe()
	}()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		err = srv.Shutdown(shutdownCtx)
		done()
	}
	cancel()
	s.hub.Close()
	wg.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
