// Package server exposes browsing sessions over HTTP. Each session owns its own
// page state and cross-page selection; requests to one session are serialised.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Sternrassler/artic-select/pkg/client"
	"github.com/Sternrassler/artic-select/pkg/metrics"
	"github.com/Sternrassler/artic-select/pkg/pagination"
	"github.com/Sternrassler/artic-select/pkg/session"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "artsel_sessions_active",
		Help: "Number of open browsing sessions",
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artsel_http_requests_total",
		Help: "HTTP API requests by route and status",
	}, []string{"route", "status"})
)

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// Config holds server settings.
type Config struct {
	// PageSize is used for sessions that do not ask for one
	PageSize int

	// FetchTimeout bounds one page fetch
	FetchTimeout time.Duration

	// PrefetchPages is how many pages after a loaded one are warmed
	PrefetchPages int
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		PageSize:      session.DefaultPageSize,
		FetchTimeout:  15 * time.Second,
		PrefetchPages: 1,
	}
}

type entry struct {
	mu      sync.Mutex
	session *session.Session
}

// Server holds the open sessions.
type Server struct {
	fetcher    pagination.PageFetcher[client.Artwork]
	prefetcher *pagination.Prefetcher[client.Artwork]
	ready      func(context.Context) error
	config     Config
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	sessions map[string]*entry
}

// Option configures a Server.
type Option func(*Server)

// WithPrefetcher warms the pages following each loaded page.
func WithPrefetcher(p *pagination.Prefetcher[client.Artwork]) Option {
	return func(s *Server) { s.prefetcher = p }
}

// WithReadiness sets the check behind /ready.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

// New creates a server fetching pages through fetcher.
func New(fetcher pagination.PageFetcher[client.Artwork], cfg Config, logger zerolog.Logger, opts ...Option) *Server {
	if cfg.PageSize < 1 {
		cfg.PageSize = session.DefaultPageSize
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		fetcher:  fetcher,
		config:   cfg,
		logger:   logger.With().Str("component", "server").Logger(),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("GET /api/sessions/{id}/pages/{page}", s.handleGetPage)
	mux.HandleFunc("POST /api/sessions/{id}/selection", s.handleSetChecked)
	mux.HandleFunc("GET /api/sessions/{id}/selection", s.handleGetSelection)
	mux.HandleFunc("POST /api/sessions/{id}/rows/{rowID}/toggle", s.handleToggleRow)
	mux.HandleFunc("POST /api/sessions/{id}/page/toggle", s.handleTogglePage)
	mux.HandleFunc("POST /api/sessions/{id}/bulk", s.handleApplyBulk)
	mux.HandleFunc("DELETE /api/sessions/{id}/bulk", s.handleClearBulk)

	return s.instrument(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting session API")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info().Msg("Shutting down session API")
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close stops background prefetches and waits for them.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// createSession registers a new session.
func (s *Server) createSession(pageSize int) *session.Session {
	if pageSize < 1 {
		pageSize = s.config.PageSize
	}
	sess := session.New(uuid.NewString(), pageSize, s.logger)

	s.mu.Lock()
	s.sessions[sess.ID()] = &entry{session: sess}
	s.mu.Unlock()

	sessionsActive.Inc()
	s.logger.Info().Str("session_id", sess.ID()).Int("page_size", pageSize).Msg("Session created")
	return sess
}

func (s *Server) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return e, nil
}

func (s *Server) deleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	sessionsActive.Dec()
	s.logger.Info().Str("session_id", id).Msg("Session closed")
	return nil
}

// loadPage requests page n for the session, fetches it without holding the
// session lock and applies the result. A newer request made meanwhile wins.
func (s *Server) loadPage(ctx context.Context, e *entry, n int) (pagination.Request, error) {
	e.mu.Lock()
	req := e.session.RequestPage(n)
	e.mu.Unlock()

	page, fetchErr := pagination.Load(ctx, s.fetcher, req, s.config.FetchTimeout)

	e.mu.Lock()
	err := e.session.Deliver(req, page, fetchErr)
	total := e.session.Total()
	e.mu.Unlock()

	if err == nil && fetchErr == nil {
		s.prefetch(req, total)
	}
	return req, err
}

// prefetch warms the following pages in the background.
func (s *Server) prefetch(req pagination.Request, total int) {
	if s.prefetcher == nil || s.config.PrefetchPages < 1 {
		return
	}
	reqs := pagination.Following(req, total, s.config.PrefetchPages)
	if len(reqs) == 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.prefetcher.Prefetch(s.ctx, reqs); err != nil {
			s.logger.Debug().Err(err).Int("page", req.Number).Msg("Prefetch incomplete")
		}
	}()
}
