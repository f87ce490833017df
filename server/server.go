package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leadwise/dispatch"
	"github.com/leadwise/dispatch/internal/logger"
	"github.com/leadwise/dispatch/store"
	"github.com/leadwise/dispatch/types"
)

// Server serves the dispatch HTTP API.
type Server struct {
	cfg    Config
	engine *dispatch.Engine
	store  *store.Memory
	logger types.Logger

	httpServer *http.Server
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithLogger sets a logger.
func WithLogger(l types.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a Server around an engine and its backing store.
//
// Parameters:
//   - cfg: Daemon configuration (SetDefaults/Validate already applied by LoadConfig)
//   - eng: Assignment engine
//   - mem: Store backing the admin CRUD surface
//   - opts: Optional functional options
//
// Returns:
//   - *Server: Configured server, ready for ListenAndServe
func New(cfg Config, eng *dispatch.Engine, mem *store.Memory, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		engine: eng,
		store:  mem,
		logger: logger.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// Handler builds the route table with middleware applied. Exposed separately
// so tests can drive the API through httptest without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /operators", s.handleCreateOperator)
	mux.HandleFunc("GET /operators", s.handleListOperators)
	mux.HandleFunc("GET /operators/{id}", s.handleGetOperator)
	mux.HandleFunc("PATCH /operators/{id}", s.handleUpdateOperator)
	mux.HandleFunc("DELETE /operators/{id}", s.handleDeleteOperator)

	mux.HandleFunc("POST /channels", s.handleCreateChannel)
	mux.HandleFunc("GET /channels", s.handleListChannels)
	mux.HandleFunc("GET /channels/{id}", s.handleGetChannel)
	mux.HandleFunc("DELETE /channels/{id}", s.handleDeleteChannel)
	mux.HandleFunc("PUT /channels/{id}/weights", s.handleSetWeights)
	mux.HandleFunc("GET /channels/{id}/weights", s.handleGetWeights)
	mux.HandleFunc("GET /channels/{id}/stats", s.handleChannelStats)

	mux.HandleFunc("POST /requests", s.handleRegisterRequest)
	mux.HandleFunc("GET /requests", s.handleListRequests)
	mux.HandleFunc("GET /requests/{id}", s.handleGetRequest)
	mux.HandleFunc("POST /requests/{id}/close", s.handleCloseRequest)

	mux.HandleFunc("GET /leads", s.handleListLeads)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	var h http.Handler = mux
	if s.cfg.RateLimit.Enabled {
		h = rateLimitMiddleware(s.cfg.RateLimit)(h)
	}

	return h
}

// ListenAndServe starts the HTTP listener and blocks until ctx is cancelled
// or the listener fails. Shutdown is graceful, bounded by ShutdownTimeout.
//
// Parameters:
//   - ctx: Cancel to trigger graceful shutdown
//
// Returns:
//   - error: Listener failure; nil on clean shutdown
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("http server listening", "addr", s.cfg.Listen)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped")

	return <-errCh
}
