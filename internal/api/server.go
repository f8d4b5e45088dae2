// Package api provides the HTTP REST API for CareNav.
//
// Endpoints:
//
//	POST /api/v1/query             → answer a question through the RAG pipeline
//	GET  /api/v1/crisis-resources  → list active crisis resources
//	GET  /health                   → liveness probe
//	GET  /ready                    → readiness probe (pings the database)
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (recovery, logging, rate limiting)
//   - ratelimit.go: per-IP token-bucket rate limiting
//   - query.go: the query endpoint
//   - resources.go: crisis resource listing
//   - health.go: health check endpoints (/health, /ready)
//   - response.go: JSON response helpers
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carenav/carenav/internal/crisis"
	"github.com/carenav/carenav/internal/log"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Generation can take most of a minute, so leave headroom beyond
	// the generation timeout.
	WriteTimeout = 90 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on keep-alive connections.
	IdleTimeout = 120 * time.Second

	// defaultRatePerSecond is the steady-state request rate allowed per IP.
	defaultRatePerSecond = 5

	// defaultRateBurst is the initial token allowance per IP.
	defaultRateBurst = 10
)

// ServerConfig carries the dependencies for NewServer.
type ServerConfig struct {
	// QueryService answers questions. Required.
	QueryService QueryService

	// Resources lists active crisis resources. Required.
	Resources crisis.ResourceLister

	// Pool is used by the readiness probe. Optional.
	Pool *pgxpool.Pool

	// TrustProxy enables X-Real-IP / X-Forwarded-For for rate limiting.
	TrustProxy bool

	// RateBurst overrides the per-IP burst allowance when positive.
	RateBurst int

	// Logger defaults to slog.Default().
	Logger log.Logger
}

// Server is the HTTP server for CareNav's REST API.
type Server struct {
	mux        *http.ServeMux
	limiter    *rateLimiter
	trustProxy bool
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}

	mux := http.NewServeMux()

	query := &queryHandler{service: cfg.QueryService, logger: logger}
	resources := &resourcesHandler{resources: cfg.Resources, logger: logger}
	health := &healthHandler{pool: cfg.Pool, logger: logger}

	mux.HandleFunc("POST /api/v1/query", query.handleQuery)
	mux.HandleFunc("GET /api/v1/crisis-resources", resources.listResources)
	mux.HandleFunc("GET /health", health.health)
	mux.HandleFunc("GET /ready", health.ready)

	return &Server{
		mux:        mux,
		limiter:    newRateLimiter(defaultRatePerSecond, burst),
		trustProxy: cfg.TrustProxy,
		logger:     logger,
	}
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → rate limit → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
		rateLimitMiddleware(s.limiter, s.trustProxy, s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
