// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api is the composition root of the HTTP transport: it builds the chi
router, mounts the middleware chain and the domain routers, and owns the
[http.Server] lifecycle.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fptsphere/fptsphere/internal/console"
	"github.com/fptsphere/fptsphere/internal/platform/config"
	"github.com/fptsphere/fptsphere/internal/platform/constants"
	"github.com/fptsphere/fptsphere/internal/platform/metrics"
	"github.com/fptsphere/fptsphere/internal/platform/middleware"
	"github.com/fptsphere/fptsphere/internal/users/account"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// Dependencies groups everything the router needs. It is filled in main.go.
type Dependencies struct {
	Config   *config.Config
	Logger   *slog.Logger
	Verifier middleware.TokenVerifier
	Sessions middleware.SessionLoader
	Metrics  *metrics.Metrics
	Health   *Health

	Console  *console.Handler
	Accounts *account.Handler
}

// # Server Initialization

// NewServer builds the router. The rate limiter sweeper stops with ctx.
func NewServer(ctx context.Context, deps Dependencies) *Server {
	cfg := deps.Config
	r := chi.NewRouter()

	// # Middleware Chain
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(deps.Logger))
	r.Use(deps.Metrics.Middleware)
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst).Handler)
	r.Use(middleware.PanicRecovery())
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	r.Get("/health", deps.Health.Liveness)
	r.Get("/ready", deps.Health.Readiness)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	// # Application API
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Authenticate(deps.Verifier))
		api.Use(middleware.LoadSession(deps.Sessions))

		api.Mount("/console", deps.Console.Routes())
		api.Mount("/", deps.Accounts.Routes())
	})

	return &Server{
		router: r,
		log:    deps.Logger,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits up to timeout for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
