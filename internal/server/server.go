// Package server wires handlers, middleware and routes together and runs
// the HTTP listener.
//
// DEPENDENCY FLOW:
//
//	cmd/usersvc opens the store and loads config
//	  → server.New(cfg, store, logger)
//	    → middleware.StoreConn(store) leases a connection per request
//	      → handler.UserHandler builds a UserService around conn.Users()
//
// New does no I/O, so tests can build a Server on a temp-file SQLite store
// and drive Handler() with httptest.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/user-service/internal/config"
	"github.com/sakif/user-service/internal/handler"
	"github.com/sakif/user-service/internal/middleware"
	"github.com/sakif/user-service/internal/repository/sqlstore"
)

// Version is reported in the OpenAPI document. Set at build time with
// -ldflags "-X github.com/sakif/user-service/internal/server.Version=...".
var Version = "dev"

// Server holds the router and everything the routes depend on.
//
// The Server does not own the store: whoever opened it closes it, after
// Start returns.
type Server struct {
	cfg      *config.Config
	store    *sqlstore.Store
	logger   *slog.Logger
	router   chi.Router
	registry *prometheus.Registry
}

// New builds the router. It does not listen; call Start for that.
func New(cfg *config.Config, store *sqlstore.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		router:   chi.NewRouter(),
		registry: prometheus.NewRegistry(),
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes installs middleware and routes.
//
// ROUTES:
//
//	GET    /test               → {"message": "Hello World"}
//	POST   /users/             → create
//	GET    /users/             → list (?skip=0&limit=10)
//	GET    /users/{user_id}    → get
//	PUT    /users/{user_id}    → replace
//	DELETE /users/{user_id}    → delete
//	GET    /openapi.json       → API description
//	GET    /healthz            → store ping
//	GET    /metrics            → Prometheus
//	anything else              → static.dir, if it exists
//
// Only the /users routes lease a database connection. /users without the
// trailing slash reaches the same handlers.
//
// MIDDLEWARE ORDER:
// RequestID runs first so the logger can print the id. Logger and Metrics
// sit outside Recoverer so a recovered panic is still logged
// and counted, with status 500.
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.NewMetrics(s.registry).Middleware)
	r.Use(chimiddleware.Recoverer)

	if origins := s.cfg.CORS.AllowedOrigins; len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	if rpm := s.cfg.RateLimit.RequestsPerMinute; rpm > 0 {
		r.Use(middleware.RateLimit(rpm))
	}

	r.Get("/test", handler.Hello(s.logger))
	r.Get("/healthz", handler.NewHealthHandler(s.store, s.logger).HandleHealth)
	r.Get("/openapi.json", handler.NewOpenAPIHandler(Version, s.logger).HandleSpec)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	users := handler.NewUserHandler(handler.ConnRepo, s.logger)

	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.StoreConn(s.store, s.logger))

		r.Post("/", users.HandleCreate)
		r.Get("/", users.HandleList)
		r.Get("/{"+handler.UserIDParam+"}", users.HandleGet)
		r.Put("/{"+handler.UserIDParam+"}", users.HandleReplace)
		r.Delete("/{"+handler.UserIDParam+"}", users.HandleDelete)
	})

	r.NotFound(s.notFoundHandler())
}

// notFoundHandler serves static files for unmatched paths when static.dir
// is a directory, and a JSON 404 otherwise.
func (s *Server) notFoundHandler() http.HandlerFunc {
	dir := s.cfg.Static.Dir
	if info, err := os.Stat(dir); dir != "" && err == nil && info.IsDir() {
		s.logger.Info("serving static files", slog.String("dir", dir))
		return http.FileServer(http.Dir(dir)).ServeHTTP
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not Found"}` + "\n"))
	}
}

// Start listens on the configured address until ctx is cancelled or the
// process receives SIGINT or SIGTERM, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. stop accepting connections
//  2. wait up to server.shutdown_timeout for in-flight requests
//  3. return, so the caller can close the store
//
// Step 3 comes last because in-flight requests still hold leased
// connections until they finish.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("driver", s.store.Driver()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
