// Package server provides the HTTP server and routing for the underwriting API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/fathomcap/underwriter/internal/config"
	"github.com/fathomcap/underwriter/internal/di"
	datasethandlers "github.com/fathomcap/underwriter/internal/modules/datasets/handlers"
	lendinghandlers "github.com/fathomcap/underwriter/internal/modules/lending/handlers"
	retentionhandlers "github.com/fathomcap/underwriter/internal/modules/retention/handlers"
	simulationhandlers "github.com/fathomcap/underwriter/internal/modules/simulation/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Port      int
	DevMode   bool
	Container *di.Container // DI container with all services
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.Container.DatasetsDB,
			cfg.Container.ResultsDB,
		),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	// No WriteTimeout: the run progress WebSocket stays open for the whole run
	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Liveness probe (no DB access, answers even when storage is degraded)
	s.router.Get("/health", s.handleHealth)

	// System monitoring
	s.router.Get("/api/system/health", s.systemHandlers.HandleHealth)
	s.router.Get("/api/system/status", s.systemHandlers.HandleSystemStatus)

	// Datasets module (P&L and cohort imports, gross margin)
	datasetsHandler := datasethandlers.NewHandler(s.container.DatasetsService, s.log)
	datasetsHandler.RegisterRoutes(s.router)

	// Retention module (retention table, NDR evolution)
	retentionHandler := retentionhandlers.NewHandler(s.container.DatasetsService, s.log)
	retentionHandler.RegisterRoutes(s.router)

	// Simulation module (runs, results, progress stream)
	simulationHandler := simulationhandlers.NewHandler(s.container.RunManager, s.container.EventManager, s.log)
	simulationHandler.RegisterRoutes(s.router)

	// Lending module (lender summary, fund performance)
	lendingHandler := lendinghandlers.NewHandler(s.container.RunManager, s.log)
	lendingHandler.RegisterRoutes(s.router)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
