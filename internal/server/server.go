// Package server is the JSON-over-HTTP host around the spreadsheet engines.
// It owns sessions, applies the cell updates commands return, and keeps the
// engines themselves free of transport concerns.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/analytics"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/command"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/formula"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/pivot"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
	"github.com/FACorreiaa/smart-sheet-core/pkg/config"
	"github.com/FACorreiaa/smart-sheet-core/pkg/storage"
)

// Dependencies are the collaborators the server delegates to. Everything
// except Files and Searcher is required.
type Dependencies struct {
	Config      *config.Config
	Registry    *Registry
	Files       storage.Storage
	Searcher    *CellSearcher
	Resolver    *sheet.Resolver
	Evaluator   *formula.Evaluator
	Interpreter *command.Interpreter
	Analytics   *analytics.Engine
	Pivots      *pivot.Engine
}

// Server carries the handler set and its middleware configuration.
type Server struct {
	cfg         *config.Config
	registry    *Registry
	files       storage.Storage
	searcher    *CellSearcher
	resolver    *sheet.Resolver
	evaluator   *formula.Evaluator
	interpreter *command.Interpreter
	analytics   *analytics.Engine
	pivots      *pivot.Engine
	metrics     *Metrics
	tracer      trace.Tracer
	limiter     *rate.Limiter
	logger      *slog.Logger
	started     time.Time
}

func New(deps Dependencies, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:         deps.Config,
		registry:    deps.Registry,
		files:       deps.Files,
		searcher:    deps.Searcher,
		resolver:    deps.Resolver,
		evaluator:   deps.Evaluator,
		interpreter: deps.Interpreter,
		analytics:   deps.Analytics,
		pivots:      deps.Pivots,
		tracer:      otel.Tracer("smart-sheet-core/server"),
		logger:      logger,
		started:     time.Now(),
	}
	s.metrics = NewMetrics(func() float64 { return float64(s.registry.Count()) })
	s.limiter = rate.NewLimiter(
		rate.Limit(deps.Config.Server.RateLimitPerSecond),
		deps.Config.Server.RateLimitBurst,
	)
	return s
}

// Routes assembles the middleware chain and the endpoint tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(recoverer(s.logger))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}).Handler)
	r.Use(rateLimit(s.limiter))
	r.Use(requestMetrics(s.metrics))

	r.Get("/healthz", s.handleHealthz)
	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)
			r.Get("/cells", s.handleCells)
			r.Post("/formula", s.handleFormula)
			r.Post("/command", s.handleCommand)
			r.Get("/analytics", s.handleAnalytics)
			r.Post("/pivot", s.handlePivot)
			r.Get("/search", s.handleSearch)
			r.Get("/export", s.handleExport)
		})
	})
	return r
}

// MetricsHandler serves the Prometheus scrape endpoint, intended for a
// separate listener away from the public API port.
func (s *Server) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}

// Close releases the search index.
func (s *Server) Close() error {
	if s.searcher == nil {
		return nil
	}
	return s.searcher.Close()
}

// observeEngine opens a span and a latency observation around one engine
// call. The returned func ends both.
func (s *Server) observeEngine(ctx context.Context, op string, sessionID uuid.UUID) func() {
	_, span := s.tracer.Start(ctx, "engine."+op,
		trace.WithAttributes(attribute.String("session.id", sessionID.String())))
	start := time.Now()
	return func() {
		s.metrics.ObserveEngine(op, time.Since(start))
		span.End()
	}
}
