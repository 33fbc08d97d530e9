// Package server exposes the curation engine over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bloomscroll/bloomfeed/curation"
	"github.com/bloomscroll/bloomfeed/ingest"
	"github.com/bloomscroll/bloomfeed/store"
	"github.com/bloomscroll/bloomfeed/vector"
)

// Config configures a new Server instance.
type Config struct {
	Engine   *curation.Engine
	Ingestor *ingest.Ingestor
	Cards    vector.Store
	Quotas   store.QuotaStore

	// Location is the daily-reset timezone, shared with the engine.
	Location *time.Location

	CORSOrigins []string

	// Registry receives the process and feed metrics; a private one is
	// created when nil.
	Registry *prometheus.Registry

	// Now is the reference clock; overridable in tests.
	Now func() time.Time
}

// Server is the bloomfeed HTTP API.
type Server struct {
	engine   *curation.Engine
	ingestor *ingest.Ingestor
	cards    vector.Store
	quotas   store.QuotaStore
	loc      *time.Location
	origins  []string
	registry *prometheus.Registry
	now      func() time.Time
	validate *validator.Validate
}

// New creates a new Server with the given configuration.
func New(cfg Config) *Server {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Server{
		engine:   cfg.Engine,
		ingestor: cfg.Ingestor,
		cards:    cfg.Cards,
		quotas:   cfg.Quotas,
		loc:      loc,
		origins:  origins,
		registry: registry,
		now:      now,
		validate: validator.New(),
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/feed", s.handleFeed)

		r.Route("/interactions", func(r chi.Router) {
			r.Post("/track", s.handleTrack)
			r.Get("/recent/{viewerID}", s.handleRecentReads)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Post("/", s.handleCardCreate)
			r.Get("/{id}", s.handleCardGet)
		})
	})

	return r
}
