// Package server exposes a tilepath engine over HTTP.
package server

import (
	"errors"
	"tilepath/pkg/tilepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ErrNilEngine is returned by NewRouter when no engine is configured
	ErrNilEngine = errors.New("router engine cannot be nil")
	// ErrNilRateLimiter is returned by NewRouter when no rate limiter is configured
	ErrNilRateLimiter = errors.New("router rate limiter cannot be nil")
)

// PathEngine is the engine surface used by the handlers.
// *tilepath.Engine satisfies it; tests substitute their own.
type PathEngine interface {
	Search(start, goal tilepath.Point) (tilepath.Result, error)
	FlowField(goals ...tilepath.Point) (*tilepath.FlowField, error)
	Weight(p tilepath.Point) (float64, error)
	SetWeight(p tilepath.Point, weight float64) error
	Stats() tilepath.Stats
}

var _ PathEngine = (*tilepath.Engine)(nil)

// RouterConfig contains the dependencies of the HTTP router
type RouterConfig struct {
	// Engine answers path queries (required)
	Engine PathEngine

	// Registry backs /metrics and receives the HTTP metrics.
	// If nil, a fresh registry is created.
	Registry *prometheus.Registry

	// RateLimiter guards the /v1 routes (required). The caller owns it and
	// must Stop it once the server is done.
	RateLimiter *IPRateLimiter

	// CORSOrigins lists allowed browser origins. If nil, only localhost is allowed.
	CORSOrigins []string

	// DisableLogging drops the request logger middleware
	DisableLogging bool
}

type routerHandlers struct {
	engine      PathEngine
	rateLimiter *IPRateLimiter
}

// NewRouter builds the HTTP router with its middleware and routes
func NewRouter(cfg RouterConfig) (*chi.Mux, error) {
	if cfg.Engine == nil {
		return nil, ErrNilEngine
	}
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		return nil, ErrNilRateLimiter
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	rejected := promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "tilepath_http_rate_limited_total",
		Help: "Requests rejected by the per-IP rate limiter",
	})
	rateLimiter.onReject = rejected.Inc

	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	h := &routerHandlers{
		engine:      cfg.Engine,
		rateLimiter: rateLimiter,
	}

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(rateLimiter.Middleware)

		r.Post("/path", h.handleFindPath)
		r.Post("/flow", h.handleFlow)
		r.Get("/stats", h.handleStats)
		r.Get("/cells/{x}/{y}", h.handleGetCell)
		r.Put("/cells/{x}/{y}", h.handlePutCell)
	})

	return r, nil
}
