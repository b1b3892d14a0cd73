// Package api provides the HTTP API for the TripSync sync engine.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tripsync/tripsync/internal/api/handler"
	"github.com/tripsync/tripsync/internal/api/middleware"
	"github.com/tripsync/tripsync/internal/backend"
	"github.com/tripsync/tripsync/internal/chat"
	"github.com/tripsync/tripsync/internal/poll"
	"github.com/tripsync/tripsync/internal/signalbus"
	"github.com/tripsync/tripsync/internal/snapshot"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string

	// JWTSigningKey enables bearer auth on mutating endpoints when set.
	JWTSigningKey []byte

	Metrics *middleware.Metrics

	Schedulers map[string]*poll.Scheduler
	Backend    *backend.Client
	Snapshots  *snapshot.Service
	Broker     *signalbus.Broker
	Classifier *chat.Classifier
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "tripsync-syncd"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Schedulers, cfg.Backend, cfg.Snapshots)
	itineraryHandler := handler.NewItineraryHandler(cfg.Snapshots)
	chatHandler := handler.NewChatHandler(cfg.Classifier)
	signalHandler := handler.NewSignalHandler(cfg.Broker)

	// Auth is a no-op passthrough unless a signing key is configured.
	authMiddleware := passthrough
	if len(cfg.JWTSigningKey) > 0 {
		authMiddleware = middleware.Auth(cfg.JWTSigningKey)
	}

	signalRateLimit := middleware.RateLimitByIP(middleware.SignalRateLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Itinerary read endpoints
		r.Route("/itinerary", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/latest", itineraryHandler.Latest)
			r.Get("/render", itineraryHandler.Render)
		})

		// Chat message observation
		r.With(authMiddleware, middleware.RequireJSON, signalRateLimit).
			Post("/chat/messages", chatHandler.ObserveMessage)

		// Explicit itinerary request signal
		r.With(authMiddleware, signalRateLimit).
			Post("/signals/itinerary-request", signalHandler.ItineraryRequest)
	})

	return r
}

func passthrough(next http.Handler) http.Handler {
	return next
}
