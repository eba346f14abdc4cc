// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes the HTTP surface of the daemon: event ingestion,
// shared state publication, status and probes.
package api

import (
	"context"
	"net/http"

	"github.com/ManuGH/pushedge/internal/api/middleware"
	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/health"
	"github.com/ManuGH/pushedge/internal/log"
	"github.com/ManuGH/pushedge/internal/sharedstate"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies on the /v1 routes.
const maxBodyBytes = 1 << 20

// EventHub is the part of the event hub the API drives.
type EventHub interface {
	Dispatch(ctx context.Context, ev event.Event) event.Event
	PublishState(owner string, data map[string]any) (uint64, error)
	PublishPendingState(owner string) (uint64, error)
	ResolvePendingState(owner string, data map[string]any) error
	Store() *sharedstate.Store
	CurrentOrder() uint64
	QueueDepth(name string) (int, bool)
	Running() bool
}

// PrivacyReporter reports the privacy state of the messaging extension.
type PrivacyReporter interface {
	PrivacyState() string
}

// PrivacyFunc adapts a function to PrivacyReporter.
type PrivacyFunc func() string

// PrivacyState implements PrivacyReporter.
func (f PrivacyFunc) PrivacyState() string { return f() }

// PrivacySettings persists the operator's privacy choice and republishes the
// configuration state. It returns the published state.
type PrivacySettings interface {
	SetPrivacy(ctx context.Context, status string) (map[string]any, error)
}

// Config configures the HTTP surface.
type Config struct {
	// RateLimitRPM limits /v1 requests per minute per client IP. Zero disables limiting.
	RateLimitRPM int
	// TracingService names the otelhttp server spans. Empty disables HTTP tracing.
	TracingService string
	// Extension is the name QueueDepth is reported for on /v1/status.
	Extension string
	// Settings backs PUT /v1/settings/privacy. Nil answers 503.
	Settings PrivacySettings
}

// Server holds the HTTP handlers.
type Server struct {
	cfg     Config
	hub     EventHub
	health  *health.Manager
	privacy PrivacyReporter
	router  chi.Router
	logger  zerolog.Logger
}

// New creates the server and builds its routes. privacy may be nil.
func New(cfg Config, hub EventHub, hm *health.Manager, privacy PrivacyReporter) *Server {
	s := &Server{
		cfg:     cfg,
		hub:     hub,
		health:  hm,
		privacy: privacy,
		logger:  log.WithComponent("api"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:  true,
		EnableLogging:  true,
		TracingService: s.cfg.TracingService,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		if s.cfg.RateLimitRPM > 0 {
			r.Use(middleware.IngestRateLimit(s.cfg.RateLimitRPM))
		}
		r.Use(limitBody)
		r.Post("/events", s.handleIngestEvent)
		r.Get("/state/{component}", s.handleGetState)
		r.Put("/state/{component}", s.handlePutState)
		r.Get("/status", s.handleStatus)
		r.Put("/settings/privacy", s.handlePutPrivacy)
	})
	return r
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}
