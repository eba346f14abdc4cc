// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon wires the runtime together and owns its lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/ManuGH/pushedge/internal/api"
	"github.com/ManuGH/pushedge/internal/bus"
	"github.com/ManuGH/pushedge/internal/config"
	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/health"
	"github.com/ManuGH/pushedge/internal/hub"
	plog "github.com/ManuGH/pushedge/internal/log"
	"github.com/ManuGH/pushedge/internal/messaging"
	"github.com/ManuGH/pushedge/internal/ports"
	"github.com/ManuGH/pushedge/internal/sharedstate"
	"github.com/ManuGH/pushedge/internal/telemetry"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// App owns the long-lived runtime: the event hub with the messaging
// extension, the edge settings watcher, the edge sink and the HTTP server.
type App struct {
	cfg    config.AppConfig
	logger zerolog.Logger

	tracing   *telemetry.Provider
	store     *sharedstate.Store
	bus       *bus.MemoryBus
	hub       *hub.Hub
	messaging *messaging.Extension
	watcher   *config.EdgeWatcher
	sink      *EdgeSink
	health    *health.Manager
	server    *http.Server

	mu       sync.Mutex
	started  bool
	listener net.Listener
	ready    chan struct{}
}

// New builds the runtime from cfg. Nothing runs until Run is called.
func New(ctx context.Context, cfg config.AppConfig) (*App, error) {
	tracing, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	a := &App{
		cfg:     cfg,
		logger:  plog.WithComponent("daemon"),
		tracing: tracing,
		store:   sharedstate.NewStore(),
		bus:     bus.NewMemoryBusWithBuffer(cfg.Hub.BusBuffer),
		ready:   make(chan struct{}),
	}
	a.hub = hub.New(a.store, a.bus, hub.WithPublishTimeout(cfg.Hub.PublishTimeout))

	a.messaging = messaging.New(ports.StaticHostApp(cfg.BundleID))
	if err := a.hub.Register(a.messaging); err != nil {
		return nil, fmt.Errorf("register messaging: %w", err)
	}

	a.sink, err = NewEdgeSink(ctx, a.bus)
	if err != nil {
		return nil, fmt.Errorf("subscribe edge sink: %w", err)
	}

	if cfg.EdgeSettingsPath != "" {
		a.watcher = config.NewEdgeWatcher(cfg.EdgeSettingsPath, a.hub)
	}

	a.health = health.NewManager(cfg.Version)
	a.health.RegisterChecker(health.NewRunningChecker("hub", a.hub.Running))
	a.health.RegisterChecker(health.NewStateChecker("configuration", event.StateConfiguration, a.store))
	a.health.RegisterChecker(health.NewFileChecker("edge_settings", cfg.EdgeSettingsPath))

	tracingService := ""
	if cfg.Telemetry.Enabled {
		tracingService = cfg.LogService
	}
	rpm := 0
	if cfg.RateLimit.Enabled {
		rpm = cfg.RateLimit.RequestsPerMinute
	}
	apiCfg := api.Config{
		RateLimitRPM:   rpm,
		TracingService: tracingService,
		Extension:      messaging.ExtensionName,
	}
	if a.watcher != nil {
		apiCfg.Settings = a.watcher
	}
	srv := api.New(apiCfg, a.hub, a.health, api.PrivacyFunc(func() string { return string(a.messaging.PrivacyState()) }))

	a.server = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           srv.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout / 2,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	return a, nil
}

// Hub returns the event hub.
func (a *App) Hub() *hub.Hub { return a.hub }

// Sink returns the edge sink.
func (a *App) Sink() *EdgeSink { return a.sink }

// Messaging returns the hosted messaging extension.
func (a *App) Messaging() *messaging.Extension { return a.messaging }

// Ready is closed once the HTTP listener accepts connections.
func (a *App) Ready() <-chan struct{} { return a.ready }

// Addr returns the bound listen address, or "" before Run has bound it.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Run starts every subsystem and blocks until ctx is cancelled or one of
// them fails. Shutdown is bounded by the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}
	a.started = true
	a.mu.Unlock()

	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.Server.ListenAddr, err)
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.hub.Run(gctx) })
	g.Go(func() error { return a.sink.Run(gctx) })
	if a.watcher != nil {
		g.Go(func() error {
			if err := a.watcher.Run(gctx); err != nil {
				return fmt.Errorf("edge settings watcher: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		a.logger.Info().
			Str(plog.FieldEvent, "api.listening").
			Str("addr", ln.Addr().String()).
			Msg("API server listening (HTTP)")
		close(a.ready)
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("API server (HTTP): %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown(ctx)
	})

	err = g.Wait()
	if err != nil {
		a.logger.Error().Err(err).Str(plog.FieldEvent, "daemon.failed").Msg("daemon stopped with error")
		return err
	}
	a.logger.Info().Str(plog.FieldEvent, "daemon.stopped").Msg("daemon stopped cleanly")
	return nil
}

// shutdown stops the HTTP server, closes the bus and flushes traces.
func (a *App) shutdown(ctx context.Context) error {
	a.logger.Info().Str(plog.FieldEvent, "daemon.shutdown").Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("API server shutdown: %w", err))
	}
	a.bus.Close()
	if err := a.tracing.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}
