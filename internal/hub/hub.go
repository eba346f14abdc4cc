// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package hub hosts extensions: it admits events in FIFO order, feeds each
// extension from its own serialized queue and forwards every dispatched event
// to the outbound bus.
package hub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/pushedge/internal/bus"
	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/log"
	"github.com/ManuGH/pushedge/internal/ports"
	"github.com/ManuGH/pushedge/internal/sharedstate"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrDuplicateExtension is returned when an extension name is registered twice.
	ErrDuplicateExtension = errors.New("extension already registered")
	// ErrAlreadyRunning is returned when Run is called on a running hub.
	ErrAlreadyRunning = errors.New("hub already running")
)

// DefaultPublishTimeout bounds how long a dispatch waits on a slow bus subscriber.
const DefaultPublishTimeout = 250 * time.Millisecond

// Option configures a Hub.
type Option func(*Hub)

// WithPublishTimeout overrides DefaultPublishTimeout.
func WithPublishTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.publishTimeout = d
		}
	}
}

// WithUngated marks a type/source pair as deliverable while an extension
// queue is stopped. Configuration responses are ungated by default so that a
// stopped extension can still observe the opt-in that restarts it.
func WithUngated(typ, source string) Option {
	return func(h *Hub) { h.ungated[event.Key(typ, source)] = struct{}{} }
}

// Hub is the event hub. It is safe for concurrent use.
type Hub struct {
	store          *sharedstate.Store
	out            bus.Bus
	publishTimeout time.Duration
	ungated        map[string]struct{}
	logger         zerolog.Logger

	mu         sync.Mutex
	order      uint64
	containers []*container
	byName     map[string]*container
	runCtx     context.Context
	wg         sync.WaitGroup
}

// New creates a hub reading shared state from store and forwarding every
// dispatched event to out. out may be nil.
func New(store *sharedstate.Store, out bus.Bus, opts ...Option) *Hub {
	if store == nil {
		store = sharedstate.NewStore()
	}
	h := &Hub{
		store:          store,
		out:            out,
		publishTimeout: DefaultPublishTimeout,
		ungated: map[string]struct{}{
			event.Key(event.TypeConfiguration, event.SourceResponseContent): {},
		},
		byName: make(map[string]*container),
		logger: log.WithComponent("hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	store.OnChange(func(string) { h.wakeAll() })
	return h
}

// Store returns the shared state store backing the hub.
func (h *Hub) Store() *sharedstate.Store {
	return h.store
}

// Register adds ext and calls its OnRegistered hook. Extensions registered
// while the hub runs start processing immediately.
func (h *Hub) Register(ext ports.Extension) error {
	name := ext.Name()

	h.mu.Lock()
	if _, exists := h.byName[name]; exists {
		h.mu.Unlock()
		return fmt.Errorf("register %q: %w", name, ErrDuplicateExtension)
	}
	c := newContainer(h, ext)
	h.byName[name] = c
	h.containers = append(h.containers, c)
	runCtx := h.runCtx
	h.mu.Unlock()

	ext.OnRegistered(c)
	if runCtx != nil {
		h.startWorker(runCtx, c)
	}

	h.logger.Info().
		Str(log.FieldEvent, "hub.extension_registered").
		Str("extension", name).
		Msg("extension registered")
	return nil
}

// Run processes events until ctx is cancelled, then waits for every
// extension worker to return.
func (h *Hub) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.runCtx != nil {
		h.mu.Unlock()
		return ErrAlreadyRunning
	}
	h.runCtx = ctx
	containers := append([]*container(nil), h.containers...)
	h.mu.Unlock()

	for _, c := range containers {
		h.startWorker(ctx, c)
	}
	h.logger.Info().Str(log.FieldEvent, "hub.started").Int("extensions", len(containers)).Msg("event hub started")

	<-ctx.Done()
	h.wg.Wait()

	h.mu.Lock()
	h.runCtx = nil
	h.mu.Unlock()
	h.logger.Info().Str(log.FieldEvent, "hub.stopped").Msg("event hub stopped")
	return nil
}

// Running reports whether Run is active.
func (h *Hub) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.runCtx != nil
}

func (h *Hub) startWorker(ctx context.Context, c *container) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		c.run(ctx)
	}()
}

// Dispatch admits ev: it assigns the next order, queues the event for every
// extension listening to its type and source, and publishes it on the bus.
// The admitted event is returned.
func (h *Hub) Dispatch(ctx context.Context, ev event.Event) event.Event {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	h.mu.Lock()
	h.order++
	ev.Order = h.order
	containers := append([]*container(nil), h.containers...)
	h.mu.Unlock()

	key := event.Key(ev.Type, ev.Source)
	for _, c := range containers {
		c.enqueue(key, ev)
	}

	if h.out != nil {
		pubCtx, cancel := context.WithTimeout(ctx, h.publishTimeout)
		if err := h.out.Publish(pubCtx, bus.TopicFor(ev), ev); err != nil {
			h.logger.Warn().Err(err).
				Str(log.FieldEvent, "hub.publish_failed").
				Str(log.FieldEventID, ev.ID).
				Str(log.FieldTopic, bus.TopicFor(ev)).
				Msg("outbound publish failed")
		}
		cancel()
	}
	return ev
}

// CurrentOrder returns the order of the most recently admitted event.
func (h *Hub) CurrentOrder() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.order
}

// PublishState sets owner's shared state at the current event order.
func (h *Hub) PublishState(owner string, data map[string]any) (uint64, error) {
	version := h.CurrentOrder()
	if err := h.store.Set(owner, data, version); err != nil {
		return 0, err
	}
	return version, nil
}

// PublishPendingState announces owner's shared state at the current order.
func (h *Hub) PublishPendingState(owner string) (uint64, error) {
	version := h.CurrentOrder()
	if err := h.store.SetPending(owner, version); err != nil {
		return 0, err
	}
	return version, nil
}

// ResolvePendingState fills in owner's newest pending shared state.
func (h *Hub) ResolvePendingState(owner string, data map[string]any) error {
	return h.store.Resolve(owner, data)
}

// QueueDepth returns the number of events waiting for the named extension.
func (h *Hub) QueueDepth(name string) (int, bool) {
	h.mu.Lock()
	c, ok := h.byName[name]
	h.mu.Unlock()
	if !ok {
		return 0, false
	}
	return c.depth(), true
}

func (h *Hub) wakeAll() {
	h.mu.Lock()
	containers := append([]*container(nil), h.containers...)
	h.mu.Unlock()
	for _, c := range containers {
		c.signal()
	}
}

func (h *Hub) isUngated(key string) bool {
	_, ok := h.ungated[key]
	return ok
}
