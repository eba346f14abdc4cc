// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package hub

import (
	"context"
	"fmt"
	"sync"

	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/log"
	"github.com/ManuGH/pushedge/internal/metrics"
	"github.com/ManuGH/pushedge/internal/ports"
	"github.com/ManuGH/pushedge/internal/sharedstate"
	"github.com/rs/zerolog"
)

// container is the runtime of one extension: its listeners and its queue.
type container struct {
	hub    *Hub
	ext    ports.Extension
	name   string
	logger zerolog.Logger

	mu        sync.Mutex
	listeners map[string][]ports.Listener
	queue     []event.Event
	started   bool
	wake      chan struct{}
}

func newContainer(h *Hub, ext ports.Extension) *container {
	return &container{
		hub:       h,
		ext:       ext,
		name:      ext.Name(),
		logger:    log.WithComponent("hub").With().Str("extension", ext.Name()).Logger(),
		listeners: make(map[string][]ports.Listener),
		started:   true,
		wake:      make(chan struct{}, 1),
	}
}

// RegisterListener implements ports.Registrar.
func (c *container) RegisterListener(typ, source string, l ports.Listener) {
	key := event.Key(typ, source)
	c.mu.Lock()
	c.listeners[key] = append(c.listeners[key], l)
	c.mu.Unlock()
}

// SharedState implements ports.StateReader.
func (c *container) SharedState(owner string, ev event.Event) sharedstate.Snapshot {
	return c.hub.store.Get(owner, ev.Order)
}

// Dispatch implements ports.Dispatcher.
func (c *container) Dispatch(ctx context.Context, ev event.Event) {
	c.hub.Dispatch(ctx, ev)
}

// Start implements ports.QueueControl.
func (c *container) Start() {
	c.setStarted(true)
}

// Stop implements ports.QueueControl. Events already delivered finish;
// queued gated events wait for Start.
func (c *container) Stop() {
	c.setStarted(false)
}

func (c *container) setStarted(v bool) {
	c.mu.Lock()
	changed := c.started != v
	c.started = v
	c.mu.Unlock()
	if changed {
		c.logger.Info().
			Str(log.FieldEvent, "hub.queue_state").
			Bool("started", v).
			Msg("extension queue state changed")
	}
	c.signal()
}

func (c *container) enqueue(key string, ev event.Event) {
	c.mu.Lock()
	if len(c.listeners[key]) == 0 {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, ev)
	depth := len(c.queue)
	c.mu.Unlock()

	metrics.HubQueueDepth.WithLabelValues(c.name).Set(float64(depth))
	c.signal()
}

func (c *container) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *container) depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// next returns the index of the event to offer: the head when the queue is
// started, otherwise the first ungated event.
func (c *container) next() (int, event.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return 0, event.Event{}, false
	}
	if c.started {
		return 0, c.queue[0], true
	}
	for i, ev := range c.queue {
		if c.hub.isUngated(event.Key(ev.Type, ev.Source)) {
			return i, ev, true
		}
	}
	return 0, event.Event{}, false
}

func (c *container) take(i int) []ports.Listener {
	c.mu.Lock()
	ev := c.queue[i]
	c.queue = append(c.queue[:i], c.queue[i+1:]...)
	depth := len(c.queue)
	ls := append([]ports.Listener(nil), c.listeners[event.Key(ev.Type, ev.Source)]...)
	c.mu.Unlock()

	metrics.HubQueueDepth.WithLabelValues(c.name).Set(float64(depth))
	return ls
}

func (c *container) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if i, ev, ok := c.next(); ok && c.ext.ReadyForEvent(ev) {
			listeners := c.take(i)
			c.deliver(ctx, ev, listeners)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
		}
	}
}

func (c *container) deliver(ctx context.Context, ev event.Event, listeners []ports.Listener) {
	evCtx := log.ContextWithEventID(ctx, ev.ID)
	for _, l := range listeners {
		c.invoke(evCtx, ev, l)
	}
	metrics.HubDeliveredTotal.WithLabelValues(c.name).Inc()
}

func (c *container) invoke(ctx context.Context, ev event.Event, l ports.Listener) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Str(log.FieldEvent, "hub.listener_panic").
				Str(log.FieldEventID, ev.ID).
				Str("panic", fmt.Sprint(r)).
				Msg("listener panicked, event skipped")
		}
	}()
	l(ctx, ev)
}
