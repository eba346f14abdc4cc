// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/log"
	"github.com/ManuGH/pushedge/internal/metrics"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

const dropLogEvery = 100

// MemoryBus is an in-memory pub/sub. It is not durable: a publish blocks on a
// full subscriber until the publish context ends, then the event is dropped
// for that subscriber.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string][]chan event.Event
	buffer int
	drops  atomic.Uint64
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return NewMemoryBusWithBuffer(DefaultBuffer)
}

// NewMemoryBusWithBuffer creates a bus whose subscribers buffer n events.
func NewMemoryBusWithBuffer(n int) *MemoryBus {
	if n < 0 {
		n = 0
	}
	return &MemoryBus{subs: make(map[string][]chan event.Event), buffer: n}
}

// ErrClosed is returned when publishing or subscribing on a closed bus.
var ErrClosed = errors.New("bus closed")

func publishDropReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "context_done"
	}
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, ev event.Event) error {
	if ctx == nil {
		return fmt.Errorf("publish context is nil")
	}
	// The read lock is held across sends so Close cannot close a channel
	// that is being written to.
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	for _, ch := range b.subs[topic] {
		select {
		case ch <- ev:
			metrics.IncBusPublished(topic)
		case <-ctx.Done():
			reason := publishDropReason(ctx.Err())
			metrics.IncBusDropReason(topic, reason)
			count := b.drops.Add(1)
			if count%dropLogEvery == 1 {
				logger := log.WithComponent("bus")
				logger.Warn().
					Str(log.FieldTopic, topic).
					Str(log.FieldReason, reason).
					Str(log.FieldEventID, ev.ID).
					Uint64("dropped", count).
					Msg("memory bus failed to publish due to context cancellation")
			}
			return fmt.Errorf("publish topic %q: %w", topic, ctx.Err())
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, topic string) (Subscriber, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	ch := make(chan event.Event, b.buffer)
	b.subs[topic] = append(b.subs[topic], ch)
	return &memSub{b: b, topic: topic, ch: ch}, nil
}

// Close closes every subscriber channel. Later publishes fail with ErrClosed.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for topic, lst := range b.subs {
		for _, ch := range lst {
			close(ch)
		}
		delete(b.subs, topic)
	}
}

// Dropped returns the number of events dropped so far.
func (b *MemoryBus) Dropped() uint64 {
	return b.drops.Load()
}

type memSub struct {
	b     *MemoryBus
	topic string
	ch    chan event.Event
	once  sync.Once
}

func (s *memSub) C() <-chan event.Event {
	return s.ch
}

func (s *memSub) Close() error {
	s.once.Do(func() {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()

		lst, ok := s.b.subs[s.topic]
		if !ok {
			// already closed by MemoryBus.Close
			return
		}
		out := lst[:0]
		found := false
		for _, c := range lst {
			if c != s.ch {
				out = append(out, c)
			} else {
				found = true
			}
		}
		if len(out) == 0 {
			delete(s.b.subs, s.topic)
		} else {
			s.b.subs[s.topic] = out
		}
		if found {
			close(s.ch)
		}
	})
	return nil
}

var _ Bus = (*MemoryBus)(nil)
