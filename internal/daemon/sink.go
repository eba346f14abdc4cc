// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"sync/atomic"

	"github.com/ManuGH/pushedge/internal/bus"
	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/log"
	"github.com/rs/zerolog"
)

// EdgeSink drains outbound edge request events from the bus. The daemon has
// no network forwarder; it records and logs every event it receives.
type EdgeSink struct {
	sub       bus.Subscriber
	delivered atomic.Uint64
	last      atomic.Pointer[event.Event]
	logger    zerolog.Logger
}

// NewEdgeSink subscribes to the edge request topic of b.
func NewEdgeSink(ctx context.Context, b bus.Bus) (*EdgeSink, error) {
	sub, err := b.Subscribe(ctx, event.Key(event.TypeEdge, event.SourceRequestContent))
	if err != nil {
		return nil, err
	}
	return &EdgeSink{sub: sub, logger: log.WithComponent("edge-sink")}, nil
}

// Run drains events until ctx is cancelled or the bus is closed.
func (s *EdgeSink) Run(ctx context.Context) error {
	defer func() { _ = s.sub.Close() }()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-s.sub.C():
			if !ok {
				return nil
			}
			s.delivered.Add(1)
			s.last.Store(&ev)
			s.logger.Info().
				Str(log.FieldEvent, "edge.delivered").
				Str(log.FieldEventID, ev.ID).
				Str(log.FieldEventName, ev.Name).
				Uint64(log.FieldEventOrder, ev.Order).
				Interface("payload", ev.Data).
				Msg("edge event delivered")
		}
	}
}

// Delivered returns the number of events received.
func (s *EdgeSink) Delivered() uint64 {
	return s.delivered.Load()
}

// Last returns the most recent event received.
func (s *EdgeSink) Last() (event.Event, bool) {
	ev := s.last.Load()
	if ev == nil {
		return event.Event{}, false
	}
	return *ev, true
}
