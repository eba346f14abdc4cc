// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package messaging

import (
	"context"

	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/log"
	"github.com/ManuGH/pushedge/internal/metrics"
	"github.com/ManuGH/pushedge/internal/ports"
)

// Emitter wraps built payloads into edge request events.
type Emitter struct {
	dispatcher ports.Dispatcher
}

func NewEmitter(d ports.Dispatcher) *Emitter {
	return &Emitter{dispatcher: d}
}

// Emit dispatches data as an edge request-content event named name.
// Ownership of data passes to the dispatcher.
func (e *Emitter) Emit(ctx context.Context, kind, name string, data map[string]any) event.Event {
	ev := event.New(name, event.TypeEdge, event.SourceRequestContent, data)
	if e == nil || e.dispatcher == nil {
		logger := log.WithComponentFromContext(ctx, "emitter")
		logger.Warn().
			Str(log.FieldEvent, "emit.no_dispatcher").
			Str(log.FieldEventName, name).
			Msg("no dispatcher attached, dropping edge event")
		return ev
	}
	e.dispatcher.Dispatch(ctx, ev)
	metrics.RecordEdgeDispatched(kind)
	return ev
}
