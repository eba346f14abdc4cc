// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ports holds the narrow contracts between the event hub and the
// extensions it hosts.
package ports

import (
	"context"

	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/sharedstate"
)

// Listener handles one delivered event.
type Listener func(ctx context.Context, ev event.Event)

// Registrar accepts listeners keyed by event type and source.
type Registrar interface {
	RegisterListener(typ, source string, l Listener)
}

// StateReader fetches a shared state snapshot at the causal point of ev.
type StateReader interface {
	SharedState(owner string, ev event.Event) sharedstate.Snapshot
}

// QueueControl suspends and resumes intake of the extension's event queue.
type QueueControl interface {
	Start()
	Stop()
}

// Dispatcher submits an event to the hub. Delivery is fire-and-forget.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev event.Event)
}

// Runtime is the per-extension handle handed out at registration.
type Runtime interface {
	Registrar
	StateReader
	QueueControl
	Dispatcher
}

// Extension is a component hosted by the hub.
type Extension interface {
	Name() string
	OnRegistered(rt Runtime)
	// ReadyForEvent is consulted before every delivery. Returning false keeps
	// the event at the head of the extension queue until shared state changes.
	ReadyForEvent(ev event.Event) bool
}

// HostApp exposes facts about the host application.
type HostApp interface {
	BundleIdentifier() string
}

// StaticHostApp is a HostApp with a fixed bundle identifier.
type StaticHostApp string

// BundleIdentifier implements HostApp.
func (s StaticHostApp) BundleIdentifier() string { return string(s) }
