// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package messaging

import (
	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/ports"
	"github.com/ManuGH/pushedge/internal/sharedstate"
)

// Readiness is the outcome of a gate check. Configuration and Identity are
// only populated when Ready is true.
type Readiness struct {
	Ready         bool
	Configuration map[string]any
	Identity      map[string]any
	// Blocking names the first shared state owner that was not set.
	Blocking sharedstate.Snapshot
}

// Gate checks that the configuration and identity shared states are resolved
// at an event's causal point.
type Gate struct {
	states ports.StateReader
}

func NewGate(states ports.StateReader) *Gate {
	return &Gate{states: states}
}

// Check fetches both snapshots for ev. It never retries; the hub re-offers
// the event once shared state changes.
func (g *Gate) Check(ev event.Event) Readiness {
	if g == nil || g.states == nil {
		return Readiness{Blocking: sharedstate.Snapshot{Owner: event.StateConfiguration, Status: sharedstate.StatusNone}}
	}
	cfg := g.states.SharedState(event.StateConfiguration, ev)
	if !cfg.Usable() {
		return Readiness{Blocking: cfg}
	}
	id := g.states.SharedState(event.StateIdentity, ev)
	if !id.Usable() {
		return Readiness{Blocking: id}
	}
	return Readiness{Ready: true, Configuration: cfg.Data, Identity: id.Data}
}
