// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package event defines the immutable event record exchanged between the hub
// and its extensions, plus the well-known type, source and key names.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a single lifecycle, identity or messaging occurrence.
// Order is assigned by the hub on admission and defines FIFO processing order;
// zero means the event was not admitted yet.
type Event struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	Data      map[string]any `json:"data,omitempty"`
	Order     uint64         `json:"order,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// New creates an event with a fresh unique identifier.
func New(name, typ, source string, data map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      typ,
		Source:    source,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Is reports whether the event carries the given type and source.
func (e Event) Is(typ, source string) bool {
	return e.Type == typ && e.Source == source
}

// HasData reports whether the event carries a payload.
func (e Event) HasData() bool {
	return e.Data != nil
}

// Key returns the listener key for a type/source pair.
func Key(typ, source string) string {
	return typ + "|" + source
}
