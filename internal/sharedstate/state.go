// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sharedstate keeps the versioned state publications that extensions
// read at an event's causal point.
package sharedstate

// Status is the resolution status of a snapshot.
type Status string

const (
	// StatusNone means the owner never published anything.
	StatusNone Status = "none"
	// StatusPending means a publication was announced but its data is not known yet.
	StatusPending Status = "pending"
	// StatusSet means the data is known. Only set snapshots are usable.
	StatusSet Status = "set"
)

// Snapshot is one versioned publication of an owner's state.
type Snapshot struct {
	Owner   string         `json:"owner"`
	Status  Status         `json:"status"`
	Version uint64         `json:"version"`
	Data    map[string]any `json:"data,omitempty"`
}

// Usable reports whether the snapshot is resolved.
func (s Snapshot) Usable() bool {
	return s.Status == StatusSet
}
