// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"

	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/maputil"
	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalidEdgeSettings is returned for edge settings with malformed known keys.
var ErrInvalidEdgeSettings = errors.New("invalid edge settings")

// EdgeSettings is the operator-maintained configuration published as the
// configuration shared state. Keys other than the named ones are carried
// through unchanged.
type EdgeSettings struct {
	Privacy      string         `yaml:"global.privacy,omitempty"`
	UseSandbox   *bool          `yaml:"messaging.useSandbox,omitempty"`
	EventDataset string         `yaml:"messaging.eventDataset,omitempty"`
	Extra        map[string]any `yaml:",inline"`
}

// LoadEdgeSettings reads and validates the edge settings file at path.
func LoadEdgeSettings(path string) (EdgeSettings, error) {
	var s EdgeSettings
	if err := decodeStrictYAML(path, &s); err != nil {
		return EdgeSettings{}, err
	}
	if err := s.Validate(); err != nil {
		return EdgeSettings{}, err
	}
	return s, nil
}

// SaveEdgeSettings validates s and atomically replaces the file at path.
func SaveEdgeSettings(path string, s EdgeSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal edge settings: %w", err)
	}
	// renameio writes to a temp file in the same directory, fsyncs and renames,
	// so the watcher never observes a partially written file.
	if err := renameio.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write edge settings: %w", err)
	}
	return nil
}

// Validate rejects privacy values other than the three known statuses.
func (s EdgeSettings) Validate() error {
	switch s.Privacy {
	case "", event.PrivacyOptedIn, event.PrivacyOptedOut, event.PrivacyUnknown:
		return nil
	default:
		return fmt.Errorf("%w: %s %q", ErrInvalidEdgeSettings, event.KeyPrivacyStatus, s.Privacy)
	}
}

// State returns the flat key/value map published as configuration state.
// Named fields win over identically named extra keys.
func (s EdgeSettings) State() map[string]any {
	known := make(map[string]any, 3)
	if s.Privacy != "" {
		known[event.KeyPrivacyStatus] = s.Privacy
	}
	if s.UseSandbox != nil {
		known[event.KeyUseSandbox] = *s.UseSandbox
	}
	if s.EventDataset != "" {
		known[event.KeyEventDataset] = s.EventDataset
	}
	return maputil.Merge(maputil.DeepClone(s.Extra), known)
}
