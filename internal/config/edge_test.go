// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"testing"

	"github.com/ManuGH/pushedge/internal/event"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLoadEdgeSettingsState(t *testing.T) {
	path := writeFile(t, t.TempDir(), "edge.yaml", `
global.privacy: optedin
messaging.useSandbox: true
messaging.eventDataset: ds-1
experienceCloud.org: ORG@AdobeOrg
rules:
  enabled: true
`)
	s, err := LoadEdgeSettings(path)
	require.NoError(t, err)

	want := map[string]any{
		event.KeyPrivacyStatus: "optedin",
		event.KeyUseSandbox:    true,
		event.KeyEventDataset:  "ds-1",
		"experienceCloud.org":  "ORG@AdobeOrg",
		"rules":                map[string]any{"enabled": true},
	}
	if diff := cmp.Diff(want, s.State()); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestEdgeSettingsOmitsUnsetKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), "edge.yaml", "global.privacy: optedout\n")
	s, err := LoadEdgeSettings(path)
	require.NoError(t, err)
	if diff := cmp.Diff(map[string]any{event.KeyPrivacyStatus: "optedout"}, s.State()); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestEdgeSettingsRejectsUnknownPrivacy(t *testing.T) {
	path := writeFile(t, t.TempDir(), "edge.yaml", "global.privacy: sometimes\n")
	_, err := LoadEdgeSettings(path)
	require.ErrorIs(t, err, ErrInvalidEdgeSettings)
}

func TestEdgeSettingsStateIsACopy(t *testing.T) {
	s := EdgeSettings{Extra: map[string]any{"nested": map[string]any{"k": "v"}}}
	got := s.State()
	got["nested"].(map[string]any)["k"] = "changed"
	require.Equal(t, "v", s.Extra["nested"].(map[string]any)["k"])
}

func TestSaveEdgeSettingsPreservesExtraKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), "edge.yaml", "global.privacy: optedin\nrules:\n  enabled: true\n")
	s, err := LoadEdgeSettings(path)
	require.NoError(t, err)

	s.Privacy = event.PrivacyOptedOut
	require.NoError(t, SaveEdgeSettings(path, s))

	reloaded, err := LoadEdgeSettings(path)
	require.NoError(t, err)
	want := map[string]any{
		event.KeyPrivacyStatus: "optedout",
		"rules":                map[string]any{"enabled": true},
	}
	if diff := cmp.Diff(want, reloaded.State()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveEdgeSettingsRejectsInvalidPrivacy(t *testing.T) {
	path := writeFile(t, t.TempDir(), "edge.yaml", "global.privacy: optedin\n")
	err := SaveEdgeSettings(path, EdgeSettings{Privacy: "maybe"})
	require.ErrorIs(t, err, ErrInvalidEdgeSettings)

	s, err := LoadEdgeSettings(path)
	require.NoError(t, err)
	require.Equal(t, event.PrivacyOptedIn, s.Privacy)
}
