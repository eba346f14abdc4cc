// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package messaging

import (
	"testing"

	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/ports"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestBuildPushTokenSyncShape(t *testing.T) {
	got, err := BuildPushTokenSync(
		ports.StaticHostApp("com.example.app"),
		map[string]any{event.KeyECID: "ecid123"},
		map[string]any{event.KeyUseSandbox: false},
		identityRequest("tok-abc"),
	)
	require.NoError(t, err)

	want := map[string]any{
		keyPushNotificationDetails: []any{
			map[string]any{
				keyAppID:      "com.example.app",
				keyToken:      "tok-abc",
				keyPlatform:   PlatformProduction,
				keyDenylisted: false,
				keyIdentity: map[string]any{
					keyNamespace: map[string]any{keyCode: NamespaceECID},
					keyID:        "ecid123",
				},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("push payload mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPushTokenSyncValidationOrder(t *testing.T) {
	// both identity and token are missing: identity is checked first
	_, err := BuildPushTokenSync(ports.StaticHostApp("app"), nil, nil, identityRequest(""))
	require.ErrorIs(t, err, ErrMissingECID)

	_, err = BuildPushTokenSync(nil, map[string]any{event.KeyECID: "e"}, nil, identityRequest("tok"))
	require.ErrorIs(t, err, ErrMissingBundleID)

	_, err = BuildPushTokenSync(ports.StaticHostApp("app"), map[string]any{event.KeyECID: "e"}, nil, identityRequest(nil))
	require.ErrorIs(t, err, ErrMissingToken)
}
