// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package messaging

import (
	"errors"

	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/maputil"
	"github.com/ManuGH/pushedge/internal/ports"
)

var (
	ErrMissingECID     = errors.New("identity shared state has no experience cloud id")
	ErrMissingToken    = errors.New("event carries no push token")
	ErrMissingBundleID = errors.New("host application has no bundle identifier")
)

// platformFor picks the push platform from the messaging.useSandbox flag.
// An absent or mistyped flag selects production.
func platformFor(configuration map[string]any) string {
	if maputil.BoolOr(configuration, event.KeyUseSandbox, false) {
		return PlatformSandbox
	}
	return PlatformProduction
}

// BuildPushTokenSync builds the profile update payload that binds the push
// token of ev to the device ECID. The returned map is the value nested under
// the top-level "data" key of the edge event.
func BuildPushTokenSync(host ports.HostApp, identity, configuration map[string]any, ev event.Event) (map[string]any, error) {
	ecid, ok := maputil.NonEmptyString(identity, event.KeyECID)
	if !ok {
		return nil, ErrMissingECID
	}
	token, ok := maputil.NonEmptyString(ev.Data, event.KeyPushIdentifier)
	if !ok {
		return nil, ErrMissingToken
	}
	var appID string
	if host != nil {
		appID = host.BundleIdentifier()
	}
	if appID == "" {
		return nil, ErrMissingBundleID
	}

	detail := map[string]any{
		keyAppID:      appID,
		keyToken:      token,
		keyPlatform:   platformFor(configuration),
		keyDenylisted: false,
		keyIdentity: map[string]any{
			keyNamespace: map[string]any{keyCode: NamespaceECID},
			keyID:        ecid,
		},
	}
	return map[string]any{
		keyPushNotificationDetails: []any{detail},
	}, nil
}
