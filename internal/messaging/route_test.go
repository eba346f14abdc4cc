// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package messaging

import (
	"testing"

	"github.com/ManuGH/pushedge/internal/event"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	identity := RouteInput{Type: event.TypeGenericIdentity, Source: event.SourceRequestContent, HasPayload: true, Ready: true}
	messaging := RouteInput{Type: event.TypeMessaging, Source: event.SourceRequestContent, HasPayload: true, Ready: true}

	with := func(in RouteInput, mutate func(*RouteInput)) RouteInput {
		mutate(&in)
		return in
	}

	tests := []struct {
		name string
		in   RouteInput
		want Decision
	}{
		{"no payload wins over everything", with(identity, func(in *RouteInput) {
			in.HasPayload = false
			in.Ready = false
		}), Decision{RouteIgnore, ReasonNoPayload}},
		{"not ready", with(messaging, func(in *RouteInput) {
			in.Ready = false
			in.Dataset = "ds"
		}), Decision{RouteIgnore, ReasonNotReady}},
		{"identity opted in", with(identity, func(in *RouteInput) {
			in.PrivacyStatus = event.PrivacyOptedIn
		}), Decision{RoutePushTokenSync, ReasonRouteIdentity}},
		{"identity opted out", with(identity, func(in *RouteInput) {
			in.PrivacyStatus = event.PrivacyOptedOut
		}), Decision{RouteIgnore, ReasonPrivacyBlocked}},
		{"identity unknown privacy", identity, Decision{RouteIgnore, ReasonPrivacyBlocked}},
		{"messaging with dataset", with(messaging, func(in *RouteInput) {
			in.Dataset = "ds-42"
		}), Decision{RouteTracking, ReasonRouteMessaging}},
		{"messaging without dataset", messaging, Decision{RouteIgnore, ReasonNoDataset}},
		{"identity type wrong source", with(identity, func(in *RouteInput) {
			in.Source = event.SourceResponseContent
			in.PrivacyStatus = event.PrivacyOptedIn
		}), Decision{RouteIgnore, ReasonUnhandled}},
		{"unrelated type", RouteInput{Type: event.TypeEdge, Source: event.SourceRequestContent, HasPayload: true, Ready: true},
			Decision{RouteIgnore, ReasonUnhandled}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.in))
		})
	}
}

func TestNewRouteInputReadsConfiguration(t *testing.T) {
	ev := trackingRequest(map[string]any{})
	in := NewRouteInput(ev, Readiness{
		Ready: true,
		Configuration: map[string]any{
			event.KeyPrivacyStatus: event.PrivacyOptedIn,
			event.KeyEventDataset:  "ds-1",
		},
	})
	assert.True(t, in.HasPayload)
	assert.Equal(t, event.PrivacyOptedIn, in.PrivacyStatus)
	assert.Equal(t, "ds-1", in.Dataset)

	notReady := NewRouteInput(ev, Readiness{Configuration: map[string]any{event.KeyEventDataset: "ds-1"}})
	assert.Empty(t, notReady.Dataset, "configuration is ignored when not ready")
}

func TestRouteString(t *testing.T) {
	assert.Equal(t, "ignore", RouteIgnore.String())
	assert.Equal(t, "push_token_sync", RoutePushTokenSync.String())
	assert.Equal(t, "tracking", RouteTracking.String())
}
