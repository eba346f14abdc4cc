// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package messaging

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/maputil"
)

var (
	ErrMissingEventType = errors.New("event carries no tracking event type")
	ErrMissingMessageID = errors.New("event carries no message id")
	ErrMissingDataset   = errors.New("configuration has no experience event dataset")
)

// Soft stops of the enrichment step. The payload is still dispatched.
const (
	DegradedNoAdobeXDM = "adobe_xdm_missing"
	DegradedNoMixins   = "mixins_missing"
	DegradedNoCJM      = "cjm_missing"
)

var defaultCJM = sync.OnceValue(func() map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(defaultCJMJSON), &m); err != nil {
		panic("messaging: invalid default cjm: " + err.Error())
	}
	return m
})

// TrackingPayload is the result of BuildTracking.
type TrackingPayload struct {
	// Data is the edge event payload: {"xdm": ..., "meta": {...}}.
	Data map[string]any
	// Degraded lists the soft stops hit while enriching, in order.
	Degraded []string
}

// BuildTracking builds the push interaction tracking payload for ev.
func BuildTracking(configuration map[string]any, ev event.Event) (TrackingPayload, error) {
	dataset, ok := maputil.NonEmptyString(configuration, event.KeyEventDataset)
	if !ok {
		return TrackingPayload{}, ErrMissingDataset
	}

	xdm, err := trackingBase(configuration, ev)
	if err != nil {
		return TrackingPayload{}, err
	}
	xdm = withApplicationData(xdm, ev)

	var degraded string
	xdm, degraded = withProviderData(xdm, ev)

	out := TrackingPayload{
		Data: map[string]any{
			keyXDM: xdm,
			keyMeta: map[string]any{
				keyCollect: map[string]any{keyDatasetID: dataset},
			},
		},
	}
	if degraded != "" {
		out.Degraded = append(out.Degraded, degraded)
	}
	return out, nil
}

func trackingBase(configuration map[string]any, ev event.Event) (map[string]any, error) {
	eventType, ok := maputil.NonEmptyString(ev.Data, event.KeyTrackEventType)
	if !ok {
		return nil, ErrMissingEventType
	}
	messageID, ok := maputil.NonEmptyString(ev.Data, event.KeyTrackMessageID)
	if !ok {
		return nil, ErrMissingMessageID
	}

	tracking := map[string]any{
		keyPushProviderMessageID: messageID,
		keyPushProvider:          platformFor(configuration),
	}
	if actionID, ok := maputil.NonEmptyString(ev.Data, event.KeyTrackActionID); ok {
		tracking[keyCustomAction] = map[string]any{keyActionID: actionID}
	}
	return map[string]any{
		keyEventType:                eventType,
		keyPushNotificationTracking: tracking,
	}, nil
}

func withApplicationData(xdm map[string]any, ev event.Event) map[string]any {
	launches := 0
	if maputil.BoolOr(ev.Data, event.KeyTrackApplicationOpened, false) {
		launches = 1
	}
	return maputil.Merge(xdm, map[string]any{
		keyApplication: map[string]any{
			keyLaunches: map[string]any{keyValue: launches},
		},
	})
}

// withProviderData merges the adobe_xdm mixins (or the cjm fallback) into xdm
// and injects the default customer journey record. It returns the soft stop
// reason when the enrichment could not be completed.
func withProviderData(xdm map[string]any, ev event.Event) (map[string]any, string) {
	adobe, ok := maputil.Map(ev.Data, event.KeyAdobeXDM)
	if !ok {
		return xdm, DegradedNoAdobeXDM
	}
	mixins, ok := maputil.Map(adobe, event.KeyMixins)
	if !ok {
		mixins, ok = maputil.Map(adobe, event.KeyCJM)
	}
	if !ok {
		return xdm, DegradedNoMixins
	}
	merged := maputil.Merge(xdm, mixins)

	cjm, ok := maputil.Path(merged, keyExperience, keyCustomerJourney)
	if !ok {
		return merged, DegradedNoCJM
	}

	// The incoming journey record is the override: its values win over the
	// injected defaults, which only fill keys the record lacks.
	experience, _ := maputil.Map(merged, keyExperience)
	experience = maputil.Clone(experience)
	experience[keyCustomerJourney] = maputil.Merge(maputil.DeepClone(defaultCJM()), cjm)
	merged[keyExperience] = experience
	return merged, ""
}
