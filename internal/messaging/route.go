// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package messaging

import (
	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/maputil"
)

// Route is the processing path chosen for an inbound request event.
type Route int

const (
	RouteIgnore Route = iota
	RoutePushTokenSync
	RouteTracking
)

func (r Route) String() string {
	switch r {
	case RoutePushTokenSync:
		return "push_token_sync"
	case RouteTracking:
		return "tracking"
	default:
		return "ignore"
	}
}

// Classification reasons.
const (
	ReasonNoPayload      = "no_payload"
	ReasonNotReady       = "not_ready"
	ReasonPrivacyBlocked = "privacy_blocked"
	ReasonNoDataset      = "no_dataset"
	ReasonUnhandled      = "unhandled"
	ReasonRouteIdentity  = "generic_identity"
	ReasonRouteMessaging = "messaging_request"
)

// RouteInput is everything the classification looks at.
type RouteInput struct {
	Type          string
	Source        string
	HasPayload    bool
	Ready         bool
	PrivacyStatus string
	Dataset       string
}

// Decision is the classification result.
type Decision struct {
	Route  Route
	Reason string
}

// NewRouteInput derives the classification input from an event and a gate result.
func NewRouteInput(ev event.Event, r Readiness) RouteInput {
	in := RouteInput{
		Type:       ev.Type,
		Source:     ev.Source,
		HasPayload: ev.HasData(),
		Ready:      r.Ready,
	}
	if r.Ready {
		in.PrivacyStatus, _ = maputil.String(r.Configuration, event.KeyPrivacyStatus)
		in.Dataset, _ = maputil.String(r.Configuration, event.KeyEventDataset)
	}
	return in
}

// Classify applies the routing rules in order; the first match wins.
func Classify(in RouteInput) Decision {
	switch {
	case !in.HasPayload:
		return Decision{Route: RouteIgnore, Reason: ReasonNoPayload}
	case !in.Ready:
		return Decision{Route: RouteIgnore, Reason: ReasonNotReady}
	case in.Type == event.TypeGenericIdentity && in.Source == event.SourceRequestContent:
		if in.PrivacyStatus != event.PrivacyOptedIn {
			return Decision{Route: RouteIgnore, Reason: ReasonPrivacyBlocked}
		}
		return Decision{Route: RoutePushTokenSync, Reason: ReasonRouteIdentity}
	case in.Type == event.TypeMessaging && in.Source == event.SourceRequestContent:
		if in.Dataset == "" {
			return Decision{Route: RouteIgnore, Reason: ReasonNoDataset}
		}
		return Decision{Route: RouteTracking, Reason: ReasonRouteMessaging}
	default:
		return Decision{Route: RouteIgnore, Reason: ReasonUnhandled}
	}
}
