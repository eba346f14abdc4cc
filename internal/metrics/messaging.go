// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsRoutedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pushedge_events_routed_total",
		Help: "Inbound messaging events by classification outcome",
	}, []string{"route", "reason"})

	PayloadsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pushedge_payloads_dropped_total",
		Help: "Payload builds aborted on malformed input",
	}, []string{"kind", "reason"})

	PayloadsDegradedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pushedge_payloads_degraded_total",
		Help: "Tracking payloads dispatched without optional enrichment",
	}, []string{"reason"})

	EdgeDispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pushedge_edge_dispatched_total",
		Help: "Outbound edge events handed to the hub",
	}, []string{"kind"})

	PrivacyTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pushedge_privacy_transitions_total",
		Help: "Privacy state transitions applied",
	}, []string{"to"})

	privacyState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pushedge_privacy_state",
		Help: "Current privacy state (1 for the active state)",
	}, []string{"state"})

	HubQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pushedge_hub_queue_depth",
		Help: "Events waiting in an extension queue",
	}, []string{"extension"})

	HubDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pushedge_hub_delivered_total",
		Help: "Events delivered to extension listeners",
	}, []string{"extension"})
)

// RecordRoute counts one classification outcome.
func RecordRoute(route, reason string) {
	EventsRoutedTotal.WithLabelValues(route, orUnknown(reason)).Inc()
}

// RecordPayloadDropped counts a payload build aborted for reason.
func RecordPayloadDropped(kind, reason string) {
	PayloadsDroppedTotal.WithLabelValues(kind, reason).Inc()
}

// RecordPayloadDegraded counts a soft stop in tracking enrichment.
func RecordPayloadDegraded(reason string) {
	PayloadsDegradedTotal.WithLabelValues(reason).Inc()
}

// RecordEdgeDispatched counts an outbound edge event.
func RecordEdgeDispatched(kind string) {
	EdgeDispatchedTotal.WithLabelValues(kind).Inc()
}

// SetPrivacyState marks state as the active privacy state.
func SetPrivacyState(state string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		privacyState.WithLabelValues(s).Set(v)
	}
	PrivacyTransitionsTotal.WithLabelValues(state).Inc()
}
