// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldEventID       = "event_id"
	FieldEventName     = "event_name"
	FieldEventType     = "event_type"
	FieldEventSource   = "event_source"
	FieldEventOrder    = "event_order"
	FieldCorrelationID = "correlation_id"
	FieldRequestID     = "request_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldRoute     = "route"
	FieldReason    = "reason"
	FieldTopic     = "topic"

	// Shared state fields
	FieldStateOwner  = "state_owner"
	FieldStateStatus = "state_status"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path fields
	FieldPath = "path"
)
