// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package messaging implements the push messaging extension.
//
// Inbound identity and messaging request events pass a readiness gate (the
// configuration and identity shared states must both be set), are classified
// by Classify, and qualifying events are turned into edge request events:
// a push token profile update or a push interaction tracking record.
// Configuration response events drive the privacy controller, which starts or
// stops the extension queue.
//
// Nothing in this package returns an error to the hub. Every failure is local
// to one event: it is logged, counted, and the event's side effect is skipped
// or dispatched in degraded form.
package messaging
