// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package event

// Event types.
const (
	TypeConfiguration   = "com.adobe.eventType.configuration"
	TypeGenericIdentity = "com.adobe.eventType.generic.identity"
	TypeMessaging       = "com.adobe.eventType.messaging"
	TypeEdge            = "com.adobe.eventType.edge"
)

// Event sources.
const (
	SourceRequestContent  = "com.adobe.eventSource.requestContent"
	SourceResponseContent = "com.adobe.eventSource.responseContent"
)

// Shared state owners.
const (
	StateConfiguration = "com.adobe.module.configuration"
	StateIdentity      = "com.adobe.module.identity"
)

// Configuration keys.
const (
	KeyPrivacyStatus = "global.privacy"
	KeyUseSandbox    = "messaging.useSandbox"
	KeyEventDataset  = "messaging.eventDataset"
)

// Privacy status values carried under KeyPrivacyStatus.
const (
	PrivacyOptedIn  = "optedin"
	PrivacyOptedOut = "optedout"
	PrivacyUnknown  = "optunknown"
)

// Identity keys.
const (
	KeyECID = "mid"
)

// Generic identity request keys.
const (
	KeyPushIdentifier = "pushidentifier"
)

// Messaging request-content keys.
const (
	KeyTrackEventType         = "eventType"
	KeyTrackMessageID         = "id"
	KeyTrackActionID          = "actionId"
	KeyTrackApplicationOpened = "applicationOpened"
	KeyAdobeXDM               = "adobe_xdm"
	KeyMixins                 = "mixins"
	KeyCJM                    = "cjm"
)
