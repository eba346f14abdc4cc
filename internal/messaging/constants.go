// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package messaging

// ExtensionName is the name the extension registers under.
const ExtensionName = "com.adobe.messaging"

// Push platforms.
const (
	PlatformProduction = "apns"
	PlatformSandbox    = "apnsSandbox"
)

// Outbound edge event names.
const (
	EdgeNamePushProfile  = "Push notification profile edge event"
	EdgeNamePushTracking = "Push tracking edge event"
)

// NamespaceECID is the identity namespace code of the Experience Cloud ID.
const NamespaceECID = "ECID"

// Payload keys.
const (
	keyData                    = "data"
	keyPushNotificationDetails = "pushNotificationDetails"
	keyAppID                   = "appID"
	keyToken                   = "token"
	keyPlatform                = "platform"
	keyDenylisted              = "denylisted"
	keyIdentity                = "identity"
	keyNamespace               = "namespace"
	keyCode                    = "code"
	keyID                      = "id"

	keyXDM                      = "xdm"
	keyMeta                     = "meta"
	keyCollect                  = "collect"
	keyDatasetID                = "datasetId"
	keyEventType                = "eventType"
	keyPushNotificationTracking = "pushNotificationTracking"
	keyPushProviderMessageID    = "pushProviderMessageId"
	keyPushProvider             = "pushProvider"
	keyCustomAction             = "customAction"
	keyActionID                 = "actionId"
	keyApplication              = "application"
	keyLaunches                 = "launches"
	keyValue                    = "value"
	keyExperience               = "_experience"
	keyCustomerJourney          = "customerJourneyManagement"
)

// defaultCJMJSON is merged under _experience.customerJourneyManagement of
// every tracking payload that carries that nesting.
const defaultCJMJSON = `{"messageProfile":{"channel":{"_id":"https://ns.adobe.com/xdm/channels/push"}},"pushChannelContext":{"platform":"apns"}}`
