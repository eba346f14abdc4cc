// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package messaging

import (
	"context"
	"errors"

	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/log"
	"github.com/ManuGH/pushedge/internal/metrics"
	"github.com/ManuGH/pushedge/internal/ports"
	"github.com/ManuGH/pushedge/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	kindPushProfile  = "push_profile"
	kindPushTracking = "push_tracking"
)

// Extension is the push messaging extension hosted by the event hub.
type Extension struct {
	host    ports.HostApp
	rt      ports.Runtime
	gate    *Gate
	privacy *PrivacyController
	emitter *Emitter
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// Option configures an Extension.
type Option func(*Extension)

// WithTracer overrides the tracer used for per-event spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Extension) { e.tracer = t }
}

// New creates the extension. It becomes functional once the hub calls OnRegistered.
func New(host ports.HostApp, opts ...Option) *Extension {
	e := &Extension{
		host:   host,
		tracer: telemetry.Tracer("pushedge/messaging"),
		logger: log.WithComponent("messaging"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Extension) Name() string { return ExtensionName }

// OnRegistered wires the extension to its runtime and registers the
// configuration response, generic identity and messaging request listeners.
func (e *Extension) OnRegistered(rt ports.Runtime) {
	e.rt = rt
	e.gate = NewGate(rt)
	e.privacy = NewPrivacyController(rt)
	e.emitter = NewEmitter(rt)

	rt.RegisterListener(event.TypeConfiguration, event.SourceResponseContent, e.handleConfigurationResponse)
	rt.RegisterListener(event.TypeGenericIdentity, event.SourceRequestContent, e.handleRequest)
	rt.RegisterListener(event.TypeMessaging, event.SourceRequestContent, e.handleRequest)

	e.logger.Info().
		Str(log.FieldEvent, "extension.registered").
		Str("extension", ExtensionName).
		Msg("messaging extension registered")
}

// ReadyForEvent reports whether both configuration and identity shared states
// are set for ev.
func (e *Extension) ReadyForEvent(ev event.Event) bool {
	ready := e.gate.Check(ev)
	if !ready.Ready {
		e.logger.Debug().
			Str(log.FieldEvent, "gate.not_ready").
			Str(log.FieldEventID, ev.ID).
			Str(log.FieldStateOwner, ready.Blocking.Owner).
			Str(log.FieldStateStatus, string(ready.Blocking.Status)).
			Msg("shared state not resolved, holding event")
	}
	return ready.Ready
}

// PrivacyState returns the current privacy state. It is Unknown until the
// extension is registered and the first configuration response is applied.
func (e *Extension) PrivacyState() PrivacyState {
	if e.privacy == nil {
		return PrivacyUnknown
	}
	return e.privacy.State()
}

func (e *Extension) handleConfigurationResponse(ctx context.Context, ev event.Event) {
	ctx, span := e.startSpan(ctx, "messaging.configuration_response", ev)
	defer span.End()
	e.privacy.HandleConfigurationResponse(ctx, ev)
	span.SetAttributes(attribute.String("privacy.state", string(e.privacy.State())))
}

func (e *Extension) handleRequest(ctx context.Context, ev event.Event) {
	ctx, span := e.startSpan(ctx, "messaging.request", ev)
	defer span.End()
	logger := e.eventLogger(ctx, ev)

	// The gate is skipped for payload-less events; the first rule drops them anyway.
	var ready Readiness
	if ev.HasData() {
		ready = e.gate.Check(ev)
	}
	decision := Classify(NewRouteInput(ev, ready))
	metrics.RecordRoute(decision.Route.String(), decision.Reason)
	span.SetAttributes(
		attribute.String("messaging.route", decision.Route.String()),
		attribute.String("messaging.reason", decision.Reason),
	)

	switch decision.Route {
	case RoutePushTokenSync:
		e.syncPushToken(ctx, logger, ready, ev, span)
	case RouteTracking:
		e.trackInteraction(ctx, logger, ready, ev, span)
	default:
		logger.Debug().
			Str(log.FieldEvent, "route.ignored").
			Str(log.FieldReason, decision.Reason).
			Msg("event ignored")
	}
}

func (e *Extension) syncPushToken(ctx context.Context, logger zerolog.Logger, ready Readiness, ev event.Event, span trace.Span) {
	payload, err := BuildPushTokenSync(e.host, ready.Identity, ready.Configuration, ev)
	if err != nil {
		e.dropped(logger, span, kindPushProfile, err)
		return
	}
	out := e.emitter.Emit(ctx, kindPushProfile, EdgeNamePushProfile, map[string]any{keyData: payload})
	logger.Debug().
		Str(log.FieldEvent, "push_sync.dispatched").
		Str("edge_event_id", out.ID).
		Msg("push token profile update dispatched")
}

func (e *Extension) trackInteraction(ctx context.Context, logger zerolog.Logger, ready Readiness, ev event.Event, span trace.Span) {
	payload, err := BuildTracking(ready.Configuration, ev)
	if err != nil {
		e.dropped(logger, span, kindPushTracking, err)
		return
	}
	for _, reason := range payload.Degraded {
		metrics.RecordPayloadDegraded(reason)
		logger.Warn().
			Str(log.FieldEvent, "tracking.degraded").
			Str(log.FieldReason, reason).
			Msg("tracking enrichment incomplete, dispatching partial payload")
	}
	out := e.emitter.Emit(ctx, kindPushTracking, EdgeNamePushTracking, payload.Data)
	logger.Debug().
		Str(log.FieldEvent, "tracking.dispatched").
		Str("edge_event_id", out.ID).
		Msg("push tracking dispatched")
}

func (e *Extension) dropped(logger zerolog.Logger, span trace.Span, kind string, err error) {
	reason := dropReason(err)
	metrics.RecordPayloadDropped(kind, reason)
	span.SetStatus(codes.Error, reason)
	logger.Warn().Err(err).
		Str(log.FieldEvent, kind+".dropped").
		Str(log.FieldReason, reason).
		Msg("malformed input, event not dispatched")
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingECID):
		return "ecid_missing"
	case errors.Is(err, ErrMissingToken):
		return "token_missing"
	case errors.Is(err, ErrMissingBundleID):
		return "bundle_id_missing"
	case errors.Is(err, ErrMissingEventType):
		return "event_type_missing"
	case errors.Is(err, ErrMissingMessageID):
		return "message_id_missing"
	case errors.Is(err, ErrMissingDataset):
		return "dataset_missing"
	default:
		return "unknown"
	}
}

func (e *Extension) startSpan(ctx context.Context, name string, ev event.Event) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("event.id", ev.ID),
		attribute.String("event.type", ev.Type),
		attribute.String("event.source", ev.Source),
		attribute.Int64("event.order", int64(ev.Order)),
	))
}

func (e *Extension) eventLogger(ctx context.Context, ev event.Event) zerolog.Logger {
	return log.WithContext(ctx, e.logger).With().
		Str(log.FieldEventID, ev.ID).
		Str(log.FieldEventType, ev.Type).
		Str(log.FieldEventSource, ev.Source).
		Uint64(log.FieldEventOrder, ev.Order).
		Logger()
}

var _ ports.Extension = (*Extension)(nil)
