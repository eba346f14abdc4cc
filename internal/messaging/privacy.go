// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package messaging

import (
	"context"

	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/fsm"
	"github.com/ManuGH/pushedge/internal/log"
	"github.com/ManuGH/pushedge/internal/maputil"
	"github.com/ManuGH/pushedge/internal/metrics"
	"github.com/ManuGH/pushedge/internal/ports"
	"github.com/rs/zerolog"
)

// PrivacyState is the privacy status observed from configuration responses.
type PrivacyState string

const (
	PrivacyUnknown  PrivacyState = "unknown"
	PrivacyOptedIn  PrivacyState = "opted_in"
	PrivacyOptedOut PrivacyState = "opted_out"
)

var allPrivacyStates = []string{string(PrivacyUnknown), string(PrivacyOptedIn), string(PrivacyOptedOut)}

type privacyTrigger string

const (
	triggerOptIn  privacyTrigger = "opt_in"
	triggerOptOut privacyTrigger = "opt_out"
)

// PrivacyController follows configuration responses and starts or stops the
// extension queue. It is the only writer of the privacy state.
type PrivacyController struct {
	machine *fsm.Machine[PrivacyState, privacyTrigger]
	queue   ports.QueueControl
	logger  zerolog.Logger
}

// NewPrivacyController returns a controller in the Unknown state.
func NewPrivacyController(queue ports.QueueControl) *PrivacyController {
	c := &PrivacyController{
		queue:  queue,
		logger: log.WithComponent("privacy"),
	}

	all := []PrivacyState{PrivacyUnknown, PrivacyOptedIn, PrivacyOptedOut}
	apply := fsm.WithAction[PrivacyState, privacyTrigger](c.apply)
	m, err := fsm.NewTable[PrivacyState, privacyTrigger]().
		Add(all, triggerOptIn, PrivacyOptedIn, apply).
		Add(all, triggerOptOut, PrivacyOptedOut, apply).
		Build(PrivacyUnknown)
	if err != nil {
		// the table above is static; a failure here is a programming error
		panic(err)
	}
	m.OnTransition(func(r fsm.Result[PrivacyState, privacyTrigger]) {
		metrics.SetPrivacyState(string(r.To), allPrivacyStates)
	})
	c.machine = m
	return c
}

// State returns the current privacy state.
func (c *PrivacyController) State() PrivacyState {
	return c.machine.State()
}

// HandleConfigurationResponse applies the privacy status carried by ev.
// A missing, mistyped or empty status leaves the state unchanged.
func (c *PrivacyController) HandleConfigurationResponse(ctx context.Context, ev event.Event) {
	logger := log.WithContext(ctx, c.logger)

	status, ok := maputil.NonEmptyString(ev.Data, event.KeyPrivacyStatus)
	if !ok {
		logger.Debug().
			Str(log.FieldEvent, "privacy.status_missing").
			Str(log.FieldEventID, ev.ID).
			Msg("configuration response without privacy status, ignoring")
		return
	}

	trigger := triggerOptOut
	if status == event.PrivacyOptedIn {
		trigger = triggerOptIn
	}

	res, err := c.machine.Fire(ctx, trigger)
	if err != nil {
		logger.Error().Err(err).
			Str(log.FieldEvent, "privacy.transition_failed").
			Str(log.FieldOldState, string(res.From)).
			Msg("privacy transition failed")
		return
	}
	level := zerolog.DebugLevel
	if res.Changed {
		level = zerolog.InfoLevel
	}
	logger.WithLevel(level).
		Str(log.FieldEvent, "privacy.applied").
		Str(log.FieldOldState, string(res.From)).
		Str(log.FieldNewState, string(res.To)).
		Str("privacy_status", status).
		Msg("privacy status applied")
}

func (c *PrivacyController) apply(_ context.Context, _ PrivacyState, to PrivacyState, _ privacyTrigger) error {
	if c.queue == nil {
		return nil
	}
	switch to {
	case PrivacyOptedIn:
		c.queue.Start()
	case PrivacyOptedOut:
		c.queue.Stop()
	}
	return nil
}
