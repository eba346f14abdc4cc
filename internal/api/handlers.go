// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/ManuGH/pushedge/internal/config"
	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/log"
	"github.com/ManuGH/pushedge/internal/sharedstate"
	"github.com/go-chi/chi/v5"
)

// IngestRequest is the body of POST /v1/events.
type IngestRequest struct {
	Name   string         `json:"name"`
	Type   string         `json:"type"`
	Source string         `json:"source"`
	Data   map[string]any `json:"data"`
}

// IngestResponse acknowledges an admitted event.
type IngestResponse struct {
	ID    string `json:"id"`
	Order uint64 `json:"order"`
}

// StateResponse describes one shared state publication.
type StateResponse struct {
	Component string             `json:"component"`
	Status    sharedstate.Status `json:"status"`
	Version   uint64             `json:"version"`
	Data      map[string]any     `json:"data,omitempty"`
}

// StatusResponse is the body of GET /v1/status.
type StatusResponse struct {
	Running      bool   `json:"running"`
	CurrentOrder uint64 `json:"currentOrder"`
	QueueDepth   int    `json:"queueDepth"`
	Privacy      string `json:"privacy,omitempty"`
}

// PrivacyRequest is the body of PUT /v1/settings/privacy.
type PrivacyRequest struct {
	Privacy string `json:"privacy"`
}

// PrivacyResponse returns the configuration state published after the change.
type PrivacyResponse struct {
	Privacy       string         `json:"privacy"`
	Configuration map[string]any `json:"configuration"`
}

var errEmptyBody = errors.New("request body is empty")

// decodeJSON decodes a single JSON value from r's body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	if dec.More() {
		return errors.New("request body contains trailing data")
	}
	return nil
}

func bodyError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, r, http.StatusRequestEntityTooLarge, "body_too_large", err.Error())
		return
	}
	writeError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
}

func (s *Server) handleIngestEvent(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := decodeJSON(r, &req); err != nil {
		bodyError(w, r, err)
		return
	}
	if req.Type == "" || req.Source == "" {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid_event", "type and source are required")
		return
	}

	ev := s.hub.Dispatch(r.Context(), event.New(req.Name, req.Type, req.Source, req.Data))
	logger := log.WithContext(r.Context(), s.logger)
	logger.Debug().
		Str(log.FieldEvent, "api.event_ingested").
		Str(log.FieldEventID, ev.ID).
		Str(log.FieldEventType, ev.Type).
		Str(log.FieldEventSource, ev.Source).
		Uint64(log.FieldEventOrder, ev.Order).
		Msg("event admitted")
	writeJSON(w, http.StatusAccepted, IngestResponse{ID: ev.ID, Order: ev.Order})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	component := chi.URLParam(r, "component")
	snap := s.hub.Store().Latest(component)
	if snap.Status == sharedstate.StatusNone {
		writeError(w, r, http.StatusNotFound, "not_found", fmt.Sprintf("no shared state for %q", component))
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(snap))
}

// handlePutState publishes a component's shared state. With ?pending=true an
// empty pending publication is announced; otherwise the body is the data and
// resolves the newest pending publication if there is one.
func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request) {
	component := chi.URLParam(r, "component")
	logger := log.WithContext(r.Context(), s.logger).With().Str(log.FieldStateOwner, component).Logger()

	pending, _ := strconv.ParseBool(r.URL.Query().Get("pending"))
	if pending {
		if _, err := s.hub.PublishPendingState(component); err != nil {
			s.stateError(w, r, err)
			return
		}
		logger.Info().Str(log.FieldEvent, "api.state_pending").Msg("pending shared state announced")
		writeJSON(w, http.StatusOK, stateResponse(s.hub.Store().Latest(component)))
		return
	}

	var data map[string]any
	if err := decodeJSON(r, &data); err != nil {
		bodyError(w, r, err)
		return
	}
	if data == nil {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid_state", "state data must be a JSON object")
		return
	}

	var err error
	if s.hub.Store().Latest(component).Status == sharedstate.StatusPending {
		err = s.hub.ResolvePendingState(component, data)
	} else {
		_, err = s.hub.PublishState(component, data)
	}
	if err != nil {
		s.stateError(w, r, err)
		return
	}
	snap := s.hub.Store().Latest(component)
	logger.Info().
		Str(log.FieldEvent, "api.state_published").
		Uint64("state_version", snap.Version).
		Msg("shared state published")
	writeJSON(w, http.StatusOK, stateResponse(snap))
}

func (s *Server) stateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, sharedstate.ErrOwnerRequired):
		writeError(w, r, http.StatusBadRequest, "invalid_component", err.Error())
	case errors.Is(err, sharedstate.ErrStaleVersion), errors.Is(err, sharedstate.ErrNoPending):
		writeError(w, r, http.StatusConflict, "state_conflict", err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Running:      s.hub.Running(),
		CurrentOrder: s.hub.CurrentOrder(),
	}
	if depth, ok := s.hub.QueueDepth(s.cfg.Extension); ok {
		resp.QueueDepth = depth
	}
	if s.privacy != nil {
		resp.Privacy = s.privacy.PrivacyState()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePutPrivacy(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Settings == nil {
		writeError(w, r, http.StatusServiceUnavailable, "settings_unavailable", "no edge settings file configured")
		return
	}
	var req PrivacyRequest
	if err := decodeJSON(r, &req); err != nil {
		bodyError(w, r, err)
		return
	}
	if req.Privacy == "" {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid_privacy", "privacy is required")
		return
	}

	state, err := s.cfg.Settings.SetPrivacy(r.Context(), req.Privacy)
	switch {
	case errors.Is(err, config.ErrInvalidEdgeSettings):
		writeError(w, r, http.StatusUnprocessableEntity, "invalid_privacy", err.Error())
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	logger := log.WithContext(r.Context(), s.logger)
	logger.Info().
		Str(log.FieldEvent, "api.privacy_set").
		Str("privacy", req.Privacy).
		Msg("privacy setting updated")
	writeJSON(w, http.StatusOK, PrivacyResponse{Privacy: req.Privacy, Configuration: state})
}

func stateResponse(snap sharedstate.Snapshot) StateResponse {
	return StateResponse{
		Component: snap.Owner,
		Status:    snap.Status,
		Version:   snap.Version,
		Data:      snap.Data,
	}
}
