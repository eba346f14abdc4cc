// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fsm is a small strict state machine used for lifecycle states
// that drive side effects, such as the privacy gate of the messaging queue.
package fsm

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInvalidTransition is returned by Fire when no edge leaves the
	// current state for the event.
	ErrInvalidTransition = errors.New("fsm: invalid transition")
	// ErrConcurrentTransition is returned when the state moved while an
	// edge's guard or action was running.
	ErrConcurrentTransition = errors.New("fsm: concurrent transition")
)

// Guard may reject a transition before its action runs.
type Guard[S, E ~string] func(ctx context.Context, from S, event E) error

// Action performs the side effects of a transition. A failing action
// leaves the state unchanged.
type Action[S, E ~string] func(ctx context.Context, from, to S, event E) error

// Result describes an applied transition. Changed is false for self edges.
type Result[S, E ~string] struct {
	From    S
	To      S
	Event   E
	Changed bool
}

type edge[S, E ~string] struct {
	to     S
	guard  Guard[S, E]
	action Action[S, E]
}

type edgeKey[S, E ~string] struct {
	from  S
	event E
}

// Table collects edges before a Machine is built from it.
type Table[S, E ~string] struct {
	edges map[edgeKey[S, E]]edge[S, E]
	errs  []error
}

// NewTable returns an empty transition table.
func NewTable[S, E ~string]() *Table[S, E] {
	return &Table[S, E]{edges: make(map[edgeKey[S, E]]edge[S, E])}
}

// EdgeOption configures an edge added with Table.Add.
type EdgeOption[S, E ~string] func(*edge[S, E])

// WithGuard attaches g to the edge.
func WithGuard[S, E ~string](g Guard[S, E]) EdgeOption[S, E] {
	return func(e *edge[S, E]) { e.guard = g }
}

// WithAction attaches a to the edge.
func WithAction[S, E ~string](a Action[S, E]) EdgeOption[S, E] {
	return func(e *edge[S, E]) { e.action = a }
}

// Add registers event as leading from every state in from to to.
// Registering the same (from, event) pair twice is an error reported by Build.
func (t *Table[S, E]) Add(from []S, event E, to S, opts ...EdgeOption[S, E]) *Table[S, E] {
	e := edge[S, E]{to: to}
	for _, opt := range opts {
		opt(&e)
	}
	for _, f := range from {
		k := edgeKey[S, E]{from: f, event: event}
		if _, exists := t.edges[k]; exists {
			t.errs = append(t.errs, fmt.Errorf("duplicate transition: %s --%s-->", f, event))
			continue
		}
		t.edges[k] = e
	}
	return t
}

// Build returns a machine starting in initial.
func (t *Table[S, E]) Build(initial S) (*Machine[S, E], error) {
	if len(t.errs) > 0 {
		return nil, errors.Join(t.errs...)
	}
	edges := make(map[edgeKey[S, E]]edge[S, E], len(t.edges))
	for k, v := range t.edges {
		edges[k] = v
	}
	return &Machine[S, E]{state: initial, edges: edges}, nil
}

// Machine is safe for concurrent use. Guards and actions run without the
// lock held, so they may read State.
type Machine[S, E ~string] struct {
	mu        sync.Mutex
	state     S
	edges     map[edgeKey[S, E]]edge[S, E]
	observers []func(Result[S, E])
}

// State returns the current state.
func (m *Machine[S, E]) State() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Can reports whether event has an edge from the current state.
func (m *Machine[S, E]) Can(event E) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.edges[edgeKey[S, E]{from: m.state, event: event}]
	return ok
}

// OnTransition registers fn to be called after every applied transition,
// self edges included.
func (m *Machine[S, E]) OnTransition(fn func(Result[S, E])) {
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}

// Fire applies event to the current state.
func (m *Machine[S, E]) Fire(ctx context.Context, event E) (Result[S, E], error) {
	m.mu.Lock()
	from := m.state
	e, ok := m.edges[edgeKey[S, E]{from: from, event: event}]
	m.mu.Unlock()

	res := Result[S, E]{From: from, To: from, Event: event}
	if !ok {
		return res, fmt.Errorf("%w: state=%s event=%s", ErrInvalidTransition, from, event)
	}

	if e.guard != nil {
		if err := e.guard(ctx, from, event); err != nil {
			return res, err
		}
	}
	if e.action != nil {
		if err := e.action(ctx, from, e.to, event); err != nil {
			return res, err
		}
	}

	m.mu.Lock()
	if m.state != from {
		cur := m.state
		m.mu.Unlock()
		res.To = cur
		return res, fmt.Errorf("%w: from=%s cur=%s event=%s", ErrConcurrentTransition, from, cur, event)
	}
	m.state = e.to
	observers := append([]func(Result[S, E]){}, m.observers...)
	m.mu.Unlock()

	res.To = e.to
	res.Changed = from != e.to
	for _, fn := range observers {
		fn(res)
	}
	return res, nil
}
