// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package messaging

import (
	"context"

	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/ports"
	"github.com/ManuGH/pushedge/internal/sharedstate"
)

type fakeRuntime struct {
	listeners  map[string]ports.Listener
	states     map[string]sharedstate.Snapshot
	dispatched []event.Event
	starts     int
	stops      int
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		listeners: make(map[string]ports.Listener),
		states:    make(map[string]sharedstate.Snapshot),
	}
}

func (f *fakeRuntime) RegisterListener(typ, source string, l ports.Listener) {
	f.listeners[event.Key(typ, source)] = l
}

func (f *fakeRuntime) SharedState(owner string, _ event.Event) sharedstate.Snapshot {
	if s, ok := f.states[owner]; ok {
		return s
	}
	return sharedstate.Snapshot{Owner: owner, Status: sharedstate.StatusNone}
}

func (f *fakeRuntime) Start() { f.starts++ }
func (f *fakeRuntime) Stop()  { f.stops++ }

func (f *fakeRuntime) Dispatch(_ context.Context, ev event.Event) {
	f.dispatched = append(f.dispatched, ev)
}

func (f *fakeRuntime) set(owner string, data map[string]any) {
	f.states[owner] = sharedstate.Snapshot{Owner: owner, Status: sharedstate.StatusSet, Data: data}
}

func (f *fakeRuntime) pending(owner string) {
	f.states[owner] = sharedstate.Snapshot{Owner: owner, Status: sharedstate.StatusPending}
}

// deliver invokes the listener registered for ev, if any.
func (f *fakeRuntime) deliver(ev event.Event) bool {
	l, ok := f.listeners[event.Key(ev.Type, ev.Source)]
	if !ok {
		return false
	}
	l(context.Background(), ev)
	return true
}
