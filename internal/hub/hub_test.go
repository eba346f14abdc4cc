// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package hub

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/pushedge/internal/bus"
	"github.com/ManuGH/pushedge/internal/event"
	"github.com/ManuGH/pushedge/internal/ports"
	"github.com/ManuGH/pushedge/internal/sharedstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type testExtension struct {
	name  string
	keys  [][2]string
	ready func(ev event.Event) bool

	mu       sync.Mutex
	rt       ports.Runtime
	received []event.Event
	got      chan event.Event
}

func newTestExtension(name string, keys ...[2]string) *testExtension {
	return &testExtension{name: name, keys: keys, got: make(chan event.Event, 64)}
}

func (e *testExtension) Name() string { return e.name }

func (e *testExtension) OnRegistered(rt ports.Runtime) {
	e.mu.Lock()
	e.rt = rt
	e.mu.Unlock()
	for _, k := range e.keys {
		rt.RegisterListener(k[0], k[1], func(_ context.Context, ev event.Event) {
			e.mu.Lock()
			e.received = append(e.received, ev)
			e.mu.Unlock()
			e.got <- ev
		})
	}
}

func (e *testExtension) ReadyForEvent(ev event.Event) bool {
	if e.ready == nil {
		return true
	}
	return e.ready(ev)
}

func (e *testExtension) runtime() ports.Runtime {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rt
}

func (e *testExtension) expect(t *testing.T) event.Event {
	t.Helper()
	select {
	case ev := <-e.got:
		return ev
	case <-time.After(waitFor):
		t.Fatalf("%s: timed out waiting for event", e.name)
		return event.Event{}
	}
}

func (e *testExtension) expectNone(t *testing.T) {
	t.Helper()
	select {
	case ev := <-e.got:
		t.Fatalf("%s: unexpected event %s/%s", e.name, ev.Type, ev.Source)
	case <-time.After(50 * time.Millisecond):
	}
}

var (
	keyMessaging = [2]string{event.TypeMessaging, event.SourceRequestContent}
	keyConfig    = [2]string{event.TypeConfiguration, event.SourceResponseContent}
)

func startHub(t *testing.T, h *Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()
	require.Eventually(t, h.Running, waitFor, time.Millisecond)
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(waitFor):
			t.Fatal("hub did not stop")
		}
	})
}

func messagingEvent(n int) event.Event {
	return event.New("m", event.TypeMessaging, event.SourceRequestContent, map[string]any{"n": n})
}

func TestDeliversInOrderWithAssignedOrder(t *testing.T) {
	h := New(nil, nil)
	ext := newTestExtension("ext", keyMessaging)
	require.NoError(t, h.Register(ext))
	startHub(t, h)

	for i := 0; i < 10; i++ {
		h.Dispatch(context.Background(), messagingEvent(i))
	}
	for i := 0; i < 10; i++ {
		ev := ext.expect(t)
		assert.Equal(t, i, ev.Data["n"])
		assert.Equal(t, uint64(i+1), ev.Order)
	}
}

func TestOnlyListenedEventsAreQueued(t *testing.T) {
	h := New(nil, nil)
	ext := newTestExtension("ext", keyMessaging)
	require.NoError(t, h.Register(ext))

	h.Dispatch(context.Background(), event.New("edge", event.TypeEdge, event.SourceRequestContent, nil))
	depth, ok := h.QueueDepth("ext")
	require.True(t, ok)
	assert.Zero(t, depth)

	h.Dispatch(context.Background(), messagingEvent(1))
	depth, _ = h.QueueDepth("ext")
	assert.Equal(t, 1, depth, "queued before Run")

	_, ok = h.QueueDepth("missing")
	assert.False(t, ok)
}

func TestNotReadyEventIsReofferedOnStateChange(t *testing.T) {
	h := New(nil, nil)
	ext := newTestExtension("ext", keyMessaging)
	var offers atomic.Int32
	ext.ready = func(ev event.Event) bool {
		offers.Add(1)
		return h.Store().Get(event.StateConfiguration, ev.Order).Usable()
	}
	require.NoError(t, h.Register(ext))
	startHub(t, h)

	first := h.Dispatch(context.Background(), messagingEvent(1))
	h.Dispatch(context.Background(), messagingEvent(2))
	ext.expectNone(t)

	_, err := h.PublishPendingState(event.StateConfiguration)
	require.NoError(t, err)
	ext.expectNone(t)

	require.NoError(t, h.ResolvePendingState(event.StateConfiguration, map[string]any{"ok": true}))
	got := ext.expect(t)
	assert.Equal(t, first.ID, got.ID, "head of line is delivered first")
	assert.Equal(t, 2, ext.expect(t).Data["n"])
	assert.GreaterOrEqual(t, offers.Load(), int32(3))
}

func TestStopHoldsGatedEventsButDeliversConfiguration(t *testing.T) {
	h := New(nil, nil)
	ext := newTestExtension("ext", keyMessaging, keyConfig)
	require.NoError(t, h.Register(ext))
	startHub(t, h)

	ext.runtime().Stop()
	h.Dispatch(context.Background(), messagingEvent(1))
	ext.expectNone(t)

	cfg := h.Dispatch(context.Background(), event.New("cfg", event.TypeConfiguration, event.SourceResponseContent, map[string]any{}))
	assert.Equal(t, cfg.ID, ext.expect(t).ID, "configuration response bypasses the stopped queue")

	ext.runtime().Start()
	assert.Equal(t, 1, ext.expect(t).Data["n"])
}

func TestWithUngatedOption(t *testing.T) {
	h := New(nil, nil, WithUngated(event.TypeMessaging, event.SourceRequestContent))
	ext := newTestExtension("ext", keyMessaging)
	require.NoError(t, h.Register(ext))
	startHub(t, h)

	ext.runtime().Stop()
	h.Dispatch(context.Background(), messagingEvent(7))
	assert.Equal(t, 7, ext.expect(t).Data["n"])
}

func TestDispatchPublishesOnBus(t *testing.T) {
	b := bus.NewMemoryBus()
	h := New(nil, b)

	edge := event.New("Push tracking edge event", event.TypeEdge, event.SourceRequestContent, map[string]any{"xdm": map[string]any{}})
	sub, err := b.Subscribe(context.Background(), bus.TopicFor(edge))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	admitted := h.Dispatch(context.Background(), edge)
	select {
	case got := <-sub.C():
		assert.Equal(t, admitted.ID, got.ID)
		assert.Equal(t, uint64(1), got.Order)
	case <-time.After(waitFor):
		t.Fatal("edge event not published")
	}
}

func TestDispatchFillsMissingIDAndTimestamp(t *testing.T) {
	h := New(nil, nil)
	ev := h.Dispatch(context.Background(), event.Event{Type: event.TypeMessaging, Source: event.SourceRequestContent})
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestRegisterDuplicateAndLate(t *testing.T) {
	h := New(nil, nil)
	require.NoError(t, h.Register(newTestExtension("a", keyMessaging)))
	require.ErrorIs(t, h.Register(newTestExtension("a")), ErrDuplicateExtension)

	startHub(t, h)
	late := newTestExtension("late", keyMessaging)
	require.NoError(t, h.Register(late))
	h.Dispatch(context.Background(), messagingEvent(3))
	assert.Equal(t, 3, late.expect(t).Data["n"])
}

func TestRunTwiceFails(t *testing.T) {
	h := New(nil, nil)
	startHub(t, h)
	require.ErrorIs(t, h.Run(context.Background()), ErrAlreadyRunning)
}

func TestListenerPanicDoesNotStopWorker(t *testing.T) {
	h := New(nil, nil)
	ext := newTestExtension("ext", keyMessaging)
	require.NoError(t, h.Register(ext))

	var calls atomic.Int32
	ext.runtime().RegisterListener(event.TypeMessaging, event.SourceRequestContent, func(context.Context, event.Event) {
		if calls.Add(1) == 1 {
			panic("boom")
		}
	})
	startHub(t, h)

	h.Dispatch(context.Background(), messagingEvent(1))
	h.Dispatch(context.Background(), messagingEvent(2))
	assert.Equal(t, 1, ext.expect(t).Data["n"])
	assert.Equal(t, 2, ext.expect(t).Data["n"])
}

func TestSharedStateReadsAtEventOrder(t *testing.T) {
	store := sharedstate.NewStore()
	h := New(store, nil)
	ext := newTestExtension("ext", keyMessaging)
	require.NoError(t, h.Register(ext))

	_, err := h.PublishState(event.StateIdentity, map[string]any{"mid": "old"})
	require.NoError(t, err)
	early := h.Dispatch(context.Background(), messagingEvent(1))
	_, err = h.PublishState(event.StateIdentity, map[string]any{"mid": "new"})
	require.NoError(t, err)
	late := h.Dispatch(context.Background(), messagingEvent(2))

	rt := ext.runtime()
	// the second publication happens at the order of the early event
	assert.Equal(t, "new", rt.SharedState(event.StateIdentity, early).Data["mid"])
	assert.Equal(t, "new", rt.SharedState(event.StateIdentity, late).Data["mid"])
	assert.Equal(t, "old", rt.SharedState(event.StateIdentity, event.Event{Order: 0}).Data["mid"])
}
