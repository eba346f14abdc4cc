// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bus is the outbound delivery channel that edge events are handed to.
package bus

import (
	"context"

	"github.com/ManuGH/pushedge/internal/event"
)

// Subscriber receives events published on one topic.
type Subscriber interface {
	// C returns a read-only event channel.
	C() <-chan event.Event
	// Close unsubscribes and closes the channel.
	Close() error
}

// Bus is the event transport abstraction.
type Bus interface {
	Publish(ctx context.Context, topic string, ev event.Event) error
	Subscribe(ctx context.Context, topic string) (Subscriber, error)
}

// TopicFor returns the topic an event is published on.
func TopicFor(ev event.Event) string {
	return event.Key(ev.Type, ev.Source)
}
