package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/dropin/internal/event/topic"
)

// Event is a published event. Events are immutable once created.
type Event struct {
	// Topic is the hierarchical event type (e.g., "drop.applied").
	Topic topic.Topic

	// Payload contains the event-specific data.
	Payload any

	// ID is a unique identifier for this event instance.
	ID string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Source identifies the component that published the event.
	Source string
}

// NewEvent creates an event with a fresh ID and the current time.
func NewEvent(t topic.Topic, payload any, source string) Event {
	return Event{
		Topic:     t,
		Payload:   payload,
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Source:    source,
	}
}

// Handler processes an event.
type Handler func(ctx context.Context, ev Event) error

// Subscription is an active subscription.
type Subscription struct {
	id      uint64
	pattern topic.Topic
	handler Handler
}

// Pattern returns the subscribed topic pattern.
func (s *Subscription) Pattern() topic.Topic {
	return s.pattern
}
