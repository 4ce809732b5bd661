package pubsub

import "context"

type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"
)

// Event is a message carrying a typed payload to subscribers.
type Event[T any] struct {
	Type    EventType
	Payload T
}

// Subscriber is implemented by services that broadcast events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}
