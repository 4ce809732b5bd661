package pubsub

import (
	"context"
	"log/slog"
	"sync"
)

const bufferSize = 64

// Broker fans events out to any number of subscribers. Publishing never
// blocks: a subscriber that cannot keep up loses events rather than
// stalling the publisher.
type Broker[T any] struct {
	mu       sync.RWMutex
	subs     map[chan Event[T]]struct{}
	shutdown bool
}

// NewBroker creates a new broker.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subs: make(map[chan Event[T]]struct{}),
	}
}

// Subscribe returns a channel of events. The subscription ends, and the
// channel is closed, when the context is canceled or the broker shuts
// down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event[T], bufferSize)
	if b.shutdown {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}

	go func() {
		<-ctx.Done()
		b.unsubscribe(ch)
	}()

	return ch
}

func (b *Broker[T]) unsubscribe(ch chan Event[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; !ok {
		return
	}
	delete(b.subs, ch)
	close(ch)
}

// Publish sends an event to all current subscribers without blocking.
func (b *Broker[T]) Publish(t EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.shutdown {
		return
	}
	for ch := range b.subs {
		select {
		case ch <- Event[T]{Type: t, Payload: payload}:
		default:
			slog.Debug("pubsub: subscriber buffer full, dropping event", "type", t)
		}
	}
}

// Shutdown closes all subscriptions. Further publishes are dropped and
// further subscriptions are returned closed.
func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shutdown {
		return
	}
	b.shutdown = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
