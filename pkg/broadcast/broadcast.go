package broadcast

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Subscription receives values published after it was created.
type Subscription[T any] struct {
	id     uuid.UUID
	ch     chan T
	done   chan struct{}
	closed bool
	mu     sync.RWMutex
}

// ID identifies the subscription.
func (s *Subscription[T]) ID() uuid.UUID { return s.id }

// C returns the receive channel. It is closed when the subscription or the
// broadcaster is closed.
func (s *Subscription[T]) C() <-chan T { return s.ch }

func (s *Subscription[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.ch)
		close(s.done)
		s.closed = true
	}
}

func (s *Subscription[T]) send(v T) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- v:
		return true
	default:
		return false
	}
}

// Broadcaster fans values out to in-memory subscribers. Publish never
// blocks: a subscriber whose buffer is full misses the value.
// All methods are safe for concurrent use.
type Broadcaster[T any] struct {
	subscribers map[uuid.UUID]*Subscription[T]
	bufferSize  int
	closed      bool
	mu          sync.RWMutex
	wg          sync.WaitGroup
}

// New creates a broadcaster whose subscribers buffer up to bufferSize values.
// A minimum buffer size of 1 is enforced.
func New[T any](bufferSize int) *Broadcaster[T] {
	return &Broadcaster[T]{
		subscribers: make(map[uuid.UUID]*Subscription[T]),
		bufferSize:  max(bufferSize, 1),
	}
}

// Subscribe registers a subscription that lives until ctx is done,
// Unsubscribe is called, or the broadcaster is closed. Subscribing to a
// closed broadcaster returns an already-closed subscription.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) *Subscription[T] {
	sub := &Subscription[T]{
		id:   uuid.New(),
		ch:   make(chan T, b.bufferSize),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		sub.close()
		return sub
	}
	b.subscribers[sub.id] = sub

	if ctx.Done() != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			select {
			case <-ctx.Done():
				b.Unsubscribe(sub.id)
			case <-sub.done:
			}
		}()
	}

	return sub
}

// Unsubscribe removes and closes the subscription with the given id.
func (b *Broadcaster[T]) Unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	sub, ok := b.subscribers[id]
	delete(b.subscribers, id)
	b.mu.Unlock()

	if ok {
		sub.close()
	}
}

// Publish delivers v to every subscriber with buffer space and returns how
// many received it.
func (b *Broadcaster[T]) Publish(v T) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0
	}

	delivered := 0
	for _, sub := range b.subscribers {
		if sub.send(v) {
			delivered++
		}
	}
	return delivered
}

// Len returns the number of active subscriptions.
func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes every subscription. Safe to call multiple times.
func (b *Broadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for id, sub := range b.subscribers {
		sub.close()
		delete(b.subscribers, id)
	}
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}
