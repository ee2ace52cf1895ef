//go:generate go run go.uber.org/mock/mockgen -source=bus.go -destination=../mocks/mock_publisher.go -package=mocks
package chat

import (
	"context"
	"errors"
	"sync"
)

// DefaultBacklog is the number of undelivered events a subscription holds
// before the oldest ones are dropped.
const DefaultBacklog = 100

var (
	// ErrBusClosed is returned by Subscribe after the bus has been closed.
	ErrBusClosed = errors.New("chat: bus closed")

	// ErrSubscriptionClosed is returned by Next once a closed subscription has been drained.
	ErrSubscriptionClosed = errors.New("chat: subscription closed")
)

// Publisher accepts events for fan-out.
type Publisher interface {
	Publish(evt Event)
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBacklog sets the per-subscriber queue depth. Values below one keep the default.
func WithBacklog(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.backlog = n
		}
	}
}

// Bus delivers every published event to every subscription that existed when
// the event was published, in publish order. Each subscription drains at its own
// pace; a subscriber that falls more than its backlog behind loses the oldest
// undelivered events instead of slowing the publisher down.
type Bus struct {
	mu          sync.Mutex
	subscribers map[uint64]*Subscription
	nextID      uint64
	backlog     int
	closed      bool
}

// NewBus constructs an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subscribers: make(map[uint64]*Subscription),
		backlog:     DefaultBacklog,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish enqueues evt on every current subscription. It never blocks on a consumer.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, sub := range b.subscribers {
		sub.deliver(evt)
	}
}

// Subscribe returns a subscription that observes events published from now on.
func (b *Bus) Subscribe() (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		bus:    b,
		queue:  newBacklog(b.backlog),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	b.subscribers[sub.id] = sub
	return sub, nil
}

// Unsubscribe detaches sub from the bus. Calling it more than once is a no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	delete(b.subscribers, sub.id)
	b.mu.Unlock()

	sub.markClosed(true)
}

// Subscribers reports the number of attached subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Close detaches every subscription. Events already queued can still be drained
// with Next; later publishes are discarded.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subscribers))
	for id, sub := range b.subscribers {
		subs = append(subs, sub)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.markClosed(false)
	}
}

// Subscription is one consumer's view of the bus.
type Subscription struct {
	id  uint64
	bus *Bus

	mu     sync.Mutex
	queue  *backlog
	closed bool

	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

// Next returns the oldest undelivered event, blocking until one is published,
// ctx is done, or the subscription is closed and drained.
func (s *Subscription) Next(ctx context.Context) (Event, error) {
	for {
		s.mu.Lock()
		if evt, ok := s.queue.pop(); ok {
			s.mu.Unlock()
			return evt, nil
		}
		closed := s.closed
		s.mu.Unlock()

		if closed {
			return nil, ErrSubscriptionClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.notify:
		case <-s.done:
		}
	}
}

// Pending reports how many events are queued and not yet returned by Next.
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.len()
}

// Dropped reports how many events were evicted because the backlog was full.
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.drops
}

// Close detaches the subscription from its bus and discards queued events.
func (s *Subscription) Close() {
	s.bus.Unsubscribe(s)
}

func (s *Subscription) deliver(evt Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue.push(evt)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) markClosed(discard bool) {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		if discard {
			s.queue.reset()
		}
		s.mu.Unlock()
		close(s.done)
	})
}
