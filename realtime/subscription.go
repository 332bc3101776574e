package realtime

import (
	"context"
	"time"

	"inkwell/common"
	"inkwell/metrics"
)

// Snapshot is the complete, ordered result of a subscribed query. A
// consumer replaces its local state with Items; it never patches.
type Snapshot[T any] struct {
	Items []T
	Err   error
	At    time.Time
}

// Fetch runs the subscribed query.
type Fetch[T any] func(ctx context.Context) ([]T, error)

// Subscription delivers a snapshot immediately and another after every
// change to its collection until cancelled.
type Subscription[T any] struct {
	events chan Snapshot[T]
	cancel context.CancelFunc
	done   chan struct{}
}

// Subscribe starts a subscription on collection. It ends when Cancel is
// called or ctx is done; the Events channel is closed afterwards.
func Subscribe[T any](ctx context.Context, feed *Feed, collection string, fetch Fetch[T]) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)

	// Register before the first fetch so no change slips between them.
	changes, stop := feed.Watch(collection)

	s := &Subscription[T]{
		events: make(chan Snapshot[T], 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	metrics.SubscriptionsActive.WithLabelValues(collection).Inc()
	go s.run(ctx, collection, changes, stop, fetch)
	return s
}

func (s *Subscription[T]) run(ctx context.Context, collection string, changes <-chan struct{}, stop func(), fetch Fetch[T]) {
	log := common.Logger("realtime")
	defer close(s.done)
	defer close(s.events)
	defer metrics.SubscriptionsActive.WithLabelValues(collection).Dec()
	defer stop()

	for {
		items, err := fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn().Err(err).Str(common.COLLECTION, collection).Msg("subscription fetch failed")
		}
		s.deliver(Snapshot[T]{Items: items, Err: err, At: time.Now().UTC()})
		metrics.SubscriptionSnapshots.WithLabelValues(collection).Inc()

		select {
		case <-ctx.Done():
			return
		case <-changes:
		}
	}
}

// deliver replaces an unread snapshot with the newer one. Only run sends,
// so after the drain there is room in the buffer.
func (s *Subscription[T]) deliver(snap Snapshot[T]) {
	select {
	case <-s.events:
	default:
	}
	s.events <- snap
}

// Events returns the snapshot channel. It is closed when the subscription
// ends.
func (s *Subscription[T]) Events() <-chan Snapshot[T] {
	return s.events
}

// Cancel releases the subscription and waits for its goroutine to exit.
// It is safe to call more than once.
func (s *Subscription[T]) Cancel() {
	s.cancel()
	<-s.done
}

// Done is closed once the subscription has fully stopped.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}
