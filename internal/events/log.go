// Package events fans committed ledger events out to live subscribers.
package events

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v2"

	"github.com/Renal37/bankaccount/internal/ledger"
)

const DefaultBuffer = 64

// subscriber owns its channel. mu makes a send and the close of ch mutually exclusive.
type subscriber struct {
	mu     sync.Mutex
	ch     chan ledger.Event
	done   chan struct{}
	closed bool
}

func newSubscriber(buffer int) *subscriber {
	return &subscriber{
		ch:   make(chan ledger.Event, buffer),
		done: make(chan struct{}),
	}
}

// send reports false when the buffer of the subscriber is full.
func (s *subscriber) send(event ledger.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return true
	}
	select {
	case s.ch <- event:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	close(s.ch)
	close(s.done)
}

// Log numbers published events and delivers them to subscribers in publication order.
// A subscriber that does not keep up is dropped and its channel is closed.
//
// Publications are serialized by mu. Subscribing and unsubscribing only touch the concurrent
// registry, so they never wait for a publication in progress.
type Log struct {
	mu     sync.Mutex
	seq    uint64
	sinks  []ledger.Publisher
	buffer int

	nextID      atomic.Uint64
	closed      atomic.Bool
	subscribers *xsync.MapOf[uint64, *subscriber]
	watchers    sync.WaitGroup
}

var _ ledger.Publisher = (*Log)(nil)

// NewLog creates a log whose subscribers hold up to buffer undelivered events.
// Sinks receive every event synchronously, after it got its sequence number.
func NewLog(buffer int, sinks ...ledger.Publisher) *Log {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Log{
		buffer:      buffer,
		subscribers: xsync.NewIntegerMapOf[uint64, *subscriber](),
		sinks:       sinks,
	}
}

func (l *Log) Publish(events ...ledger.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, event := range events {
		l.seq++
		event.Seq = l.seq
		eventPublished(event.Kind)

		l.subscribers.Range(func(id uint64, sub *subscriber) bool {
			if !sub.send(event) && l.drop(id) {
				droppedSubscribers.Inc()
			}
			return true
		})

		for _, sink := range l.sinks {
			sink.Publish(event)
		}
	}
}

// Subscribe returns a channel of the events published from now on. The channel is closed when ctx is
// done, when the subscriber falls behind, or when the log is closed.
func (l *Log) Subscribe(ctx context.Context) <-chan ledger.Event {
	sub := newSubscriber(l.buffer)
	if l.closed.Load() {
		sub.close()
		return sub.ch
	}

	id := l.nextID.Add(1)
	l.subscribers.Store(id, sub)
	activeSubscribers.Inc()

	// Close may have swept the registry before the subscriber got into it
	if l.closed.Load() {
		l.drop(id)
		return sub.ch
	}

	l.watchers.Add(1)
	go func() {
		defer l.watchers.Done()

		select {
		case <-ctx.Done():
			l.drop(id)
		case <-sub.done:
		}
	}()

	return sub.ch
}

// Subscribers returns the number of live subscribers.
func (l *Log) Subscribers() int {
	return l.subscribers.Size()
}

// Close ends every subscription. Events published afterwards still reach the sinks.
func (l *Log) Close() {
	l.closed.Store(true)
	l.subscribers.Range(func(id uint64, _ *subscriber) bool {
		l.drop(id)
		return true
	})
}

// drop removes the subscriber and closes its channel. Only the first call for an id succeeds.
func (l *Log) drop(id uint64) bool {
	sub, ok := l.subscribers.LoadAndDelete(id)
	if !ok {
		return false
	}
	sub.close()
	activeSubscribers.Dec()
	return true
}
