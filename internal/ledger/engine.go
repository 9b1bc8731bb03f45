package ledger

import (
	"context"
	"sync"
	"time"
)

// Engine is the shared-ledger authorization engine. All mutations are serialized: an operation is
// validated, applied to the store, and its events are published before the next one starts.
// No lock is held while a payout is transferred.
type Engine struct {
	store     Store
	transfer  Transferer
	publisher Publisher
	now       func() time.Time

	mu sync.Mutex
}

// New creates an engine over store. A nil publisher discards events.
func New(store Store, transfer Transferer, publisher Publisher) *Engine {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &Engine{
		store:     store,
		transfer:  transfer,
		publisher: publisher,
		now:       time.Now,
	}
}

type emitFunc func(Event)

func (e *Engine) update(ctx context.Context, fn func(tx Tx, emit emitFunc) error) error {
	if InTransfer(ctx) {
		return ErrReentrantCall
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var pending []Event
	err := e.store.Update(ctx, func(tx Tx) error {
		pending = pending[:0]
		return fn(tx, func(ev Event) {
			pending = append(pending, ev)
		})
	})
	if err != nil {
		return err
	}

	e.stamp(pending)
	e.publisher.Publish(pending...)

	return nil
}

// publish emits events committed by an earlier update.
func (e *Engine) publish(events ...Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stamp(events)
	e.publisher.Publish(events...)
}

func (e *Engine) stamp(events []Event) {
	now := e.now()
	for i := range events {
		events[i].OccurredAt = now
	}
}

func (e *Engine) view(ctx context.Context, fn func(tx Tx) error) error {
	return e.store.View(ctx, fn)
}
