package events

import (
	"context"
	"testing"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Renal37/bankaccount/internal/ledger"
)

type recorder struct {
	events []ledger.Event
}

func (r *recorder) Publish(events ...ledger.Event) {
	r.events = append(r.events, events...)
}

func receive(t *testing.T, ch <-chan ledger.Event) ledger.Event {
	t.Helper()

	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(time.Second):
		require.FailNow(t, "no event received")
	}
	return ledger.Event{}
}

func TestPublishOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &recorder{}
	log := NewLog(8, sink)
	ch := log.Subscribe(ctx)

	log.Publish(
		ledger.Event{Kind: ledger.EventAccountCreated, AccountID: 0},
		ledger.Event{Kind: ledger.EventDeposit, AccountID: 0, Amount: 100},
	)
	log.Publish(ledger.Event{Kind: ledger.EventWithdrawRequested, AccountID: 0, Amount: 50})

	for i, kind := range []ledger.EventKind{
		ledger.EventAccountCreated,
		ledger.EventDeposit,
		ledger.EventWithdrawRequested,
	} {
		event := receive(t, ch)
		assert.Equal(t, kind, event.Kind)
		assert.Equal(t, uint64(i+1), event.Seq)
	}

	require.Len(t, sink.events, 3)
	assert.Equal(t, uint64(3), sink.events[2].Seq)
}

func TestSubscribeSeesOnlyNewEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := NewLog(8)
	log.Publish(ledger.Event{Kind: ledger.EventDeposit})

	ch := log.Subscribe(ctx)
	log.Publish(ledger.Event{Kind: ledger.EventWithdraw})

	event := receive(t, ch)
	assert.Equal(t, ledger.EventWithdraw, event.Kind)
	assert.Equal(t, uint64(2), event.Seq)
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := NewLog(1)
	slow := log.Subscribe(ctx)
	require.Equal(t, 1, log.Subscribers())

	log.Publish(ledger.Event{Kind: ledger.EventDeposit}, ledger.Event{Kind: ledger.EventDeposit})

	assert.Equal(t, 0, log.Subscribers())

	event, ok := <-slow
	require.True(t, ok)
	assert.Equal(t, uint64(1), event.Seq)

	_, ok = <-slow
	assert.False(t, ok)
}

func TestCancelUnsubscribes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	log := NewLog(8)
	ch := log.Subscribe(ctx)
	cancel()

	assert.Eventually(t, func() bool {
		return log.Subscribers() == 0
	}, time.Second, 10*time.Millisecond)

	_, ok := <-ch
	assert.False(t, ok)

	log.Publish(ledger.Event{Kind: ledger.EventDeposit})
}

func TestClose(t *testing.T) {
	log := NewLog(8)
	ch := log.Subscribe(context.Background())

	log.Close()

	_, ok := <-ch
	assert.False(t, ok)

	_, ok = <-log.Subscribe(context.Background())
	assert.False(t, ok)
}

func waitWatchers(t *testing.T, log *Log) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		log.watchers.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "subscription watcher is still running")
	}
}

func TestDroppedSubscriberReleasesWatcher(t *testing.T) {
	log := NewLog(1)
	slow := log.Subscribe(context.Background())

	log.Publish(ledger.Event{Kind: ledger.EventDeposit}, ledger.Event{Kind: ledger.EventDeposit})

	for range slow {
	}
	waitWatchers(t, log)
}

func TestClosedLogReleasesWatchers(t *testing.T) {
	log := NewLog(8)
	for i := 0; i < 3; i++ {
		log.Subscribe(context.Background())
	}

	log.Close()

	assert.Equal(t, 0, log.Subscribers())
	waitWatchers(t, log)
}

func TestSubscribeWhilePublishing(t *testing.T) {
	log := NewLog(4)

	var wg conc.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Go(func() {
			for j := 0; j < 50; j++ {
				ctx, cancel := context.WithCancel(context.Background())
				ch := log.Subscribe(ctx)
				cancel()
				for range ch {
				}
			}
		})
	}
	wg.Go(func() {
		for j := 0; j < 200; j++ {
			log.Publish(ledger.Event{Kind: ledger.EventDeposit})
		}
	})
	wg.Wait()

	assert.Equal(t, 0, log.Subscribers())
	waitWatchers(t, log)
}
