package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Renal37/bankaccount/internal/ledger"
)

type webhook struct {
	mu       sync.Mutex
	received []ledger.Event
	fail     atomic.Int32
	status   int
}

func (wh *webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if wh.fail.Load() > 0 {
		wh.fail.Add(-1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(wh.status)
		return
	}

	var event ledger.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	wh.mu.Lock()
	wh.received = append(wh.received, event)
	wh.mu.Unlock()
}

func (wh *webhook) events() []ledger.Event {
	wh.mu.Lock()
	defer wh.mu.Unlock()

	return append([]ledger.Event(nil), wh.received...)
}

func newTestNotifier(t *testing.T, endpoint string) (*Notifier, *JobQueueService) {
	t.Helper()

	queue := NewJobQueueService(context.Background(), 16, 1)
	notifier := NewNotifier(queue, endpoint)
	notifier.delay = time.Millisecond

	return notifier, queue
}

func TestNotifierDeliversInOrder(t *testing.T) {
	wh := &webhook{}
	ts := httptest.NewServer(wh)
	defer ts.Close()

	notifier, queue := newTestNotifier(t, ts.URL)
	notifier.Publish(
		ledger.Event{Seq: 1, Kind: ledger.EventAccountCreated},
		ledger.Event{Seq: 2, Kind: ledger.EventDeposit, Amount: 100},
	)
	notifier.Publish(ledger.Event{Seq: 3, Kind: ledger.EventWithdrawRequested, Amount: 100})
	queue.Shutdown()

	received := wh.events()
	require.Len(t, received, 3)
	for i, event := range received {
		assert.Equal(t, uint64(i+1), event.Seq)
	}
	assert.Equal(t, uint64(100), received[1].Amount)
}

func TestNotifierRetries(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		wh := &webhook{status: status}
		wh.fail.Store(2)
		ts := httptest.NewServer(wh)

		notifier, queue := newTestNotifier(t, ts.URL)
		notifier.Publish(ledger.Event{Seq: 1, Kind: ledger.EventDeposit})
		queue.Shutdown()
		ts.Close()

		assert.Len(t, wh.events(), 1, "status %d", status)
	}
}

func TestNotifierGivesUpOnRejection(t *testing.T) {
	wh := &webhook{status: http.StatusBadRequest}
	wh.fail.Store(1)
	ts := httptest.NewServer(wh)
	defer ts.Close()

	notifier, queue := newTestNotifier(t, ts.URL)
	notifier.Publish(
		ledger.Event{Seq: 1, Kind: ledger.EventDeposit},
		ledger.Event{Seq: 2, Kind: ledger.EventDeposit},
	)
	queue.Shutdown()

	received := wh.events()
	require.Len(t, received, 1)
	assert.Equal(t, uint64(2), received[0].Seq)
}
