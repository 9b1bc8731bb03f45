package payout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Renal37/bankaccount/internal/ledger"
)

func TestClientTransfer(t *testing.T) {
	var got transferRequest
	var key string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, transferPath, r.URL.Path)

		key = r.Header.Get("Idempotency-Key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	payout := ledger.Payout{Recipient: "alice", Amount: 100, AccountID: 3, WithdrawID: 7}
	err := NewClient(ts.URL).Transfer(context.Background(), payout)

	require.NoError(t, err)
	assert.Equal(t, "3-7", key)
	assert.Equal(t, transferRequest{Recipient: "alice", Amount: 100, Reference: "3-7"}, got)
}

func TestClientTransferRejected(t *testing.T) {
	var calls atomic.Int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "recipient is blocked", http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	err := NewClient(ts.URL).Transfer(context.Background(), ledger.Payout{Recipient: "bob", Amount: 1})

	assert.ErrorIs(t, err, ErrGatewayRejected)
	assert.Contains(t, err.Error(), "recipient is blocked")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientTransferUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	err := NewClient(ts.URL).Transfer(context.Background(), ledger.Payout{Recipient: "bob", Amount: 1})

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrGatewayRejected)
}

func TestClientCollect(t *testing.T) {
	var (
		paths []string
		keys  []string
		got   collectionRequest
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	deposit := ledger.Deposit{Payer: "alice", Amount: 100, AccountID: 2, Reference: "d1"}

	require.NoError(t, client.Collect(context.Background(), deposit))
	require.NoError(t, client.Refund(context.Background(), deposit))

	assert.Equal(t, []string{collectionPath, refundPath}, paths)
	assert.Equal(t, []string{"d1", "refund-d1"}, keys)
	assert.Equal(t, collectionRequest{Payer: "alice", AccountID: 2, Amount: 100, Reference: "d1"}, got)
}

func TestClientCollectInsufficientFunds(t *testing.T) {
	var calls atomic.Int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "balance is 20", http.StatusPaymentRequired)
	}))
	defer ts.Close()

	err := NewClient(ts.URL).Collect(context.Background(), ledger.Deposit{Payer: "alice", Amount: 100, Reference: "d1"})

	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	client.delay = time.Millisecond

	err := client.Transfer(context.Background(), ledger.Payout{Recipient: "alice", Amount: 1})

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}
