package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Renal37/bankaccount/internal/ledger"
	"github.com/Renal37/bankaccount/internal/ledger/ledgertest"
	"github.com/Renal37/bankaccount/internal/memory"
)

func newSuite() *ledgertest.TestSuite {
	return ledgertest.NewTestSuite(func(t *testing.T) ledger.Store {
		return memory.New()
	})
}

func TestEngine(t *testing.T) {
	newSuite().RunEngine(t)
}

func TestRequiredApprovals(t *testing.T) {
	tests := []struct {
		owners int
		want   int
	}{
		{owners: 1, want: 0},
		{owners: 2, want: 1},
		{owners: 3, want: 2},
		{owners: 4, want: 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d owners", tt.owners), func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.RequiredApprovals(tt.owners))
		})
	}
}

func TestReason(t *testing.T) {
	assert.Equal(t, "NotOwner", ledger.Reason(ledger.ErrNotOwner))
	assert.Equal(t, "AccountLimitExceeded", ledger.Reason(fmt.Errorf("%w: alice", ledger.ErrAccountLimitExceeded)))
	assert.Equal(t, "TransferFailed", ledger.Reason(fmt.Errorf("%w: %w", ledger.ErrTransferFailed, errors.New("boom"))))
	assert.Equal(t, "Internal", ledger.Reason(errors.New("boom")))
}

func TestConcurrentDeposits(t *testing.T) {
	ctx := context.Background()
	f := newSuite().Fixture(t)
	owners := []ledger.Identity{"alice", "bob", "carol", "dave"}
	id := f.Account(t, 0, owners...)

	var wg conc.WaitGroup
	for i := 0; i < 100; i++ {
		owner := owners[i%len(owners)]
		wg.Go(func() {
			assert.NoError(t, f.Engine.Deposit(ctx, owner, id, 3))
		})
	}
	wg.Wait()

	balance, err := f.Engine.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), balance)

	events := f.Events.Events()
	require.Len(t, events, 101)
	for i, event := range events[1:] {
		assert.False(t, event.OccurredAt.Before(events[i].OccurredAt))
	}
}

func TestConcurrentWithdrawExecutesOnce(t *testing.T) {
	ctx := context.Background()
	f := newSuite().Fixture(t)
	id := f.Account(t, 100, "alice", "bob")

	wid, err := f.Engine.RequestWithdraw(ctx, "alice", id, 100)
	require.NoError(t, err)
	require.NoError(t, f.Engine.ApproveWithdraw(ctx, "bob", id, wid))

	var succeeded, executed atomic.Int32
	var wg conc.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Go(func() {
			err := f.Engine.Withdraw(ctx, "alice", id, wid)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ledger.ErrAlreadyExecuted):
				executed.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(19), executed.Load())
	assert.Equal(t, uint64(100), f.Wallet.Balance("alice"))
}

func TestCanceledContext(t *testing.T) {
	f := newSuite().Fixture(t)
	id := f.Account(t, 0, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.Engine.Deposit(ctx, "alice", id, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, f.Events.Events(), 1)
}

func TestFailedTransferIsRevertedAfterCancel(t *testing.T) {
	f := newSuite().Fixture(t)
	id := f.Account(t, 100, "alice", "bob")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wid, err := f.Engine.RequestWithdraw(ctx, "alice", id, 70)
	require.NoError(t, err)
	require.NoError(t, f.Engine.ApproveWithdraw(ctx, "bob", id, wid))

	errGatewayTimeout := errors.New("gateway timeout")
	f.Wallet.OnTransfer(func(context.Context, ledger.Payout) error {
		cancel()
		return errGatewayTimeout
	})

	err = f.Engine.Withdraw(ctx, "alice", id, wid)
	assert.ErrorIs(t, err, ledger.ErrTransferFailed)
	assert.ErrorIs(t, err, errGatewayTimeout)

	balance, err := f.Engine.GetBalance(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)

	pending, err := f.Engine.GetPendingWithdrawals(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []uint64{wid}, pending)
}
