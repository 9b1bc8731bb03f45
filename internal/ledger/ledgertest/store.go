// Package ledgertest holds the behaviour every ledger.Store implementation must share. Store packages
// run it from their own tests with a constructor for a fresh, empty store.
package ledgertest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Renal37/bankaccount/internal/ledger"
)

// StoreConstructor returns an empty store. Cleanup is registered on t.
type StoreConstructor func(t *testing.T) ledger.Store

type TestSuite struct {
	open StoreConstructor
}

func NewTestSuite(open StoreConstructor) *TestSuite {
	return &TestSuite{open: open}
}

// RunStore runs the store primitive tests as subtests of t.
func (s *TestSuite) RunStore(t *testing.T) {
	t.Run("Accounts", s.Accounts)
	t.Run("Withdrawals", s.Withdrawals)
	t.Run("Rollback", s.Rollback)
}

func update(t *testing.T, store ledger.Store, fn func(tx ledger.Tx) error) {
	t.Helper()
	require.NoError(t, store.Update(context.Background(), fn))
}

func view(t *testing.T, store ledger.Store, fn func(tx ledger.Tx) error) {
	t.Helper()
	require.NoError(t, store.View(context.Background(), fn))
}

func (s *TestSuite) Accounts(t *testing.T) {
	ctx := context.Background()
	store := s.open(t)

	update(t, store, func(tx ledger.Tx) error {
		first, err := tx.InsertAccount(ctx, []ledger.Identity{"alice", "bob"})
		require.NoError(t, err)
		assert.Equal(t, uint64(0), first.ID)
		assert.Zero(t, first.Balance)

		second, err := tx.InsertAccount(ctx, []ledger.Identity{"bob"})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), second.ID)

		return tx.SetBalance(ctx, first.ID, 100)
	})

	view(t, store, func(tx ledger.Tx) error {
		account, err := tx.Account(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []ledger.Identity{"alice", "bob"}, account.Owners)
		assert.Equal(t, uint64(100), account.Balance)

		_, err = tx.Account(ctx, 2)
		assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

		ids, err := tx.AccountsOf(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, []uint64{0, 1}, ids)

		ids, err = tx.AccountsOf(ctx, "carol")
		require.NoError(t, err)
		assert.Empty(t, ids)

		return nil
	})

	err := store.Update(ctx, func(tx ledger.Tx) error {
		return tx.SetBalance(ctx, 7, 1)
	})
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func (s *TestSuite) Withdrawals(t *testing.T) {
	ctx := context.Background()
	store := s.open(t)

	update(t, store, func(tx ledger.Tx) error {
		for i := 0; i < 2; i++ {
			account, err := tx.InsertAccount(ctx, []ledger.Identity{"alice", "bob", "carol"})
			require.NoError(t, err)
			require.NoError(t, tx.SetBalance(ctx, account.ID, 100))
		}

		for want := uint64(0); want < 3; want++ {
			w, err := tx.InsertWithdrawal(ctx, 0, "alice", 10)
			require.NoError(t, err)
			assert.Equal(t, want, w.ID)
		}

		other, err := tx.InsertWithdrawal(ctx, 1, "bob", 5)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), other.ID)

		require.NoError(t, tx.AddApproval(ctx, 0, 1, "carol"))
		require.NoError(t, tx.AddApproval(ctx, 0, 1, "bob"))
		return tx.MarkExecuted(ctx, 0, 1)
	})

	view(t, store, func(tx ledger.Tx) error {
		w, err := tx.Withdrawal(ctx, 0, 1)
		require.NoError(t, err)
		assert.Equal(t, ledger.Identity("alice"), w.Creator)
		assert.Equal(t, uint64(10), w.Amount)
		assert.Equal(t, []ledger.Identity{"carol", "bob"}, w.Approvals)
		assert.True(t, w.Executed)

		w, err = tx.Withdrawal(ctx, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, w.Approvals)
		assert.False(t, w.Executed)

		_, err = tx.Withdrawal(ctx, 0, 3)
		assert.ErrorIs(t, err, ledger.ErrRequestNotFound)
		_, err = tx.Withdrawal(ctx, 1, 1)
		assert.ErrorIs(t, err, ledger.ErrRequestNotFound)

		pending, err := tx.PendingWithdrawals(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []uint64{0, 2}, pending)

		pending, err = tx.PendingWithdrawals(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []uint64{0}, pending)

		return nil
	})

	err := store.Update(ctx, func(tx ledger.Tx) error {
		return tx.MarkExecuted(ctx, 0, 1)
	})
	assert.ErrorIs(t, err, ledger.ErrAlreadyExecuted)

	err = store.Update(ctx, func(tx ledger.Tx) error {
		return tx.MarkExecuted(ctx, 0, 9)
	})
	assert.ErrorIs(t, err, ledger.ErrRequestNotFound)

	update(t, store, func(tx ledger.Tx) error {
		return tx.ClearExecuted(ctx, 0, 1)
	})
	view(t, store, func(tx ledger.Tx) error {
		w, err := tx.Withdrawal(ctx, 0, 1)
		require.NoError(t, err)
		assert.False(t, w.Executed)
		assert.Equal(t, []ledger.Identity{"carol", "bob"}, w.Approvals)

		pending, err := tx.PendingWithdrawals(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []uint64{0, 1, 2}, pending)
		return nil
	})

	err = store.Update(ctx, func(tx ledger.Tx) error {
		return tx.ClearExecuted(ctx, 0, 9)
	})
	assert.ErrorIs(t, err, ledger.ErrRequestNotFound)
}

func (s *TestSuite) Rollback(t *testing.T) {
	ctx := context.Background()
	store := s.open(t)
	errAbort := errors.New("abort")

	update(t, store, func(tx ledger.Tx) error {
		_, err := tx.InsertAccount(ctx, []ledger.Identity{"alice"})
		require.NoError(t, err)
		return tx.SetBalance(ctx, 0, 50)
	})

	err := store.Update(ctx, func(tx ledger.Tx) error {
		require.NoError(t, tx.SetBalance(ctx, 0, 0))
		_, err := tx.InsertWithdrawal(ctx, 0, "alice", 50)
		require.NoError(t, err)
		_, err = tx.InsertAccount(ctx, []ledger.Identity{"alice", "bob"})
		require.NoError(t, err)
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	view(t, store, func(tx ledger.Tx) error {
		account, err := tx.Account(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(50), account.Balance)

		_, err = tx.Account(ctx, 1)
		assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

		_, err = tx.Withdrawal(ctx, 0, 0)
		assert.ErrorIs(t, err, ledger.ErrRequestNotFound)

		ids, err := tx.AccountsOf(ctx, "bob")
		require.NoError(t, err)
		assert.Empty(t, ids)

		return nil
	})

	update(t, store, func(tx ledger.Tx) error {
		account, err := tx.InsertAccount(ctx, []ledger.Identity{"bob"})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), account.ID)

		w, err := tx.InsertWithdrawal(ctx, 0, "alice", 10)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), w.ID)
		return nil
	})
}
