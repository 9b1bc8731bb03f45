package payout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Renal37/bankaccount/internal/ledger"
)

func TestWalletTransfer(t *testing.T) {
	wallet := NewWallet()

	require.NoError(t, wallet.Transfer(context.Background(), ledger.Payout{Recipient: "alice", Amount: 100}))
	require.NoError(t, wallet.Transfer(context.Background(), ledger.Payout{Recipient: "alice", Amount: 20}))

	assert.Equal(t, uint64(120), wallet.Balance("alice"))
	assert.Zero(t, wallet.Balance("bob"))
}

func TestWalletReject(t *testing.T) {
	wallet := NewWallet()
	wallet.Reject("bob")

	err := wallet.Transfer(context.Background(), ledger.Payout{Recipient: "bob", Amount: 10})

	assert.ErrorIs(t, err, ErrRecipientRejected)
	assert.Zero(t, wallet.Balance("bob"))
}

func TestWalletHook(t *testing.T) {
	wallet := NewWallet()
	errHook := errors.New("hook failed")

	var seen ledger.Payout
	wallet.OnTransfer(func(_ context.Context, payout ledger.Payout) error {
		seen = payout
		return errHook
	})

	payout := ledger.Payout{Recipient: "alice", Amount: 5, AccountID: 1, WithdrawID: 2}
	err := wallet.Transfer(context.Background(), payout)

	assert.ErrorIs(t, err, errHook)
	assert.Equal(t, payout, seen)
	assert.Zero(t, wallet.Balance("alice"))
}

func TestWalletCollect(t *testing.T) {
	ctx := context.Background()
	wallet := NewWallet()
	wallet.Fund("alice", 150)

	deposit := ledger.Deposit{Payer: "alice", Amount: 100, AccountID: 0, Reference: "ref"}
	require.NoError(t, wallet.Collect(ctx, deposit))
	assert.Equal(t, uint64(50), wallet.Balance("alice"))

	err := wallet.Collect(ctx, deposit)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.Equal(t, uint64(50), wallet.Balance("alice"))

	require.NoError(t, wallet.Refund(ctx, deposit))
	assert.Equal(t, uint64(150), wallet.Balance("alice"))
}

func TestWalletOpeningBalance(t *testing.T) {
	ctx := context.Background()
	wallet := NewWallet(WithOpeningBalance(1000))

	assert.Equal(t, uint64(1000), wallet.Balance("alice"))
	require.NoError(t, wallet.Collect(ctx, ledger.Deposit{Payer: "bob", Amount: 400}))
	assert.Equal(t, uint64(600), wallet.Balance("bob"))

	require.NoError(t, wallet.Transfer(ctx, ledger.Payout{Recipient: "carol", Amount: 1}))
	assert.Equal(t, uint64(1001), wallet.Balance("carol"))
}
