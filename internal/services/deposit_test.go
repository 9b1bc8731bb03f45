package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Renal37/bankaccount/internal/ledger"
	"github.com/Renal37/bankaccount/internal/memory"
	"github.com/Renal37/bankaccount/internal/payout"
)

func newDepositFixture(t *testing.T) (*ledger.Engine, *payout.Wallet, uint64) {
	wallet := payout.NewWallet()
	engine := ledger.New(memory.New(), wallet, nil)

	id, err := engine.CreateAccount(context.Background(), "alice", []ledger.Identity{"bob"})
	require.NoError(t, err)

	return engine, wallet, id
}

func TestDepositMovesFunds(t *testing.T) {
	ctx := context.Background()
	engine, wallet, id := newDepositFixture(t)
	wallet.Fund("alice", 150)

	require.NoError(t, NewDepositService(engine, wallet).Deposit(ctx, "alice", id, 100))

	balance, err := engine.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)
	assert.Equal(t, uint64(50), wallet.Balance("alice"))
}

func TestDepositWithoutFunds(t *testing.T) {
	ctx := context.Background()
	engine, wallet, id := newDepositFixture(t)
	wallet.Fund("alice", 20)

	err := NewDepositService(engine, wallet).Deposit(ctx, "alice", id, 100)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	balance, err := engine.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, balance)
	assert.Equal(t, uint64(20), wallet.Balance("alice"))
}

func TestRejectedDepositIsRefunded(t *testing.T) {
	ctx := context.Background()
	engine, wallet, id := newDepositFixture(t)
	wallet.Fund("mallory", 100)

	err := NewDepositService(engine, wallet).Deposit(ctx, "mallory", id, 100)
	assert.ErrorIs(t, err, ledger.ErrNotOwner)
	assert.Equal(t, uint64(100), wallet.Balance("mallory"))

	err = NewDepositService(engine, wallet).Deposit(ctx, "mallory", 42, 100)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	assert.Equal(t, uint64(100), wallet.Balance("mallory"))
}

type failingCollector struct {
	collectErr error
	refundErr  error
	refunded   int
}

func (c *failingCollector) Collect(context.Context, ledger.Deposit) error {
	return c.collectErr
}

func (c *failingCollector) Refund(context.Context, ledger.Deposit) error {
	c.refunded++
	return c.refundErr
}

func TestDepositGatewayFailures(t *testing.T) {
	ctx := context.Background()
	errGateway := errors.New("gateway is down")

	t.Run("Should report a failed collection as a failed transfer", func(t *testing.T) {
		engine, _, id := newDepositFixture(t)
		collector := &failingCollector{collectErr: errGateway}

		err := NewDepositService(engine, collector).Deposit(ctx, "alice", id, 10)
		assert.ErrorIs(t, err, ledger.ErrTransferFailed)
		assert.ErrorIs(t, err, errGateway)
		assert.Zero(t, collector.refunded)
	})

	t.Run("Should report both errors when the refund fails", func(t *testing.T) {
		engine, _, id := newDepositFixture(t)
		collector := &failingCollector{refundErr: errGateway}

		err := NewDepositService(engine, collector).Deposit(ctx, "mallory", id, 10)
		assert.ErrorIs(t, err, ledger.ErrNotOwner)
		assert.ErrorIs(t, err, errGateway)
		assert.Equal(t, 1, collector.refunded)
	})
}
