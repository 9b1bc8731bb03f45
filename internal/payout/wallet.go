// Package payout moves value across the ledger boundary: deposits in and executed withdrawals out.
package payout

import (
	"context"
	"errors"
	"sync"

	"github.com/Renal37/bankaccount/internal/ledger"
)

// ErrRecipientRejected is returned for transfers to a recipient marked with Reject
var ErrRecipientRejected = errors.New("recipient rejected the transfer")

// Wallet is an in-process custody wallet holding the balances of identities outside the ledger.
// Deposits are collected from it and payouts are credited to it, so value is only ever moved.
type Wallet struct {
	mu       sync.Mutex
	opening  uint64
	balances map[ledger.Identity]uint64
	rejected map[ledger.Identity]struct{}
	hook     func(ctx context.Context, payout ledger.Payout) error
}

var (
	_ ledger.Transferer = (*Wallet)(nil)
	_ ledger.Collector  = (*Wallet)(nil)
)

// WalletOption configures a Wallet
type WalletOption func(*Wallet)

// WithOpeningBalance credits amount to every identity the wallet sees for the first time.
func WithOpeningBalance(amount uint64) WalletOption {
	return func(w *Wallet) {
		w.opening = amount
	}
}

// NewWallet creates an empty wallet
func NewWallet(opts ...WalletOption) *Wallet {
	w := &Wallet{
		balances: make(map[ledger.Identity]uint64),
		rejected: make(map[ledger.Identity]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// balance must be called with mu held.
func (w *Wallet) balance(id ledger.Identity) uint64 {
	balance, ok := w.balances[id]
	if !ok {
		balance = w.opening
		w.balances[id] = balance
	}
	return balance
}

// Fund credits amount to id from outside the system.
func (w *Wallet) Fund(id ledger.Identity, amount uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.balances[id] = w.balance(id) + amount
}

// Reject makes every later transfer to recipient fail.
func (w *Wallet) Reject(recipient ledger.Identity) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rejected[recipient] = struct{}{}
}

// OnTransfer installs fn to run as the recipient side of a transfer, before the amount is credited.
// An error returned by fn fails the transfer.
func (w *Wallet) OnTransfer(fn func(ctx context.Context, payout ledger.Payout) error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.hook = fn
}

// Transfer runs the hook and credits the payout to its recipient
func (w *Wallet) Transfer(ctx context.Context, payout ledger.Payout) error {
	w.mu.Lock()
	_, rejected := w.rejected[payout.Recipient]
	hook := w.hook
	w.mu.Unlock()

	if rejected {
		return ErrRecipientRejected
	}
	if hook != nil {
		if err := hook(ctx, payout); err != nil {
			return err
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.balances[payout.Recipient] = w.balance(payout.Recipient) + payout.Amount

	return nil
}

// Collect debits the payer of deposit.
func (w *Wallet) Collect(_ context.Context, deposit ledger.Deposit) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	balance := w.balance(deposit.Payer)
	if balance < deposit.Amount {
		return ledger.ErrInsufficientFunds
	}
	w.balances[deposit.Payer] = balance - deposit.Amount

	return nil
}

// Refund credits a collected deposit back to its payer.
func (w *Wallet) Refund(_ context.Context, deposit ledger.Deposit) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.balances[deposit.Payer] = w.balance(deposit.Payer) + deposit.Amount

	return nil
}

// Balance returns the amount id holds in the wallet.
func (w *Wallet) Balance(id ledger.Identity) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.balance(id)
}
