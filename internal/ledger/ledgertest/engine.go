package ledgertest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Renal37/bankaccount/internal/ledger"
	"github.com/Renal37/bankaccount/internal/payout"
)

const (
	alice ledger.Identity = "alice"
	bob   ledger.Identity = "bob"
	carol ledger.Identity = "carol"
	dave  ledger.Identity = "dave"
	erin  ledger.Identity = "erin"
)

// Recorder is a ledger.Publisher that keeps everything it receives.
type Recorder struct {
	mu     sync.Mutex
	events []ledger.Event
}

func (r *Recorder) Publish(events ...ledger.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, events...)
}

func (r *Recorder) Events() []ledger.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]ledger.Event(nil), r.events...)
}

func (r *Recorder) Kinds() []ledger.EventKind {
	var kinds []ledger.EventKind
	for _, event := range r.Events() {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

// Fixture is an engine over a fresh store, paying out into an in-memory wallet.
type Fixture struct {
	Engine *ledger.Engine
	Wallet *payout.Wallet
	Events *Recorder
}

func (s *TestSuite) Fixture(t *testing.T) *Fixture {
	wallet := payout.NewWallet()
	events := &Recorder{}

	return &Fixture{
		Engine: ledger.New(s.open(t), wallet, events),
		Wallet: wallet,
		Events: events,
	}
}

// Account creates an account of owners, the first one being the caller, and deposits balance.
func (f *Fixture) Account(t *testing.T, balance uint64, owners ...ledger.Identity) uint64 {
	t.Helper()
	ctx := context.Background()

	id, err := f.Engine.CreateAccount(ctx, owners[0], owners[1:])
	require.NoError(t, err)
	if balance > 0 {
		require.NoError(t, f.Engine.Deposit(ctx, owners[0], id, balance))
	}
	return id
}

// RunEngine runs the engine scenarios as subtests of t.
func (s *TestSuite) RunEngine(t *testing.T) {
	t.Run("TwoOwnerWithdrawal", s.TwoOwnerWithdrawal)
	t.Run("RequestOverBalance", s.RequestOverBalance)
	t.Run("ThreeOwnerApprovals", s.ThreeOwnerApprovals)
	t.Run("Outsider", s.Outsider)
	t.Run("OwnerSet", s.OwnerSet)
	t.Run("AccountLimit", s.AccountLimit)
	t.Run("Deposit", s.Deposit)
	t.Run("Thresholds", s.Thresholds)
	t.Run("PendingExceedBalance", s.PendingExceedBalance)
	t.Run("TransferFailure", s.TransferFailure)
	t.Run("Reentrancy", s.Reentrancy)
	t.Run("ReentrancyWithFreshContext", s.ReentrancyWithFreshContext)
	t.Run("Reads", s.Reads)
}

func (s *TestSuite) TwoOwnerWithdrawal(t *testing.T) {
	ctx := context.Background()
	f := s.Fixture(t)
	id := f.Account(t, 100, alice, bob)

	wid, err := f.Engine.RequestWithdraw(ctx, alice, id, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), wid)

	info, err := f.Engine.GetWithdrawal(ctx, id, wid)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPending, info.State)
	assert.Equal(t, 1, info.Required)

	approvals, err := f.Engine.GetApprovals(ctx, id, wid)
	require.NoError(t, err)
	assert.Zero(t, approvals)

	require.NoError(t, f.Engine.ApproveWithdraw(ctx, bob, id, wid))

	approvals, err = f.Engine.GetApprovals(ctx, id, wid)
	require.NoError(t, err)
	assert.Equal(t, 1, approvals)

	info, err = f.Engine.GetWithdrawal(ctx, id, wid)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusApproved, info.State)

	require.NoError(t, f.Engine.Withdraw(ctx, alice, id, wid))

	balance, err := f.Engine.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, balance)
	assert.Equal(t, uint64(100), f.Wallet.Balance(alice))

	info, err = f.Engine.GetWithdrawal(ctx, id, wid)
	require.NoError(t, err)
	assert.True(t, info.Executed)
	assert.Equal(t, ledger.StatusExecuted, info.State)

	err = f.Engine.Withdraw(ctx, alice, id, wid)
	assert.ErrorIs(t, err, ledger.ErrAlreadyExecuted)
	assert.Equal(t, uint64(100), f.Wallet.Balance(alice))

	err = f.Engine.ApproveWithdraw(ctx, bob, id, wid)
	assert.ErrorIs(t, err, ledger.ErrAlreadyApproved)

	assert.Equal(t, []ledger.EventKind{
		ledger.EventAccountCreated,
		ledger.EventDeposit,
		ledger.EventWithdrawRequested,
		ledger.EventWithdrawApproved,
		ledger.EventWithdraw,
	}, f.Events.Kinds())

	events := f.Events.Events()
	assert.Equal(t, []ledger.Identity{alice, bob}, events[0].Owners)
	assert.Equal(t, 1, events[3].Approvals)
	assert.Equal(t, bob, events[3].Caller)
	assert.Equal(t, uint64(100), events[4].Amount)
	for _, event := range events {
		assert.False(t, event.OccurredAt.IsZero())
	}
}

func (s *TestSuite) RequestOverBalance(t *testing.T) {
	ctx := context.Background()
	f := s.Fixture(t)
	id := f.Account(t, 100, alice, bob)

	_, err := f.Engine.RequestWithdraw(ctx, alice, id, 101)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	pending, err := f.Engine.GetPendingWithdrawals(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, pending)

	wid, err := f.Engine.RequestWithdraw(ctx, alice, id, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), wid)
}

func (s *TestSuite) ThreeOwnerApprovals(t *testing.T) {
	ctx := context.Background()
	f := s.Fixture(t)
	id := f.Account(t, 100, alice, bob, carol)

	wid, err := f.Engine.RequestWithdraw(ctx, alice, id, 50)
	require.NoError(t, err)

	require.NoError(t, f.Engine.ApproveWithdraw(ctx, bob, id, wid))

	err = f.Engine.Withdraw(ctx, alice, id, wid)
	assert.ErrorIs(t, err, ledger.ErrNotEnoughApprovals)

	require.NoError(t, f.Engine.ApproveWithdraw(ctx, carol, id, wid))

	approvals, err := f.Engine.GetApprovals(ctx, id, wid)
	require.NoError(t, err)
	assert.Equal(t, 2, approvals)

	err = f.Engine.ApproveWithdraw(ctx, carol, id, wid)
	assert.ErrorIs(t, err, ledger.ErrAlreadyApproved)

	err = f.Engine.ApproveWithdraw(ctx, alice, id, wid)
	assert.ErrorIs(t, err, ledger.ErrSelfApproval)

	approvals, err = f.Engine.GetApprovals(ctx, id, wid)
	require.NoError(t, err)
	assert.Equal(t, 2, approvals)

	require.NoError(t, f.Engine.Withdraw(ctx, alice, id, wid))

	balance, err := f.Engine.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), balance)
}

func (s *TestSuite) Outsider(t *testing.T) {
	ctx := context.Background()
	f := s.Fixture(t)
	id := f.Account(t, 100, alice, bob)

	wid, err := f.Engine.RequestWithdraw(ctx, alice, id, 10)
	require.NoError(t, err)
	require.NoError(t, f.Engine.ApproveWithdraw(ctx, bob, id, wid))

	assert.ErrorIs(t, f.Engine.ApproveWithdraw(ctx, dave, id, wid), ledger.ErrNotOwner)
	assert.ErrorIs(t, f.Engine.Withdraw(ctx, dave, id, wid), ledger.ErrNotCreator)
	assert.ErrorIs(t, f.Engine.Withdraw(ctx, bob, id, wid), ledger.ErrNotCreator)

	_, err = f.Engine.RequestWithdraw(ctx, dave, id, 10)
	assert.ErrorIs(t, err, ledger.ErrNotOwner)

	assert.ErrorIs(t, f.Engine.ApproveWithdraw(ctx, bob, id, 5), ledger.ErrRequestNotFound)
	assert.ErrorIs(t, f.Engine.ApproveWithdraw(ctx, bob, 9, wid), ledger.ErrAccountNotFound)
	assert.ErrorIs(t, f.Engine.Withdraw(ctx, alice, 9, wid), ledger.ErrAccountNotFound)
	assert.ErrorIs(t, f.Engine.Withdraw(ctx, alice, id, 5), ledger.ErrRequestNotFound)

	balance, err := f.Engine.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)
}

func (s *TestSuite) OwnerSet(t *testing.T) {
	ctx := context.Background()
	f := s.Fixture(t)

	_, err := f.Engine.CreateAccount(ctx, alice, []ledger.Identity{bob, carol, dave, erin})
	assert.ErrorIs(t, err, ledger.ErrTooManyOwners)

	_, err = f.Engine.CreateAccount(ctx, alice, []ledger.Identity{bob, bob})
	assert.ErrorIs(t, err, ledger.ErrDuplicateOwner)

	_, err = f.Engine.CreateAccount(ctx, alice, []ledger.Identity{alice})
	assert.ErrorIs(t, err, ledger.ErrDuplicateOwner)

	_, err = f.Engine.CreateAccount(ctx, "", nil)
	assert.ErrorIs(t, err, ledger.ErrInvalidIdentity)

	_, err = f.Engine.CreateAccount(ctx, alice, []ledger.Identity{""})
	assert.ErrorIs(t, err, ledger.ErrInvalidIdentity)

	// the owner count is checked before any additional owner is inspected
	_, err = f.Engine.CreateAccount(ctx, alice, []ledger.Identity{"", bob, carol, dave, erin})
	assert.ErrorIs(t, err, ledger.ErrTooManyOwners)
	_, err = f.Engine.CreateAccount(ctx, "", []ledger.Identity{bob, carol, dave, erin})
	assert.ErrorIs(t, err, ledger.ErrInvalidIdentity)

	_, err = f.Engine.CreateAccount(ctx, alice, []ledger.Identity{bob, "", bob})
	assert.ErrorIs(t, err, ledger.ErrInvalidIdentity)

	assert.Empty(t, f.Events.Events())

	id, err := f.Engine.CreateAccount(ctx, alice, []ledger.Identity{bob, carol, dave})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)

	owners, err := f.Engine.GetOwners(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Identity{alice, bob, carol, dave}, owners)

	id, err = f.Engine.CreateAccount(ctx, erin, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

func (s *TestSuite) AccountLimit(t *testing.T) {
	ctx := context.Background()
	f := s.Fixture(t)

	for i := 0; i < ledger.MaxAccountsPerOwner; i++ {
		_, err := f.Engine.CreateAccount(ctx, alice, nil)
		require.NoError(t, err)
	}

	_, err := f.Engine.CreateAccount(ctx, alice, nil)
	assert.ErrorIs(t, err, ledger.ErrAccountLimitExceeded)

	// alice is at the limit as an additional owner too
	_, err = f.Engine.CreateAccount(ctx, bob, []ledger.Identity{alice})
	assert.ErrorIs(t, err, ledger.ErrAccountLimitExceeded)

	ids, err := f.Engine.GetAccounts(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2}, ids)

	ids, err = f.Engine.GetAccounts(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, ids)

	id, err := f.Engine.CreateAccount(ctx, bob, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id)
}

func (s *TestSuite) Deposit(t *testing.T) {
	ctx := context.Background()
	f := s.Fixture(t)
	id := f.Account(t, 0, alice, bob)

	require.NoError(t, f.Engine.Deposit(ctx, bob, id, 40))
	require.NoError(t, f.Engine.Deposit(ctx, alice, id, 0))

	assert.ErrorIs(t, f.Engine.Deposit(ctx, carol, id, 10), ledger.ErrNotOwner)
	assert.ErrorIs(t, f.Engine.Deposit(ctx, alice, 9, 10), ledger.ErrAccountNotFound)

	balance, err := f.Engine.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), balance)
}

func (s *TestSuite) Thresholds(t *testing.T) {
	ctx := context.Background()
	f := s.Fixture(t)

	single := f.Account(t, 10, alice)
	wid, err := f.Engine.RequestWithdraw(ctx, alice, single, 10)
	require.NoError(t, err)
	require.NoError(t, f.Engine.Withdraw(ctx, alice, single, wid))

	four := f.Account(t, 10, bob, carol, dave, erin)
	wid, err = f.Engine.RequestWithdraw(ctx, bob, four, 10)
	require.NoError(t, err)
	require.NoError(t, f.Engine.ApproveWithdraw(ctx, carol, four, wid))

	err = f.Engine.Withdraw(ctx, bob, four, wid)
	assert.ErrorIs(t, err, ledger.ErrNotEnoughApprovals)

	require.NoError(t, f.Engine.ApproveWithdraw(ctx, erin, four, wid))
	require.NoError(t, f.Engine.Withdraw(ctx, bob, four, wid))

	assert.Equal(t, uint64(10), f.Wallet.Balance(alice))
	assert.Equal(t, uint64(10), f.Wallet.Balance(bob))
}

func (s *TestSuite) PendingExceedBalance(t *testing.T) {
	ctx := context.Background()
	f := s.Fixture(t)
	id := f.Account(t, 100, alice, bob)

	first, err := f.Engine.RequestWithdraw(ctx, alice, id, 80)
	require.NoError(t, err)
	second, err := f.Engine.RequestWithdraw(ctx, bob, id, 80)
	require.NoError(t, err)

	pending, err := f.Engine.GetPendingWithdrawals(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []uint64{first, second}, pending)

	require.NoError(t, f.Engine.ApproveWithdraw(ctx, alice, id, second))
	require.NoError(t, f.Engine.ApproveWithdraw(ctx, bob, id, first))

	require.NoError(t, f.Engine.Withdraw(ctx, bob, id, second))

	err = f.Engine.Withdraw(ctx, alice, id, first)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	pending, err = f.Engine.GetPendingWithdrawals(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []uint64{first}, pending)

	balance, err := f.Engine.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), balance)
}

func (s *TestSuite) TransferFailure(t *testing.T) {
	ctx := context.Background()
	f := s.Fixture(t)
	id := f.Account(t, 100, alice, bob)

	wid, err := f.Engine.RequestWithdraw(ctx, alice, id, 60)
	require.NoError(t, err)
	require.NoError(t, f.Engine.ApproveWithdraw(ctx, bob, id, wid))

	before := len(f.Events.Events())
	f.Wallet.Reject(alice)

	err = f.Engine.Withdraw(ctx, alice, id, wid)
	assert.ErrorIs(t, err, ledger.ErrTransferFailed)
	assert.ErrorIs(t, err, payout.ErrRecipientRejected)

	balance, err := f.Engine.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)

	info, err := f.Engine.GetWithdrawal(ctx, id, wid)
	require.NoError(t, err)
	assert.False(t, info.Executed)
	assert.Equal(t, ledger.StatusApproved, info.State)
	assert.Len(t, f.Events.Events(), before)
}

func (s *TestSuite) Reentrancy(t *testing.T) {
	ctx := context.Background()
	f := s.Fixture(t)
	id := f.Account(t, 100, alice, bob)

	wid, err := f.Engine.RequestWithdraw(ctx, alice, id, 50)
	require.NoError(t, err)
	require.NoError(t, f.Engine.ApproveWithdraw(ctx, bob, id, wid))

	var (
		reentered []error
		observed  uint64
		executed  bool
	)
	f.Wallet.OnTransfer(func(ctx context.Context, p ledger.Payout) error {
		assert.True(t, ledger.InTransfer(ctx))

		reentered = append(reentered,
			f.Engine.Withdraw(ctx, p.Recipient, p.AccountID, p.WithdrawID),
			f.Engine.Deposit(ctx, p.Recipient, p.AccountID, 1),
		)
		_, err := f.Engine.RequestWithdraw(ctx, p.Recipient, p.AccountID, 1)
		reentered = append(reentered, err)

		observed, err = f.Engine.GetBalance(ctx, p.AccountID)
		assert.NoError(t, err)
		info, err := f.Engine.GetWithdrawal(ctx, p.AccountID, p.WithdrawID)
		if assert.NoError(t, err) {
			executed = info.Executed
		}
		return nil
	})

	require.NoError(t, f.Engine.Withdraw(ctx, alice, id, wid))

	require.Len(t, reentered, 3)
	for _, err := range reentered {
		assert.ErrorIs(t, err, ledger.ErrReentrantCall)
	}
	assert.Equal(t, uint64(50), observed)
	assert.True(t, executed)

	balance, err := f.Engine.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), balance)
	assert.Equal(t, uint64(50), f.Wallet.Balance(alice))

	pending, err := f.Engine.GetPendingWithdrawals(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func (s *TestSuite) ReentrancyWithFreshContext(t *testing.T) {
	ctx := context.Background()
	f := s.Fixture(t)
	id := f.Account(t, 100, alice, bob)

	wid, err := f.Engine.RequestWithdraw(ctx, alice, id, 50)
	require.NoError(t, err)
	require.NoError(t, f.Engine.ApproveWithdraw(ctx, bob, id, wid))

	var reentered error
	f.Wallet.OnTransfer(func(_ context.Context, p ledger.Payout) error {
		reentered = f.Engine.Withdraw(context.Background(), p.Recipient, p.AccountID, p.WithdrawID)
		return nil
	})

	done := make(chan error, 1)
	go func() {
		done <- f.Engine.Withdraw(ctx, alice, id, wid)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("withdraw is blocked by the re-entering recipient")
	}

	assert.ErrorIs(t, reentered, ledger.ErrAlreadyExecuted)
	assert.Equal(t, uint64(50), f.Wallet.Balance(alice))

	balance, err := f.Engine.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), balance)
}

func (s *TestSuite) Reads(t *testing.T) {
	ctx := context.Background()
	f := s.Fixture(t)

	_, err := f.Engine.GetOwners(ctx, 0)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	_, err = f.Engine.GetBalance(ctx, 0)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	_, err = f.Engine.GetPendingWithdrawals(ctx, 0)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	_, err = f.Engine.GetApprovals(ctx, 0, 0)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	id := f.Account(t, 0, alice)
	_, err = f.Engine.GetApprovals(ctx, id, 0)
	assert.ErrorIs(t, err, ledger.ErrRequestNotFound)

	pending, err := f.Engine.GetPendingWithdrawals(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
