// Package memory keeps the ledger in process memory.
//
// State lives in copy-on-write B-trees. Update clones them, which is cheap until a node is written,
// lets the operation write to the clones and swaps them in only when the operation succeeds.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/btree"

	"github.com/Renal37/bankaccount/internal/ledger"
)

const degree = 16

var errReadOnly = errors.New("write in a read-only transaction")

type accountRow struct {
	id          uint64
	owners      []ledger.Identity
	balance     uint64
	withdrawals uint64 // next per-account request id
}

type withdrawalRow struct {
	accountID uint64
	id        uint64
	creator   ledger.Identity
	amount    uint64
	approvals []ledger.Identity
	executed  bool
}

type membershipRow struct {
	owner     ledger.Identity
	accountID uint64
}

func accountLess(a, b accountRow) bool { return a.id < b.id }

func withdrawalLess(a, b withdrawalRow) bool {
	if a.accountID != b.accountID {
		return a.accountID < b.accountID
	}
	return a.id < b.id
}

func membershipLess(a, b membershipRow) bool {
	if a.owner != b.owner {
		return a.owner < b.owner
	}
	return a.accountID < b.accountID
}

type state struct {
	nextAccountID uint64
	accounts      *btree.BTreeG[accountRow]
	withdrawals   *btree.BTreeG[withdrawalRow]
	memberships   *btree.BTreeG[membershipRow]
}

func (s *state) clone() *state {
	return &state{
		nextAccountID: s.nextAccountID,
		accounts:      s.accounts.Clone(),
		withdrawals:   s.withdrawals.Clone(),
		memberships:   s.memberships.Clone(),
	}
}

// Store is an in-memory ledger.Store.
type Store struct {
	mu    sync.RWMutex
	state *state
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		state: &state{
			accounts:    btree.NewG[accountRow](degree, accountLess),
			withdrawals: btree.NewG[withdrawalRow](degree, withdrawalLess),
			memberships: btree.NewG[membershipRow](degree, membershipLess),
		},
	}
}

func (s *Store) View(ctx context.Context, fn func(tx ledger.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&tx{state: s.state})
}

func (s *Store) Update(ctx context.Context, fn func(tx ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	next := s.state.clone()
	if err := fn(&tx{state: next, writable: true}); err != nil {
		return err
	}
	s.state = next

	return nil
}
