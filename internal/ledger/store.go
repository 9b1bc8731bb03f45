package ledger

import "context"

// Store owns the ledger state. Update runs fn in a transaction that is committed only when fn
// returns nil; otherwise every write made through the Tx is discarded.
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of primitives the engine composes into operations. It enforces no business rules.
type Tx interface {
	// Account returns ErrAccountNotFound for an unknown id.
	Account(ctx context.Context, id uint64) (*Account, error)
	// InsertAccount stores a zero-balance account under the next sequence id and indexes it for
	// every owner.
	InsertAccount(ctx context.Context, owners []Identity) (*Account, error)
	SetBalance(ctx context.Context, id uint64, balance uint64) error
	// AccountsOf lists the ids of the accounts owner belongs to, in creation order.
	AccountsOf(ctx context.Context, owner Identity) ([]uint64, error)

	// Withdrawal returns ErrRequestNotFound for an unknown id.
	Withdrawal(ctx context.Context, accountID, id uint64) (*Withdrawal, error)
	// InsertWithdrawal appends a request under the next per-account sequence id.
	InsertWithdrawal(ctx context.Context, accountID uint64, creator Identity, amount uint64) (*Withdrawal, error)
	AddApproval(ctx context.Context, accountID, id uint64, approver Identity) error
	// MarkExecuted returns ErrAlreadyExecuted when the request is executed already.
	MarkExecuted(ctx context.Context, accountID, id uint64) error
	// ClearExecuted returns an executed request to the pending set.
	ClearExecuted(ctx context.Context, accountID, id uint64) error
	// PendingWithdrawals lists the ids of the requests that are not executed yet.
	PendingWithdrawals(ctx context.Context, accountID uint64) ([]uint64, error)
}
