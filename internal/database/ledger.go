package database

import (
	"context"
	"math"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/Renal37/bankaccount/internal/ledger"
)

// ledgerLockKey serializes ledger mutations across every process sharing the database.
const ledgerLockKey = 0x62616e6b

const (
	LockLedgerQuery = `SELECT pg_advisory_xact_lock($1)`

	SelectAccountQuery = `
		SELECT
			a.balance,
			array_agg(o.owner ORDER BY o.position)
		FROM
			accounts a
			JOIN account_owners o ON o.account_id = a.id
		WHERE
			a.id = $1
		GROUP BY
			a.id
	`
	InsertAccountQuery = `
		INSERT INTO
			accounts (id)
		SELECT
			COALESCE(MAX(id) + 1, 0)
		FROM
			accounts
		RETURNING id
	`
	InsertOwnerQuery = `
		INSERT INTO
			account_owners (account_id, owner, position)
		VALUES ($1, $2, $3)
	`
	UpdateBalanceQuery = `
		UPDATE
			accounts
		SET
			balance = $2
		WHERE
			id = $1
	`
	SelectAccountsOfQuery = `
		SELECT
			account_id
		FROM
			account_owners
		WHERE
			owner = $1
		ORDER BY
			account_id
	`

	SelectWithdrawalQuery = `
		SELECT
			creator,
			amount,
			executed
		FROM
			withdrawals
		WHERE
			account_id = $1 AND id = $2
	`
	SelectApprovalsQuery = `
		SELECT
			approver
		FROM
			withdrawal_approvals
		WHERE
			account_id = $1 AND withdrawal_id = $2
		ORDER BY
			id
	`
	NextWithdrawalIDQuery = `
		UPDATE
			accounts
		SET
			withdrawal_seq = withdrawal_seq + 1
		WHERE
			id = $1
		RETURNING withdrawal_seq - 1
	`
	InsertWithdrawalQuery = `
		INSERT INTO
			withdrawals (account_id, id, creator, amount)
		VALUES ($1, $2, $3, $4)
	`
	InsertApprovalQuery = `
		INSERT INTO
			withdrawal_approvals (account_id, withdrawal_id, approver)
		VALUES ($1, $2, $3)
	`
	MarkExecutedQuery = `
		UPDATE
			withdrawals
		SET
			executed = TRUE,
			executed_at = now()
		WHERE
			account_id = $1 AND id = $2 AND NOT executed
	`
	ClearExecutedQuery = `
		UPDATE
			withdrawals
		SET
			executed = FALSE,
			executed_at = NULL
		WHERE
			account_id = $1 AND id = $2
	`
	SelectPendingQuery = `
		SELECT
			id
		FROM
			withdrawals
		WHERE
			account_id = $1 AND NOT executed
		ORDER BY
			id
	`
)

var _ ledger.Store = (*Database)(nil)

// View runs fn on a read-only snapshot.
func (d *Database) View(ctx context.Context, fn func(tx ledger.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if err := fn(&ledgerTx{q: tx}); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(ctx), "failed to commit transaction")
}

// Update runs fn under the ledger lock and commits only when fn succeeds.
func (d *Database) Update(ctx context.Context, fn func(tx ledger.Tx) error) error {
	tx, err := d.db.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, LockLedgerQuery, ledgerLockKey); err != nil {
		return errors.Wrap(err, "failed to lock ledger")
	}

	if err := fn(&ledgerTx{q: tx}); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(ctx), "failed to commit transaction")
}

type ledgerTx struct {
	q DBExecutor
}

func (t *ledgerTx) Account(ctx context.Context, id uint64) (*ledger.Account, error) {
	key, err := toBigint(id)
	if err != nil {
		return nil, ledger.ErrAccountNotFound
	}

	var balance int64
	var owners []string
	if err := t.q.QueryRow(ctx, SelectAccountQuery, key).Scan(&balance, &owners); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, errors.Wrapf(err, "failed to select account %d", id)
	}

	return &ledger.Account{
		ID:      id,
		Owners:  identities(owners),
		Balance: uint64(balance),
	}, nil
}

func (t *ledgerTx) InsertAccount(ctx context.Context, owners []ledger.Identity) (*ledger.Account, error) {
	var id int64
	if err := t.q.QueryRow(ctx, InsertAccountQuery).Scan(&id); err != nil {
		return nil, errors.Wrap(err, "failed to insert account")
	}

	for position, owner := range owners {
		if _, err := t.q.Exec(ctx, InsertOwnerQuery, id, string(owner), position); err != nil {
			if isUniqueViolation(err) {
				return nil, ledger.ErrDuplicateOwner
			}
			return nil, errors.Wrapf(err, "failed to insert owner of account %d", id)
		}
	}

	return &ledger.Account{
		ID:     uint64(id),
		Owners: append([]ledger.Identity(nil), owners...),
	}, nil
}

func (t *ledgerTx) SetBalance(ctx context.Context, id uint64, balance uint64) error {
	if balance > math.MaxInt64 {
		return ledger.ErrAmountOverflow
	}
	key, err := toBigint(id)
	if err != nil {
		return ledger.ErrAccountNotFound
	}

	tag, err := t.q.Exec(ctx, UpdateBalanceQuery, key, int64(balance))
	if err != nil {
		return errors.Wrapf(err, "failed to update balance of account %d", id)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrAccountNotFound
	}

	return nil
}

func (t *ledgerTx) AccountsOf(ctx context.Context, owner ledger.Identity) ([]uint64, error) {
	return t.ids(ctx, SelectAccountsOfQuery, string(owner))
}

func (t *ledgerTx) Withdrawal(ctx context.Context, accountID, id uint64) (*ledger.Withdrawal, error) {
	account, err := toBigint(accountID)
	if err != nil {
		return nil, ledger.ErrRequestNotFound
	}
	key, err := toBigint(id)
	if err != nil {
		return nil, ledger.ErrRequestNotFound
	}

	w := &ledger.Withdrawal{ID: id, AccountID: accountID}

	var creator string
	var amount int64
	if err := t.q.QueryRow(ctx, SelectWithdrawalQuery, account, key).Scan(&creator, &amount, &w.Executed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrRequestNotFound
		}
		return nil, errors.Wrapf(err, "failed to select withdrawal %d/%d", accountID, id)
	}
	w.Creator = ledger.Identity(creator)
	w.Amount = uint64(amount)

	rows, err := t.q.Query(ctx, SelectApprovalsQuery, account, key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to select approvals of %d/%d", accountID, id)
	}
	approvers, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read approvals of %d/%d", accountID, id)
	}
	w.Approvals = identities(approvers)

	return w, nil
}

func (t *ledgerTx) InsertWithdrawal(ctx context.Context, accountID uint64, creator ledger.Identity, amount uint64) (*ledger.Withdrawal, error) {
	account, err := toBigint(accountID)
	if err != nil {
		return nil, ledger.ErrAccountNotFound
	}
	if amount > math.MaxInt64 {
		return nil, ledger.ErrInsufficientBalance
	}

	var id int64
	if err := t.q.QueryRow(ctx, NextWithdrawalIDQuery, account).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, errors.Wrapf(err, "failed to allocate withdrawal id of account %d", accountID)
	}

	if _, err := t.q.Exec(ctx, InsertWithdrawalQuery, account, id, string(creator), int64(amount)); err != nil {
		return nil, errors.Wrapf(err, "failed to insert withdrawal of account %d", accountID)
	}

	return &ledger.Withdrawal{
		ID:        uint64(id),
		AccountID: accountID,
		Creator:   creator,
		Amount:    amount,
	}, nil
}

func (t *ledgerTx) AddApproval(ctx context.Context, accountID, id uint64, approver ledger.Identity) error {
	account, err := toBigint(accountID)
	if err != nil {
		return ledger.ErrRequestNotFound
	}
	key, err := toBigint(id)
	if err != nil {
		return ledger.ErrRequestNotFound
	}

	if _, err := t.q.Exec(ctx, InsertApprovalQuery, account, key, string(approver)); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) {
			switch e.Code {
			case pgerrcode.UniqueViolation:
				return ledger.ErrAlreadyApproved
			case pgerrcode.ForeignKeyViolation:
				return ledger.ErrRequestNotFound
			}
		}
		return errors.Wrapf(err, "failed to insert approval of %d/%d", accountID, id)
	}

	return nil
}

func (t *ledgerTx) MarkExecuted(ctx context.Context, accountID, id uint64) error {
	account, err := toBigint(accountID)
	if err != nil {
		return ledger.ErrRequestNotFound
	}
	key, err := toBigint(id)
	if err != nil {
		return ledger.ErrRequestNotFound
	}

	tag, err := t.q.Exec(ctx, MarkExecutedQuery, account, key)
	if err != nil {
		return errors.Wrapf(err, "failed to execute withdrawal %d/%d", accountID, id)
	}
	if tag.RowsAffected() == 0 {
		if _, err := t.Withdrawal(ctx, accountID, id); err != nil {
			return err
		}
		return ledger.ErrAlreadyExecuted
	}

	return nil
}

func (t *ledgerTx) ClearExecuted(ctx context.Context, accountID, id uint64) error {
	account, err := toBigint(accountID)
	if err != nil {
		return ledger.ErrRequestNotFound
	}
	key, err := toBigint(id)
	if err != nil {
		return ledger.ErrRequestNotFound
	}

	tag, err := t.q.Exec(ctx, ClearExecutedQuery, account, key)
	if err != nil {
		return errors.Wrapf(err, "failed to revert withdrawal %d/%d", accountID, id)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrRequestNotFound
	}

	return nil
}

func (t *ledgerTx) PendingWithdrawals(ctx context.Context, accountID uint64) ([]uint64, error) {
	account, err := toBigint(accountID)
	if err != nil {
		return []uint64{}, nil
	}
	return t.ids(ctx, SelectPendingQuery, account)
}

func (t *ledgerTx) ids(ctx context.Context, query string, args ...interface{}) ([]uint64, error) {
	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to select ids")
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, errors.Wrap(err, "failed to read ids")
	}

	ids := make([]uint64, len(keys))
	for i, key := range keys {
		ids[i] = uint64(key)
	}
	return ids, nil
}

var errOutOfRange = errors.New("id is out of range")

func toBigint(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, errOutOfRange
	}
	return int64(v), nil
}

func identities(values []string) []ledger.Identity {
	ids := make([]ledger.Identity, len(values))
	for i, v := range values {
		ids[i] = ledger.Identity(v)
	}
	return ids
}

func isUniqueViolation(err error) bool {
	var e *pgconn.PgError
	return errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation
}
