package memory

import (
	"context"

	"github.com/Renal37/bankaccount/internal/ledger"
)

type tx struct {
	state    *state
	writable bool
}

func (t *tx) account(id uint64) (accountRow, error) {
	row, ok := t.state.accounts.Get(accountRow{id: id})
	if !ok {
		return accountRow{}, ledger.ErrAccountNotFound
	}
	return row, nil
}

func (t *tx) withdrawal(accountID, id uint64) (withdrawalRow, error) {
	row, ok := t.state.withdrawals.Get(withdrawalRow{accountID: accountID, id: id})
	if !ok {
		return withdrawalRow{}, ledger.ErrRequestNotFound
	}
	return row, nil
}

func (t *tx) Account(_ context.Context, id uint64) (*ledger.Account, error) {
	row, err := t.account(id)
	if err != nil {
		return nil, err
	}
	return &ledger.Account{
		ID:      row.id,
		Owners:  copyIdentities(row.owners),
		Balance: row.balance,
	}, nil
}

func (t *tx) InsertAccount(_ context.Context, owners []ledger.Identity) (*ledger.Account, error) {
	if !t.writable {
		return nil, errReadOnly
	}

	row := accountRow{
		id:     t.state.nextAccountID,
		owners: copyIdentities(owners),
	}
	t.state.nextAccountID++
	t.state.accounts.ReplaceOrInsert(row)
	for _, owner := range row.owners {
		t.state.memberships.ReplaceOrInsert(membershipRow{owner: owner, accountID: row.id})
	}

	return &ledger.Account{ID: row.id, Owners: copyIdentities(row.owners)}, nil
}

func (t *tx) SetBalance(_ context.Context, id uint64, balance uint64) error {
	if !t.writable {
		return errReadOnly
	}

	row, err := t.account(id)
	if err != nil {
		return err
	}
	row.balance = balance
	t.state.accounts.ReplaceOrInsert(row)

	return nil
}

func (t *tx) AccountsOf(_ context.Context, owner ledger.Identity) ([]uint64, error) {
	ids := []uint64{}
	t.state.memberships.AscendGreaterOrEqual(membershipRow{owner: owner}, func(row membershipRow) bool {
		if row.owner != owner {
			return false
		}
		ids = append(ids, row.accountID)
		return true
	})
	return ids, nil
}

func (t *tx) Withdrawal(_ context.Context, accountID, id uint64) (*ledger.Withdrawal, error) {
	row, err := t.withdrawal(accountID, id)
	if err != nil {
		return nil, err
	}
	return &ledger.Withdrawal{
		ID:        row.id,
		AccountID: row.accountID,
		Creator:   row.creator,
		Amount:    row.amount,
		Approvals: copyIdentities(row.approvals),
		Executed:  row.executed,
	}, nil
}

func (t *tx) InsertWithdrawal(_ context.Context, accountID uint64, creator ledger.Identity, amount uint64) (*ledger.Withdrawal, error) {
	if !t.writable {
		return nil, errReadOnly
	}

	account, err := t.account(accountID)
	if err != nil {
		return nil, err
	}

	row := withdrawalRow{
		accountID: accountID,
		id:        account.withdrawals,
		creator:   creator,
		amount:    amount,
	}
	account.withdrawals++
	t.state.accounts.ReplaceOrInsert(account)
	t.state.withdrawals.ReplaceOrInsert(row)

	return &ledger.Withdrawal{
		ID:        row.id,
		AccountID: accountID,
		Creator:   creator,
		Amount:    amount,
	}, nil
}

func (t *tx) AddApproval(_ context.Context, accountID, id uint64, approver ledger.Identity) error {
	if !t.writable {
		return errReadOnly
	}

	row, err := t.withdrawal(accountID, id)
	if err != nil {
		return err
	}
	// rows are shared with the previous tree, never append in place
	approvals := make([]ledger.Identity, len(row.approvals), len(row.approvals)+1)
	copy(approvals, row.approvals)
	row.approvals = append(approvals, approver)
	t.state.withdrawals.ReplaceOrInsert(row)

	return nil
}

func (t *tx) MarkExecuted(_ context.Context, accountID, id uint64) error {
	if !t.writable {
		return errReadOnly
	}

	row, err := t.withdrawal(accountID, id)
	if err != nil {
		return err
	}
	if row.executed {
		return ledger.ErrAlreadyExecuted
	}
	row.executed = true
	t.state.withdrawals.ReplaceOrInsert(row)

	return nil
}

func (t *tx) ClearExecuted(_ context.Context, accountID, id uint64) error {
	if !t.writable {
		return errReadOnly
	}

	row, err := t.withdrawal(accountID, id)
	if err != nil {
		return err
	}
	row.executed = false
	t.state.withdrawals.ReplaceOrInsert(row)

	return nil
}

func (t *tx) PendingWithdrawals(_ context.Context, accountID uint64) ([]uint64, error) {
	ids := []uint64{}
	t.state.withdrawals.AscendGreaterOrEqual(withdrawalRow{accountID: accountID}, func(row withdrawalRow) bool {
		if row.accountID != accountID {
			return false
		}
		if !row.executed {
			ids = append(ids, row.id)
		}
		return true
	})
	return ids, nil
}

func copyIdentities(ids []ledger.Identity) []ledger.Identity {
	if ids == nil {
		return nil
	}
	out := make([]ledger.Identity, len(ids))
	copy(out, ids)
	return out
}
