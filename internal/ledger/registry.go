package ledger

import (
	"context"
	"fmt"
)

// CreateAccount opens an account owned by caller and additionalOwners and returns its id.
func (e *Engine) CreateAccount(ctx context.Context, caller Identity, additionalOwners []Identity) (uint64, error) {
	owners, err := ownerSet(caller, additionalOwners)
	if err != nil {
		return 0, err
	}

	var id uint64
	err = e.update(ctx, func(tx Tx, emit emitFunc) error {
		for _, owner := range owners {
			ids, err := tx.AccountsOf(ctx, owner)
			if err != nil {
				return err
			}
			if len(ids) >= MaxAccountsPerOwner {
				return fmt.Errorf("%w: %s", ErrAccountLimitExceeded, owner)
			}
		}

		account, err := tx.InsertAccount(ctx, owners)
		if err != nil {
			return err
		}
		id = account.ID

		emit(Event{
			Kind:      EventAccountCreated,
			Caller:    caller,
			AccountID: account.ID,
			Owners:    account.Owners,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// ownerSet builds {caller} ∪ additional, caller first.
func ownerSet(caller Identity, additional []Identity) ([]Identity, error) {
	if caller == "" {
		return nil, ErrInvalidIdentity
	}
	if len(additional)+1 > MaxOwners {
		return nil, ErrTooManyOwners
	}

	owners := make([]Identity, 0, len(additional)+1)
	owners = append(owners, caller)
	for _, owner := range additional {
		if owner == "" {
			return nil, ErrInvalidIdentity
		}
		for _, seen := range owners {
			if seen == owner {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateOwner, owner)
			}
		}
		owners = append(owners, owner)
	}

	return owners, nil
}

// GetAccounts returns the ids of the accounts caller owns, in creation order.
func (e *Engine) GetAccounts(ctx context.Context, caller Identity) ([]uint64, error) {
	var ids []uint64
	err := e.view(ctx, func(tx Tx) error {
		var err error
		ids, err = tx.AccountsOf(ctx, caller)
		return err
	})
	return ids, err
}

func (e *Engine) GetOwners(ctx context.Context, accountID uint64) ([]Identity, error) {
	account, err := e.account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return account.Owners, nil
}

func (e *Engine) GetBalance(ctx context.Context, accountID uint64) (uint64, error) {
	account, err := e.account(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func (e *Engine) account(ctx context.Context, accountID uint64) (*Account, error) {
	var account *Account
	err := e.view(ctx, func(tx Tx) error {
		var err error
		account, err = tx.Account(ctx, accountID)
		return err
	})
	return account, err
}

// Deposit credits amount, already received by the boundary layer, to the account.
func (e *Engine) Deposit(ctx context.Context, caller Identity, accountID uint64, amount uint64) error {
	return e.update(ctx, func(tx Tx, emit emitFunc) error {
		account, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}
		if !account.IsOwner(caller) {
			return ErrNotOwner
		}

		balance := account.Balance + amount
		if balance < account.Balance {
			return ErrAmountOverflow
		}
		if err := tx.SetBalance(ctx, accountID, balance); err != nil {
			return err
		}

		emit(Event{
			Kind:      EventDeposit,
			Caller:    caller,
			AccountID: accountID,
			Amount:    amount,
		})
		return nil
	})
}
