package ledger

import (
	"context"
	"errors"
	"fmt"
)

// RequestWithdraw opens a pending request for amount. The check is against the current balance only;
// pending requests do not reserve funds.
func (e *Engine) RequestWithdraw(ctx context.Context, caller Identity, accountID uint64, amount uint64) (uint64, error) {
	var id uint64
	err := e.update(ctx, func(tx Tx, emit emitFunc) error {
		account, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}
		if !account.IsOwner(caller) {
			return ErrNotOwner
		}
		if amount > account.Balance {
			return ErrInsufficientBalance
		}

		withdrawal, err := tx.InsertWithdrawal(ctx, accountID, caller, amount)
		if err != nil {
			return err
		}
		id = withdrawal.ID

		emit(Event{
			Kind:       EventWithdrawRequested,
			Caller:     caller,
			AccountID:  accountID,
			WithdrawID: withdrawal.ID,
			Amount:     amount,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// ApproveWithdraw records the approval of caller, an owner other than the creator.
func (e *Engine) ApproveWithdraw(ctx context.Context, caller Identity, accountID, withdrawID uint64) error {
	return e.update(ctx, func(tx Tx, emit emitFunc) error {
		account, withdrawal, err := lookup(ctx, tx, accountID, withdrawID)
		if err != nil {
			return err
		}

		switch {
		case !account.IsOwner(caller):
			return ErrNotOwner
		case withdrawal.Creator == caller:
			return ErrSelfApproval
		case withdrawal.HasApproved(caller):
			return ErrAlreadyApproved
		case withdrawal.Executed:
			return ErrAlreadyExecuted
		}

		if err := tx.AddApproval(ctx, accountID, withdrawID, caller); err != nil {
			return err
		}

		emit(Event{
			Kind:       EventWithdrawApproved,
			Caller:     caller,
			AccountID:  accountID,
			WithdrawID: withdrawID,
			Amount:     withdrawal.Amount,
			Approvals:  len(withdrawal.Approvals) + 1,
		})
		return nil
	})
}

// Withdraw executes an approved request of caller and pays its amount out to caller.
//
// The balance decrement and the executed flag are committed before the transfer is started, so a
// recipient re-entering the engine observes the request as executed and cannot pay it out twice.
// The transfer runs outside the engine lock. A failed transfer is compensated by restoring both.
func (e *Engine) Withdraw(ctx context.Context, caller Identity, accountID, withdrawID uint64) error {
	var payout Payout
	err := e.update(ctx, func(tx Tx, _ emitFunc) error {
		account, withdrawal, err := lookup(ctx, tx, accountID, withdrawID)
		if err != nil {
			return err
		}

		switch {
		case withdrawal.Creator != caller:
			return ErrNotCreator
		case withdrawal.Executed:
			return ErrAlreadyExecuted
		}

		if required := RequiredApprovals(len(account.Owners)); len(withdrawal.Approvals) < required {
			return fmt.Errorf("%w: %d of %d", ErrNotEnoughApprovals, len(withdrawal.Approvals), required)
		}
		if account.Balance < withdrawal.Amount {
			return ErrInsufficientBalance
		}

		if err := tx.SetBalance(ctx, accountID, account.Balance-withdrawal.Amount); err != nil {
			return err
		}
		if err := tx.MarkExecuted(ctx, accountID, withdrawID); err != nil {
			return err
		}

		payout = Payout{
			Recipient:  caller,
			Amount:     withdrawal.Amount,
			AccountID:  accountID,
			WithdrawID: withdrawID,
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := e.transfer.Transfer(withTransferGuard(ctx), payout); err != nil {
		// the caller may have given up waiting, the ledger still has to be restored
		if revertErr := e.revert(context.WithoutCancel(ctx), payout); revertErr != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, errors.Join(err, revertErr))
		}
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	e.publish(Event{
		Kind:       EventWithdraw,
		Caller:     caller,
		AccountID:  accountID,
		WithdrawID: withdrawID,
		Amount:     payout.Amount,
	})
	return nil
}

// revert gives the amount of a failed payout back to the account and reopens its request.
func (e *Engine) revert(ctx context.Context, payout Payout) error {
	return e.update(ctx, func(tx Tx, _ emitFunc) error {
		account, err := tx.Account(ctx, payout.AccountID)
		if err != nil {
			return err
		}

		balance := account.Balance + payout.Amount
		if balance < account.Balance {
			return ErrAmountOverflow
		}
		if err := tx.SetBalance(ctx, payout.AccountID, balance); err != nil {
			return err
		}
		return tx.ClearExecuted(ctx, payout.AccountID, payout.WithdrawID)
	})
}

func lookup(ctx context.Context, tx Tx, accountID, withdrawID uint64) (*Account, *Withdrawal, error) {
	account, err := tx.Account(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	withdrawal, err := tx.Withdrawal(ctx, accountID, withdrawID)
	if err != nil {
		return nil, nil, err
	}
	return account, withdrawal, nil
}

// GetApprovals returns the number of approvals a request collected.
func (e *Engine) GetApprovals(ctx context.Context, accountID, withdrawID uint64) (int, error) {
	withdrawal, err := e.GetWithdrawal(ctx, accountID, withdrawID)
	if err != nil {
		return 0, err
	}
	return len(withdrawal.Approvals), nil
}

// GetPendingWithdrawals returns the ids of the requests of the account that are not executed yet.
func (e *Engine) GetPendingWithdrawals(ctx context.Context, accountID uint64) ([]uint64, error) {
	var ids []uint64
	err := e.view(ctx, func(tx Tx) error {
		if _, err := tx.Account(ctx, accountID); err != nil {
			return err
		}
		var err error
		ids, err = tx.PendingWithdrawals(ctx, accountID)
		return err
	})
	return ids, err
}

// GetWithdrawal returns a request together with its lifecycle state.
func (e *Engine) GetWithdrawal(ctx context.Context, accountID, withdrawID uint64) (*WithdrawalInfo, error) {
	var info *WithdrawalInfo
	err := e.view(ctx, func(tx Tx) error {
		account, withdrawal, err := lookup(ctx, tx, accountID, withdrawID)
		if err != nil {
			return err
		}
		info = &WithdrawalInfo{
			Withdrawal: *withdrawal,
			State:      withdrawal.Status(len(account.Owners)),
			Required:   RequiredApprovals(len(account.Owners)),
		}
		return nil
	})
	return info, err
}

// WithdrawalInfo is a read view of a request.
type WithdrawalInfo struct {
	Withdrawal
	State    Status
	Required int
}
