package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Renal37/bankaccount/internal/ledger"
	"github.com/Renal37/bankaccount/internal/logger"
)

// DepositService funds deposits: the amount is collected from the payer first and credited to the
// account only then, so a deposit moves value instead of creating it.
type DepositService struct {
	ledger    depositLedger
	collector ledger.Collector
}

// depositLedger is the part of the ledger engine a deposit is credited through.
type depositLedger interface {
	Deposit(ctx context.Context, caller ledger.Identity, accountID uint64, amount uint64) error
}

// NewDepositService creates a DepositService crediting ledger with funds taken by collector.
func NewDepositService(ledger depositLedger, collector ledger.Collector) *DepositService {
	return &DepositService{ledger: ledger, collector: collector}
}

// Deposit collects amount from caller and credits it to the account.
// When the ledger rejects the deposit, the collected amount is refunded to caller.
func (d *DepositService) Deposit(ctx context.Context, caller ledger.Identity, accountID uint64, amount uint64) error {
	if ledger.InTransfer(ctx) {
		return ledger.ErrReentrantCall
	}

	deposit := ledger.Deposit{
		Payer:     caller,
		Amount:    amount,
		AccountID: accountID,
		Reference: uuid.NewString(),
	}

	// Taking the funds from the payer
	if err := d.collector.Collect(ctx, deposit); err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return err
		}
		return fmt.Errorf("%w: %w", ledger.ErrTransferFailed, err)
	}

	// Crediting the account, the funds go back when the ledger refuses them
	if err := d.ledger.Deposit(ctx, caller, accountID, amount); err != nil {
		if refundErr := d.collector.Refund(context.WithoutCancel(ctx), deposit); refundErr != nil {
			logger.Log.Error("failed to refund rejected deposit",
				zap.String("reference", deposit.Reference),
				zap.String("payer", string(caller)),
				zap.Uint64("amount", amount),
				zap.Error(refundErr),
			)
			return errors.Join(err, refundErr)
		}
		return err
	}

	return nil
}
