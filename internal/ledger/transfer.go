package ledger

import "context"

// Payout is an outbound value transfer requested by an executed withdrawal.
type Payout struct {
	Recipient  Identity
	Amount     uint64
	AccountID  uint64
	WithdrawID uint64
}

// Transferer is the external value-transfer primitive. A returned error aborts the withdrawal.
type Transferer interface {
	Transfer(ctx context.Context, payout Payout) error
}

type transferGuardKey struct{}

// withTransferGuard marks ctx as being inside a transfer.
func withTransferGuard(ctx context.Context) context.Context {
	return context.WithValue(ctx, transferGuardKey{}, struct{}{})
}

// InTransfer reports whether ctx was handed out to a Transferer by the engine.
func InTransfer(ctx context.Context) bool {
	return ctx.Value(transferGuardKey{}) != nil
}

// Deposit is an inbound value transfer from Payer that funds a deposit to an account.
// Reference identifies it at the value-transfer boundary for both Collect and Refund.
type Deposit struct {
	Payer     Identity
	Amount    uint64
	AccountID uint64
	Reference string
}

// Collector is the inbound side of the value-transfer boundary. Collect takes the amount from the
// payer before the engine credits it; Refund gives it back when the engine rejects the deposit.
// Collect returns ErrInsufficientFunds when the payer cannot cover the amount.
type Collector interface {
	Collect(ctx context.Context, deposit Deposit) error
	Refund(ctx context.Context, deposit Deposit) error
}
