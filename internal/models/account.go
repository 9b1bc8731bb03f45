package models

import "github.com/Renal37/bankaccount/internal/ledger"

type CreateAccount struct {
	Owners []ledger.Identity `json:"owners"`
}

// Amount is the body of deposit and withdraw requests. Values are in the smallest native unit.
type Amount struct {
	Amount *uint64 `json:"amount"`
}

type Created struct {
	ID uint64 `json:"id"`
}

type Accounts struct {
	Accounts []uint64 `json:"accounts"`
}

type Owners struct {
	AccountID uint64            `json:"accountId"`
	Owners    []ledger.Identity `json:"owners"`
}

type Balance struct {
	AccountID uint64 `json:"accountId"`
	Balance   uint64 `json:"balance"`
}

type Approvals struct {
	AccountID  uint64 `json:"accountId"`
	WithdrawID uint64 `json:"withdrawId"`
	Approvals  int    `json:"approvals"`
}

type PendingWithdrawals struct {
	AccountID   uint64   `json:"accountId"`
	Withdrawals []uint64 `json:"withdrawals"`
}

type Withdrawal struct {
	ID        uint64            `json:"id"`
	AccountID uint64            `json:"accountId"`
	Creator   ledger.Identity   `json:"creator"`
	Amount    uint64            `json:"amount"`
	Approvals []ledger.Identity `json:"approvals"`
	Required  int               `json:"required"`
	Executed  bool              `json:"executed"`
	Status    ledger.Status     `json:"status"`
}

func NewWithdrawal(info *ledger.WithdrawalInfo) Withdrawal {
	approvals := info.Approvals
	if approvals == nil {
		approvals = []ledger.Identity{}
	}
	return Withdrawal{
		ID:        info.ID,
		AccountID: info.AccountID,
		Creator:   info.Creator,
		Amount:    info.Amount,
		Approvals: approvals,
		Required:  info.Required,
		Executed:  info.Executed,
		Status:    info.State,
	}
}
