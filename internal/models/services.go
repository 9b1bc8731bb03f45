package models

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Renal37/bankaccount/internal/deployment"
	"github.com/Renal37/bankaccount/internal/ledger"
)

//go:generate mockgen -destination=mocks/mock_auth.go . AuthService
type AuthService interface {
	Register(ctx context.Context, user UnknownUser) error

	Login(ctx context.Context, user UnknownUser) error

	GetUser(ctx context.Context, login string) (*User, error)
}

//go:generate mockgen -destination=mocks/mock_jwt.go . JWTService
type JWTService interface {
	GenerateJWT(subject string) (string, error)

	ValidateToken(token string) (*jwt.Token, error)
}

//go:generate mockgen -destination=mocks/mock_ledger.go . LedgerService
type LedgerService interface {
	CreateAccount(ctx context.Context, caller ledger.Identity, additionalOwners []ledger.Identity) (uint64, error)

	GetAccounts(ctx context.Context, caller ledger.Identity) ([]uint64, error)

	GetOwners(ctx context.Context, accountID uint64) ([]ledger.Identity, error)

	GetBalance(ctx context.Context, accountID uint64) (uint64, error)

	RequestWithdraw(ctx context.Context, caller ledger.Identity, accountID uint64, amount uint64) (uint64, error)

	ApproveWithdraw(ctx context.Context, caller ledger.Identity, accountID, withdrawID uint64) error

	Withdraw(ctx context.Context, caller ledger.Identity, accountID, withdrawID uint64) error

	GetApprovals(ctx context.Context, accountID, withdrawID uint64) (int, error)

	GetPendingWithdrawals(ctx context.Context, accountID uint64) ([]uint64, error)

	GetWithdrawal(ctx context.Context, accountID, withdrawID uint64) (*ledger.WithdrawalInfo, error)
}

//go:generate mockgen -destination=mocks/mock_deposit.go . DepositService
type DepositService interface {
	// Deposit moves amount from the funds of caller to the account.
	Deposit(ctx context.Context, caller ledger.Identity, accountID uint64, amount uint64) error
}

//go:generate mockgen -destination=mocks/mock_events.go . EventService
type EventService interface {
	// Subscribe streams events published after the call until ctx is done or the subscriber is dropped.
	Subscribe(ctx context.Context) <-chan ledger.Event
}

//go:generate mockgen -destination=mocks/mock_deployment.go . DeploymentService
type DeploymentService interface {
	Descriptor() deployment.Descriptor
}
