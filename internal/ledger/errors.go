package ledger

import "errors"

// Failure kinds of the account registry and the withdrawal workflow.
// Every failed operation returns one of these, possibly wrapped, and leaves no state behind.
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrRequestNotFound      = errors.New("withdraw request not found")
	ErrNotOwner             = errors.New("caller is not an owner of the account")
	ErrNotCreator           = errors.New("caller is not the creator of the withdraw request")
	ErrTooManyOwners        = errors.New("the account can have a maximum of 4 owners")
	ErrDuplicateOwner       = errors.New("duplicate owners are prohibited")
	ErrAccountLimitExceeded = errors.New("a max of 3 accounts for each user")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrSelfApproval         = errors.New("the creator cannot approve its own withdraw request")
	ErrAlreadyApproved      = errors.New("withdraw request is already approved by the caller")
	ErrAlreadyExecuted      = errors.New("withdraw request is already executed")
	ErrNotEnoughApprovals   = errors.New("not enough approvals")
	ErrTransferFailed       = errors.New("transfer failed")
	ErrInsufficientFunds    = errors.New("insufficient funds of the payer")

	ErrInvalidIdentity = errors.New("identity is empty")
	ErrAmountOverflow  = errors.New("amount overflows the account balance")
	ErrReentrantCall   = errors.New("re-entrant call during transfer")
)

var reasons = []struct {
	err    error
	reason string
}{
	{ErrAccountNotFound, "AccountNotFound"},
	{ErrRequestNotFound, "RequestNotFound"},
	{ErrNotOwner, "NotOwner"},
	{ErrNotCreator, "NotCreator"},
	{ErrTooManyOwners, "TooManyOwners"},
	{ErrDuplicateOwner, "DuplicateOwner"},
	{ErrAccountLimitExceeded, "AccountLimitExceeded"},
	{ErrInsufficientBalance, "InsufficientBalance"},
	{ErrSelfApproval, "SelfApproval"},
	{ErrAlreadyApproved, "AlreadyApproved"},
	{ErrAlreadyExecuted, "AlreadyExecuted"},
	{ErrNotEnoughApprovals, "NotEnoughApprovals"},
	{ErrTransferFailed, "TransferFailed"},
	{ErrInsufficientFunds, "InsufficientFunds"},
	{ErrInvalidIdentity, "InvalidIdentity"},
	{ErrAmountOverflow, "AmountOverflow"},
	{ErrReentrantCall, "ReentrantCall"},
}

// Reason returns the failure kind name of err, or "Internal" when err is not a ledger failure.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "Internal"
}
