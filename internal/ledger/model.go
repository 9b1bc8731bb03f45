package ledger

const (
	// MaxOwners is the upper bound of owners of a single account, the creator included.
	MaxOwners = 4
	// MaxAccountsPerOwner is the number of accounts an identity may be an owner of.
	MaxAccountsPerOwner = 3
)

// Identity is an authenticated caller, as supplied by the boundary layer.
type Identity string

// Account is a shared balance with a fixed set of owners.
type Account struct {
	ID      uint64
	Owners  []Identity
	Balance uint64
}

// IsOwner reports whether id is one of the account owners.
func (a *Account) IsOwner(id Identity) bool {
	for _, owner := range a.Owners {
		if owner == id {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a withdraw request.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusExecuted Status = "EXECUTED"
)

// Withdrawal is a request to move Amount out of an account to its Creator.
type Withdrawal struct {
	ID        uint64
	AccountID uint64
	Creator   Identity
	Amount    uint64
	Approvals []Identity
	Executed  bool
}

// HasApproved reports whether id already approved the request.
func (w *Withdrawal) HasApproved(id Identity) bool {
	for _, approver := range w.Approvals {
		if approver == id {
			return true
		}
	}
	return false
}

// Status derives the lifecycle state for an account with the given number of owners.
func (w *Withdrawal) Status(owners int) Status {
	switch {
	case w.Executed:
		return StatusExecuted
	case len(w.Approvals) >= RequiredApprovals(owners):
		return StatusApproved
	default:
		return StatusPending
	}
}

// RequiredApprovals returns how many owners other than the creator must approve a request before it
// can be executed: a strict majority of them. A single-owner account has nobody to ask.
func RequiredApprovals(owners int) int {
	others := owners - 1
	if others <= 0 {
		return 0
	}
	return others/2 + 1
}
