package ledger

import "time"

// EventKind names an observable state change.
type EventKind string

const (
	EventAccountCreated    EventKind = "AccountCreated"
	EventDeposit           EventKind = "Deposit"
	EventWithdrawRequested EventKind = "WithdrawRequested"
	EventWithdrawApproved  EventKind = "WithdrawApproved"
	EventWithdraw          EventKind = "Withdraw"
)

// Event is emitted once per committed operation. Seq is assigned by the Publisher.
type Event struct {
	Seq        uint64     `json:"seq"`
	Kind       EventKind  `json:"kind"`
	Caller     Identity   `json:"caller"`
	AccountID  uint64     `json:"accountId"`
	WithdrawID uint64     `json:"withdrawId"`
	Amount     uint64     `json:"amount"`
	Approvals  int        `json:"approvals"`
	Owners     []Identity `json:"owners,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}

// Publisher receives committed events in emission order.
// Implementations must not block and must not call back into the engine.
type Publisher interface {
	Publish(events ...Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(...Event) {}
