package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const routingKeyPrefix = "payment.transaction."

// Publisher delivers payment events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event TransitionEvent) error
	Close() error
}

// TransitionEvent is emitted once per applied ledger transition.
type TransitionEvent struct {
	EventID       string          `json:"event_id"`
	TransactionID string          `json:"transaction_id,omitempty"`
	SessionID     string          `json:"session_id"`
	Status        string          `json:"status"`
	Source        string          `json:"source"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency,omitempty"`
	MemberID      string          `json:"member_id,omitempty"`
	PlanID        string          `json:"plan_id,omitempty"`
	ItemID        string          `json:"item_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func (e TransitionEvent) RoutingKey() string {
	return routingKeyPrefix + e.Status
}

func (e TransitionEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}
