package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus string

var (
	StatusPending PaymentStatus = "pending"
	StatusPaid    PaymentStatus = "paid"
	StatusFailed  PaymentStatus = "failed"
	StatusExpired PaymentStatus = "expired"
)

// IsTerminal reports whether no further transition may leave s.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusPaid, StatusFailed, StatusExpired:
		return true
	default:
		return false
	}
}

func (s PaymentStatus) Valid() bool {
	return s == StatusPending || s.IsTerminal()
}

// Metadata keys recorded on every transaction.
const (
	MetadataType     = "type"
	MetadataPlanID   = "plan_id"
	MetadataPlanName = "plan_name"
	MetadataItemID   = "item_id"
	MetadataItemName = "item_name"

	TypeSubscription = "subscription"
	TypePurchase     = "purchase"
)

// Transaction is one checkout attempt. Amount and Currency are a snapshot of
// the catalog entry when the session was opened.
type Transaction struct {
	ID            snowflake.ID      `json:"id" gorm:"primaryKey"`
	SessionID     string            `json:"session_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	Amount        decimal.Decimal   `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency      string            `json:"currency" gorm:"type:varchar(8);not null"`
	PaymentStatus PaymentStatus     `json:"payment_status" gorm:"type:varchar(16);not null;default:'pending';index"`
	PlanID        *string           `json:"plan_id,omitempty" gorm:"type:varchar(64)"`
	ItemID        *string           `json:"item_id,omitempty" gorm:"type:varchar(64)"`
	MemberID      *string           `json:"member_id,omitempty" gorm:"type:varchar(128);index"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time         `json:"updated_at" gorm:"not null"`
}

func (Transaction) TableName() string { return "payment_transactions" }
