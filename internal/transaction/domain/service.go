package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Transaction, error)
	FindBySession(ctx context.Context, sessionID string) (*Transaction, error)
	UpdateStatus(ctx context.Context, sessionID string, status PaymentStatus) (bool, error)
	ListPending(ctx context.Context, olderThan time.Duration, limit int) ([]Transaction, error)
}

// CreateRequest records a freshly opened checkout session. Exactly one of
// PlanID and ItemID is set.
type CreateRequest struct {
	SessionID string
	Amount    decimal.Decimal
	Currency  string
	PlanID    string
	ItemID    string
	MemberID  string
	Metadata  map[string]any
}

var (
	ErrNotFound         = errors.New("not_found")
	ErrDuplicateSession = errors.New("duplicate_session")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrInvalidSession   = errors.New("invalid_session")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrInvalidCurrency  = errors.New("invalid_currency")
	ErrInvalidReference = errors.New("invalid_reference")
)
