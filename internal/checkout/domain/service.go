package domain

import (
	"context"
	"errors"

	catalogdomain "github.com/Gizz1e/Gizzle/internal/catalog/domain"
)

// Service opens hosted checkout sessions for catalog entries and records each
// attempt in the ledger.
type Service interface {
	CreateSubscriptionCheckout(ctx context.Context, req CreateRequest) (*Result, error)
	CreatePurchaseCheckout(ctx context.Context, req CreateRequest) (*Result, error)
}

// CreateRequest selects a plan (subscriptions) or an item (purchases). Origin
// is the caller's scheme and host, used to build the return URLs.
type CreateRequest struct {
	PlanID   string
	ItemID   string
	Origin   string
	MemberID string
}

// Result carries exactly one of Plan and Item.
type Result struct {
	CheckoutURL string
	SessionID   string
	Plan        *catalogdomain.Plan
	Item        *catalogdomain.Item
}

var (
	ErrInvalidSelection = errors.New("invalid_selection")
	ErrInvalidOrigin    = errors.New("invalid_origin")
)
