package domain

import (
	"github.com/shopspring/decimal"
)

// Checkout session status as reported by the gateway.
const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"
)

// Payment status of a checkout session as reported by the gateway.
const (
	PaymentStatusPaid              = "paid"
	PaymentStatusUnpaid            = "unpaid"
	PaymentStatusNoPaymentRequired = "no_payment_required"
)

// Webhook event types the reconciliation flow acts on.
const (
	EventCheckoutSessionCompleted           = "checkout.session.completed"
	EventCheckoutSessionExpired             = "checkout.session.expired"
	EventCheckoutSessionAsyncPaymentFailed  = "checkout.session.async_payment_failed"
	EventCheckoutSessionAsyncPaymentSuccess = "checkout.session.async_payment_succeeded"
)

type CheckoutSessionRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

type CheckoutSession struct {
	SessionID string
	URL       string
}

// SessionStatus is the live view of a checkout session. AmountTotal is in
// minor currency units.
type SessionStatus struct {
	SessionID     string
	Status        string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	Metadata      map[string]string
}

// WebhookEvent is a verified gateway notification. SessionID and
// PaymentStatus are empty for events that do not concern a checkout session.
type WebhookEvent struct {
	EventID       string
	EventType     string
	SessionID     string
	PaymentStatus string
}
