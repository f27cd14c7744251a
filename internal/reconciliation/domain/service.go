package domain

import (
	"context"
	"time"

	paymentdomain "github.com/Gizz1e/Gizzle/internal/payment/domain"
	transactiondomain "github.com/Gizz1e/Gizzle/internal/transaction/domain"
)

// Service folds the gateway's view of a checkout session into the ledger.
// The poll, webhook and sweep paths all end in the same conditional update.
type Service interface {
	CheckStatus(ctx context.Context, sessionID string) (*StatusResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	Sweep(ctx context.Context, olderThan time.Duration, limit int) (*SweepResult, error)
}

// StatusResult is the live gateway state of a session. AmountTotal is in
// minor currency units.
type StatusResult struct {
	SessionID     string            `json:"session_id"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

type SweepResult struct {
	Scanned      int `json:"scanned"`
	Transitioned int `json:"transitioned"`
	Failed       int `json:"failed"`
}

// Where a transition was observed.
const (
	SourcePoll    = "poll"
	SourceWebhook = "webhook"
	SourceSweep   = "sweep"
)

// TargetStatus maps live gateway state to the terminal ledger status it
// implies. ok is false while the session is still undecided.
func TargetStatus(sessionStatus, paymentStatus string) (transactiondomain.PaymentStatus, bool) {
	if paymentStatus == paymentdomain.PaymentStatusPaid {
		return transactiondomain.StatusPaid, true
	}
	if sessionStatus == paymentdomain.SessionStatusExpired {
		return transactiondomain.StatusExpired, true
	}
	return "", false
}

// WebhookTarget maps a verified webhook event to a terminal ledger status.
// Events that do not settle a checkout session return ok false.
func WebhookTarget(event paymentdomain.WebhookEvent) (transactiondomain.PaymentStatus, bool) {
	switch event.EventType {
	case paymentdomain.EventCheckoutSessionCompleted:
		// Delayed payment methods complete the session while still unpaid.
		if event.PaymentStatus == paymentdomain.PaymentStatusPaid {
			return transactiondomain.StatusPaid, true
		}
	case paymentdomain.EventCheckoutSessionAsyncPaymentSuccess:
		return transactiondomain.StatusPaid, true
	case paymentdomain.EventCheckoutSessionAsyncPaymentFailed:
		return transactiondomain.StatusFailed, true
	case paymentdomain.EventCheckoutSessionExpired:
		return transactiondomain.StatusExpired, true
	}
	return "", false
}
