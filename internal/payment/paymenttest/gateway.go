// Package paymenttest provides an in-memory payment gateway for tests.
package paymenttest

import (
	"context"
	"fmt"
	"sync"

	paymentdomain "github.com/Gizz1e/Gizzle/internal/payment/domain"
)

// Gateway records requests and answers from canned state. It is safe for
// concurrent use.
type Gateway struct {
	mu sync.Mutex

	CreateErr   error
	StatusErr   error
	WebhookErr  error
	NextEvent   *paymentdomain.WebhookEvent
	Sessions    map[string]*paymentdomain.SessionStatus
	Requests    []paymentdomain.CheckoutSessionRequest
	StatusCalls int

	seq int
}

func NewGateway() *Gateway {
	return &Gateway{Sessions: map[string]*paymentdomain.SessionStatus{}}
}

func (g *Gateway) Provider() string { return "fake" }

func (g *Gateway) CreateCheckoutSession(_ context.Context, req paymentdomain.CheckoutSessionRequest) (*paymentdomain.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Requests = append(g.Requests, req)
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	g.seq++
	id := fmt.Sprintf("cs_fake_%d", g.seq)
	g.Sessions[id] = &paymentdomain.SessionStatus{
		SessionID:     id,
		Status:        paymentdomain.SessionStatusOpen,
		PaymentStatus: paymentdomain.PaymentStatusUnpaid,
		AmountTotal:   req.Amount.Shift(2).Round(0).IntPart(),
		Currency:      req.Currency,
		Metadata:      req.Metadata,
	}
	return &paymentdomain.CheckoutSession{
		SessionID: id,
		URL:       "https://checkout.example.test/pay/" + id,
	}, nil
}

func (g *Gateway) GetSessionStatus(_ context.Context, sessionID string) (*paymentdomain.SessionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.StatusCalls++
	if g.StatusErr != nil {
		return nil, g.StatusErr
	}
	status, ok := g.Sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: no such checkout session %s", paymentdomain.ErrGatewayError, sessionID)
	}
	copied := *status
	return &copied, nil
}

// ParseWebhookEvent accepts only the signature "valid" and returns NextEvent.
func (g *Gateway) ParseWebhookEvent(_ context.Context, _ []byte, signature string) (*paymentdomain.WebhookEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if signature != "valid" {
		return nil, paymentdomain.ErrInvalidSignature
	}
	if g.WebhookErr != nil {
		return nil, g.WebhookErr
	}
	if g.NextEvent == nil {
		return nil, paymentdomain.ErrMalformedPayload
	}
	event := *g.NextEvent
	return &event, nil
}

// SetSession stores or replaces the live state of a session.
func (g *Gateway) SetSession(status paymentdomain.SessionStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Sessions[status.SessionID] = &status
}

// Pay marks a session complete and paid.
func (g *Gateway) Pay(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.Sessions[sessionID]; ok {
		s.Status = paymentdomain.SessionStatusComplete
		s.PaymentStatus = paymentdomain.PaymentStatusPaid
	}
}

func (g *Gateway) LastRequest() (paymentdomain.CheckoutSessionRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Requests) == 0 {
		return paymentdomain.CheckoutSessionRequest{}, false
	}
	return g.Requests[len(g.Requests)-1], true
}

func (g *Gateway) CreateCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Requests)
}

func (g *Gateway) StatusCallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.StatusCalls
}
