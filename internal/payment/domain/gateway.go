package domain

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Gateway isolates the hosted checkout provider.
type Gateway interface {
	Provider() string
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
	GetSessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error)
	ParseWebhookEvent(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

type AdapterConfig struct {
	APIKey        string
	WebhookSecret string
	BaseURL       string
	Timeout       time.Duration
	Log           *zap.Logger
}

type AdapterFactory interface {
	Provider() string
	NewAdapter(cfg AdapterConfig) (Gateway, error)
}

var (
	ErrGatewayUnavailable = errors.New("gateway_unavailable")
	ErrGatewayError       = errors.New("gateway_error")
	ErrInvalidSignature   = errors.New("invalid_signature")
	ErrMalformedPayload   = errors.New("malformed_payload")
	ErrProviderNotFound   = errors.New("provider_not_found")
)
