package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paymentdomain "github.com/Gizz1e/Gizzle/internal/payment/domain"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	stripego "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"github.com/stripe/stripe-go/v72/webhook"
	"go.uber.org/zap"
)

const (
	providerName     = "stripe"
	defaultTimeout   = 10 * time.Second
	breakerThreshold = 5
)

var hundred = decimal.NewFromInt(100)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return providerName
}

// NewAdapter builds a Stripe gateway. Without an API key the adapter still
// verifies webhooks but every API call fails with ErrGatewayUnavailable.
func (f *Factory) NewAdapter(cfg paymentdomain.AdapterConfig) (paymentdomain.Gateway, error) {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("payment.stripe")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	adapter := &Adapter{
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		timeout:       timeout,
		log:           log,
	}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		adapter.api = newAPI(key, strings.TrimSpace(cfg.BaseURL), timeout, log)
	} else {
		log.Warn("stripe api key not configured, checkout is unavailable")
	}
	adapter.breaker = newBreaker(log)

	return adapter, nil
}

type Adapter struct {
	api           *client.API
	webhookSecret string
	timeout       time.Duration
	breaker       *gobreaker.CircuitBreaker[*stripego.CheckoutSession]
	log           *zap.Logger
}

func (a *Adapter) Provider() string {
	return providerName
}

func (a *Adapter) CreateCheckoutSession(ctx context.Context, req paymentdomain.CheckoutSessionRequest) (*paymentdomain.CheckoutSession, error) {
	if a.api == nil {
		return nil, paymentdomain.ErrGatewayUnavailable
	}

	unitAmount, err := toMinorUnits(req.Amount)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	productData := &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripego.String(productName(req)),
	}
	params := &stripego.CheckoutSessionParams{
		PaymentMethodTypes: stripego.StringSlice([]string{"card"}),
		Mode:               stripego.String(string(stripego.CheckoutSessionModePayment)),
		LineItems: []*stripego.CheckoutSessionLineItemParams{
			{
				PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripego.String(strings.ToLower(strings.TrimSpace(req.Currency))),
					ProductData: productData,
					UnitAmount:  stripego.Int64(unitAmount),
				},
				Quantity: stripego.Int64(1),
			},
		},
		SuccessURL: stripego.String(req.SuccessURL),
		CancelURL:  stripego.String(req.CancelURL),
	}
	params.Context = ctx
	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}

	session, err := a.breaker.Execute(func() (*stripego.CheckoutSession, error) {
		return a.api.CheckoutSessions.New(params)
	})
	if err != nil {
		return nil, a.wrapError("create checkout session", err)
	}

	return &paymentdomain.CheckoutSession{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

func (a *Adapter) GetSessionStatus(ctx context.Context, sessionID string) (*paymentdomain.SessionStatus, error) {
	if a.api == nil {
		return nil, paymentdomain.ErrGatewayUnavailable
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", paymentdomain.ErrGatewayError)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	params := &stripego.CheckoutSessionParams{}
	params.Context = ctx

	session, err := a.breaker.Execute(func() (*stripego.CheckoutSession, error) {
		return a.api.CheckoutSessions.Get(sessionID, params)
	})
	if err != nil {
		return nil, a.wrapError("get checkout session", err)
	}

	return &paymentdomain.SessionStatus{
		SessionID:     session.ID,
		Status:        string(session.Status),
		PaymentStatus: string(session.PaymentStatus),
		AmountTotal:   session.AmountTotal,
		Currency:      string(session.Currency),
		Metadata:      session.Metadata,
	}, nil
}

// ParseWebhookEvent verifies the Stripe-Signature header before decoding.
// A missing webhook secret fails verification.
func (a *Adapter) ParseWebhookEvent(ctx context.Context, payload []byte, signature string) (*paymentdomain.WebhookEvent, error) {
	signature = strings.TrimSpace(signature)
	if a.webhookSecret == "" || signature == "" {
		return nil, paymentdomain.ErrInvalidSignature
	}

	if err := webhook.ValidatePayload(payload, signature, a.webhookSecret); err != nil {
		if isSignatureError(err) {
			return nil, paymentdomain.ErrInvalidSignature
		}
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrMalformedPayload, err)
	}

	var event stripego.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrMalformedPayload, err)
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, fmt.Errorf("%w: event id is missing", paymentdomain.ErrMalformedPayload)
	}

	parsed := &paymentdomain.WebhookEvent{
		EventID:   event.ID,
		EventType: string(event.Type),
	}
	if !strings.HasPrefix(parsed.EventType, "checkout.session.") {
		return parsed, nil
	}

	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, fmt.Errorf("%w: event %s has no data", paymentdomain.ErrMalformedPayload, event.ID)
	}
	var session stripego.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrMalformedPayload, err)
	}
	if strings.TrimSpace(session.ID) == "" {
		return nil, fmt.Errorf("%w: event %s has no session id", paymentdomain.ErrMalformedPayload, event.ID)
	}
	parsed.SessionID = session.ID
	parsed.PaymentStatus = string(session.PaymentStatus)

	return parsed, nil
}

func (a *Adapter) wrapError(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: circuit open: %w", paymentdomain.ErrGatewayError, op, err)
	}
	var stripeErr *stripego.Error
	if errors.As(err, &stripeErr) {
		a.log.Warn("stripe request rejected",
			zap.String("operation", op),
			zap.Int("http_status", stripeErr.HTTPStatusCode),
			zap.String("code", string(stripeErr.Code)),
			zap.String("request_id", stripeErr.RequestID),
		)
	}
	return fmt.Errorf("%w: %s: %w", paymentdomain.ErrGatewayError, op, err)
}

func newAPI(key, baseURL string, timeout time.Duration, log *zap.Logger) *client.API {
	backendCfg := &stripego.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripego.Int64(0),
		LeveledLogger:     log.Sugar(),
	}
	if baseURL != "" {
		backendCfg.URL = stripego.String(baseURL)
	}

	api := &client.API{}
	api.Init(key, &stripego.Backends{
		API:     stripego.GetBackendWithConfig(stripego.APIBackend, backendCfg),
		Connect: stripego.GetBackendWithConfig(stripego.ConnectBackend, backendCfg),
		Uploads: stripego.GetBackendWithConfig(stripego.UploadsBackend, backendCfg),
	})
	return api
}

func newBreaker(log *zap.Logger) *gobreaker.CircuitBreaker[*stripego.CheckoutSession] {
	return gobreaker.NewCircuitBreaker[*stripego.CheckoutSession](gobreaker.Settings{
		Name:        "stripe.checkout_sessions",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerThreshold
		},
		// Rejected requests mean Stripe is reachable.
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

func isClientError(err error) bool {
	var stripeErr *stripego.Error
	if !errors.As(err, &stripeErr) {
		return false
	}
	status := stripeErr.HTTPStatusCode
	return status >= http.StatusBadRequest && status < http.StatusInternalServerError && status != http.StatusTooManyRequests
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

// toMinorUnits converts a decimal price into cents, rounding half away from zero.
func toMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: amount must be positive", paymentdomain.ErrGatewayError)
	}
	return amount.Mul(hundred).Round(0).IntPart(), nil
}

func productName(req paymentdomain.CheckoutSessionRequest) string {
	if name := strings.TrimSpace(req.Description); name != "" {
		return name
	}
	return "Gizzle checkout"
}
