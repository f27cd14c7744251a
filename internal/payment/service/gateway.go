package service

import (
	"context"
	"time"

	"github.com/Gizz1e/Gizzle/internal/config"
	obsmetrics "github.com/Gizz1e/Gizzle/internal/observability/metrics"
	"github.com/Gizz1e/Gizzle/internal/observability/tracing"
	"github.com/Gizz1e/Gizzle/internal/payment/adapters"
	paymentdomain "github.com/Gizz1e/Gizzle/internal/payment/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg        config.Config
	Log        *zap.Logger
	Registry   *adapters.Registry
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// NewGateway resolves the configured provider from the registry. An unknown
// provider fails start-up.
func NewGateway(p Params) (paymentdomain.Gateway, error) {
	log := p.Log.Named("payment.gateway")

	gw, err := p.Registry.NewGateway(p.Cfg.Payment.Provider, paymentdomain.AdapterConfig{
		APIKey:        p.Cfg.Payment.APIKey,
		WebhookSecret: p.Cfg.Payment.WebhookSecret,
		BaseURL:       p.Cfg.Payment.APIBaseURL,
		Timeout:       p.Cfg.Payment.Timeout,
		Log:           p.Log,
	})
	if err != nil {
		log.Error("payment provider not available", zap.String("provider", p.Cfg.Payment.Provider), zap.Error(err))
		return nil, err
	}
	if p.Cfg.Payment.WebhookSecret == "" {
		log.Warn("webhook secret not configured, all webhook deliveries will be rejected")
	}

	return Instrument(gw, p.ObsMetrics), nil
}

// Instrument wraps gw with a span and a latency observation per call.
func Instrument(gw paymentdomain.Gateway, m *obsmetrics.Metrics) paymentdomain.Gateway {
	return &instrumentedGateway{next: gw, metrics: m}
}

type instrumentedGateway struct {
	next    paymentdomain.Gateway
	metrics *obsmetrics.Metrics
}

func (g *instrumentedGateway) Provider() string {
	return g.next.Provider()
}

func (g *instrumentedGateway) CreateCheckoutSession(ctx context.Context, req paymentdomain.CheckoutSessionRequest) (*paymentdomain.CheckoutSession, error) {
	ctx, finish := g.observe(ctx, "create_checkout_session")
	session, err := g.next.CreateCheckoutSession(ctx, req)
	finish(err)
	return session, err
}

func (g *instrumentedGateway) GetSessionStatus(ctx context.Context, sessionID string) (*paymentdomain.SessionStatus, error) {
	ctx, finish := g.observe(ctx, "get_session_status", attribute.String("payment.session_id", sessionID))
	status, err := g.next.GetSessionStatus(ctx, sessionID)
	finish(err)
	return status, err
}

// ParseWebhookEvent is local verification work and is not timed.
func (g *instrumentedGateway) ParseWebhookEvent(ctx context.Context, payload []byte, signature string) (*paymentdomain.WebhookEvent, error) {
	return g.next.ParseWebhookEvent(ctx, payload, signature)
}

func (g *instrumentedGateway) observe(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	attrs = append(attrs, attribute.String("payment.provider", g.next.Provider()))
	ctx, span := tracing.StartSpan(ctx, "payment.gateway."+operation, attrs...)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, operation+" failed")
		}
		span.End()
		g.metrics.ObserveGatewayCall(ctx, operation, time.Since(start), err)
	}
}
