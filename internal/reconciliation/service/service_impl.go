package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Gizz1e/Gizzle/internal/clock"
	"github.com/Gizz1e/Gizzle/internal/events"
	"github.com/Gizz1e/Gizzle/internal/observability/logger"
	obsmetrics "github.com/Gizz1e/Gizzle/internal/observability/metrics"
	"github.com/Gizz1e/Gizzle/internal/observability/tracing"
	paymentdomain "github.com/Gizz1e/Gizzle/internal/payment/domain"
	reconciliationdomain "github.com/Gizz1e/Gizzle/internal/reconciliation/domain"
	transactiondomain "github.com/Gizz1e/Gizzle/internal/transaction/domain"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log          *zap.Logger
	Gateway      paymentdomain.Gateway
	Transactions transactiondomain.Service
	Publisher    events.Publisher
	Clock        clock.Clock
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log          *zap.Logger
	gateway      paymentdomain.Gateway
	transactions transactiondomain.Service
	publisher    events.Publisher
	clock        clock.Clock
	metrics      *obsmetrics.Metrics
}

func New(p Params) reconciliationdomain.Service {
	publisher := p.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		log:          p.Log.Named("reconciliation.service"),
		gateway:      p.Gateway,
		transactions: p.Transactions,
		publisher:    publisher,
		clock:        p.Clock,
		metrics:      p.ObsMetrics,
	}
}

// CheckStatus asks the gateway for the live session state, settles a pending
// ledger record when that state is terminal, and returns the live state.
func (s *Service) CheckStatus(ctx context.Context, sessionID string) (*reconciliationdomain.StatusResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, transactiondomain.ErrNotFound
	}

	live, err := s.gateway.GetSessionStatus(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	tx, err := s.transactions.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.settle(ctx, tx, live, reconciliationdomain.SourcePoll); err != nil {
		return nil, err
	}

	return &reconciliationdomain.StatusResult{
		SessionID:     sessionID,
		Status:        live.Status,
		PaymentStatus: live.PaymentStatus,
		AmountTotal:   live.AmountTotal,
		Currency:      live.Currency,
		Metadata:      live.Metadata,
	}, nil
}

// HandleWebhook verifies a gateway notification and applies the transition it
// implies. Events that settle nothing, repeats and unknown sessions are
// acknowledged with a nil error.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	log := logger.WithContext(ctx, s.log)

	event, err := s.gateway.ParseWebhookEvent(ctx, payload, signature)
	if err != nil {
		log.Warn("webhook rejected", zap.Error(err))
		return err
	}
	s.metrics.RecordWebhookEvent(ctx, s.gateway.Provider(), event.EventType)

	log = log.With(
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
	)

	target, ok := reconciliationdomain.WebhookTarget(*event)
	if !ok || event.SessionID == "" {
		log.Debug("webhook ignored", zap.String("payment_status", event.PaymentStatus))
		return nil
	}
	log = logger.WithSession(log, event.SessionID)

	tx, err := s.transactions.FindBySession(ctx, event.SessionID)
	if err != nil {
		if errors.Is(err, transactiondomain.ErrNotFound) {
			log.Warn("webhook for unknown checkout session, no ledger record to update")
			return nil
		}
		return err
	}

	applied, err := s.apply(ctx, tx, target, reconciliationdomain.SourceWebhook)
	if err != nil {
		return err
	}
	if !applied {
		log.Info("webhook already reconciled", zap.String("payment_status", string(tx.PaymentStatus)))
	}
	return nil
}

// Sweep polls the gateway for pending transactions older than olderThan.
// Failures are collected and do not stop the run.
func (s *Service) Sweep(ctx context.Context, olderThan time.Duration, limit int) (*reconciliationdomain.SweepResult, error) {
	ctx, span := tracing.StartSpan(ctx, "reconciliation.sweep",
		attribute.Int64("sweep.older_than_seconds", int64(olderThan/time.Second)),
		attribute.Int("sweep.limit", limit),
	)
	defer span.End()

	pending, err := s.transactions.ListPending(ctx, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}

	result := &reconciliationdomain.SweepResult{}
	var errs []error
	for i := range pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		tx := &pending[i]
		result.Scanned++

		live, err := s.gateway.GetSessionStatus(ctx, tx.SessionID)
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("session %s: %w", tx.SessionID, err))
			continue
		}
		applied, err := s.settle(ctx, tx, live, reconciliationdomain.SourceSweep)
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("session %s: %w", tx.SessionID, err))
			continue
		}
		if applied {
			result.Transitioned++
		}
	}

	span.SetAttributes(
		attribute.Int("sweep.scanned", result.Scanned),
		attribute.Int("sweep.transitioned", result.Transitioned),
	)
	s.log.Info("sweep finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("transitioned", result.Transitioned),
		zap.Int("failed", result.Failed),
	)
	return result, errors.Join(errs...)
}

func (s *Service) settle(ctx context.Context, tx *transactiondomain.Transaction, live *paymentdomain.SessionStatus, source string) (bool, error) {
	if tx.PaymentStatus != transactiondomain.StatusPending {
		return false, nil
	}
	target, ok := reconciliationdomain.TargetStatus(live.Status, live.PaymentStatus)
	if !ok {
		return false, nil
	}
	return s.apply(ctx, tx, target, source)
}

// apply runs the conditional update. Only the caller that wins it records the
// metric and publishes the event.
func (s *Service) apply(ctx context.Context, tx *transactiondomain.Transaction, target transactiondomain.PaymentStatus, source string) (bool, error) {
	applied, err := s.transactions.UpdateStatus(ctx, tx.SessionID, target)
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}

	log := logger.WithSession(logger.WithContext(ctx, s.log), tx.SessionID)
	log.Info("payment status reconciled",
		zap.String("payment_status", string(target)),
		zap.String("source", source),
	)
	s.metrics.RecordStatusTransition(ctx, string(target), source)

	event := events.TransitionEvent{
		EventID:       uuid.NewString(),
		TransactionID: tx.ID.String(),
		SessionID:     tx.SessionID,
		Status:        string(target),
		Source:        source,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		MemberID:      deref(tx.MemberID),
		PlanID:        deref(tx.PlanID),
		ItemID:        deref(tx.ItemID),
		OccurredAt:    s.clock.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn("payment event not published", zap.String("routing_key", event.RoutingKey()), zap.Error(err))
	}
	return true, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
