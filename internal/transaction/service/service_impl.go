package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Gizz1e/Gizzle/internal/clock"
	transactiondomain "github.com/Gizz1e/Gizzle/internal/transaction/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxPendingBatch = 500

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  transactiondomain.Repository
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  transactiondomain.Repository
	clock clock.Clock
}

func New(p Params) transactiondomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("transaction.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, req transactiondomain.CreateRequest) (*transactiondomain.Transaction, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return nil, transactiondomain.ErrInvalidSession
	}
	if !req.Amount.IsPositive() {
		return nil, transactiondomain.ErrInvalidAmount
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		return nil, transactiondomain.ErrInvalidCurrency
	}
	planID := optionalString(req.PlanID)
	itemID := optionalString(req.ItemID)
	if (planID == nil) == (itemID == nil) {
		return nil, transactiondomain.ErrInvalidReference
	}

	now := s.clock.Now().UTC()
	entity := &transactiondomain.Transaction{
		ID:            s.genID.Generate(),
		SessionID:     sessionID,
		Amount:        req.Amount,
		Currency:      currency,
		PaymentStatus: transactiondomain.StatusPending,
		PlanID:        planID,
		ItemID:        itemID,
		MemberID:      optionalString(req.MemberID),
		Metadata:      datatypes.JSONMap{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for key, value := range req.Metadata {
		entity.Metadata[key] = value
	}

	if err := s.repo.Create(ctx, s.db, entity); err != nil {
		return nil, err
	}

	s.log.Info("transaction recorded",
		zap.String("session_id", entity.SessionID),
		zap.String("transaction_id", entity.ID.String()),
		zap.String("amount", entity.Amount.StringFixed(2)),
		zap.String("currency", entity.Currency),
	)
	return entity, nil
}

func (s *Service) FindBySession(ctx context.Context, sessionID string) (*transactiondomain.Transaction, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, transactiondomain.ErrNotFound
	}
	return s.repo.FindBySession(ctx, s.db, sessionID)
}

// UpdateStatus applies the pending to status transition. A false result with
// a nil error means the record was already terminal or does not exist.
func (s *Service) UpdateStatus(ctx context.Context, sessionID string, status transactiondomain.PaymentStatus) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false, transactiondomain.ErrInvalidSession
	}
	if !status.IsTerminal() {
		return false, transactiondomain.ErrInvalidStatus
	}

	changed, err := s.repo.UpdateStatus(ctx, s.db, sessionID, status, s.clock.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update status of %s: %w", sessionID, err)
	}
	if changed {
		s.log.Info("transaction status updated",
			zap.String("session_id", sessionID),
			zap.String("payment_status", string(status)),
		)
	}
	return changed, nil
}

// ListPending returns pending transactions created more than olderThan ago, oldest first.
func (s *Service) ListPending(ctx context.Context, olderThan time.Duration, limit int) ([]transactiondomain.Transaction, error) {
	if olderThan < 0 {
		olderThan = 0
	}
	if limit <= 0 || limit > maxPendingBatch {
		limit = maxPendingBatch
	}
	return s.repo.ListPending(ctx, s.db, s.clock.Now().UTC().Add(-olderThan), limit)
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
