package repository

import (
	"context"
	"time"

	transactiondomain "github.com/Gizz1e/Gizzle/internal/transaction/domain"
	pkgdb "github.com/Gizz1e/Gizzle/pkg/db"
	"gorm.io/gorm"
)

const selectColumns = `id, session_id, amount, currency, payment_status, plan_id, item_id,
	member_id, metadata, created_at, updated_at`

type repo struct{}

func Provide() transactiondomain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, t *transactiondomain.Transaction) error {
	err := db.WithContext(ctx).Exec(
		`INSERT INTO payment_transactions (
			id, session_id, amount, currency, payment_status, plan_id, item_id,
			member_id, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.SessionID,
		t.Amount,
		t.Currency,
		string(t.PaymentStatus),
		t.PlanID,
		t.ItemID,
		t.MemberID,
		t.Metadata,
		t.CreatedAt,
		t.UpdatedAt,
	).Error
	if pkgdb.IsDuplicateKeyErr(err) {
		return transactiondomain.ErrDuplicateSession
	}
	return err
}

func (r *repo) FindBySession(ctx context.Context, db *gorm.DB, sessionID string) (*transactiondomain.Transaction, error) {
	var t transactiondomain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM payment_transactions WHERE session_id = ?`,
		sessionID,
	).Scan(&t).Error
	if err != nil {
		return nil, err
	}
	if t.ID == 0 {
		return nil, transactiondomain.ErrNotFound
	}
	return &t, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, sessionID string, status transactiondomain.PaymentStatus, updatedAt time.Time) (bool, error) {
	if !status.IsTerminal() {
		return false, transactiondomain.ErrInvalidStatus
	}

	result := db.WithContext(ctx).Exec(
		`UPDATE payment_transactions
		 SET payment_status = ?, updated_at = ?
		 WHERE session_id = ? AND payment_status = ?`,
		string(status),
		updatedAt,
		sessionID,
		string(transactiondomain.StatusPending),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListPending(ctx context.Context, db *gorm.DB, createdBefore time.Time, limit int) ([]transactiondomain.Transaction, error) {
	var items []transactiondomain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM payment_transactions
		 WHERE payment_status = ? AND created_at <= ?
		 ORDER BY created_at ASC
		 LIMIT ?`,
		string(transactiondomain.StatusPending),
		createdBefore,
		limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
