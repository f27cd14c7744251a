package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, tx *Transaction) error
	FindBySession(ctx context.Context, db *gorm.DB, sessionID string) (*Transaction, error)
	// UpdateStatus moves a pending transaction to status in one conditional
	// statement and reports whether a row changed.
	UpdateStatus(ctx context.Context, db *gorm.DB, sessionID string, status PaymentStatus, updatedAt time.Time) (bool, error)
	ListPending(ctx context.Context, db *gorm.DB, createdBefore time.Time, limit int) ([]Transaction, error)
}
