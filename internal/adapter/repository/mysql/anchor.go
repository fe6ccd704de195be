package mysql

import (
	"context"
	"time"

	"lending-marketplace/internal/domain/anchor"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnchorRepository struct{ db *gorm.DB }

func NewAnchorRepository(db *gorm.DB) *AnchorRepository { return &AnchorRepository{db: db} }

func (r *AnchorRepository) Create(ctx context.Context, t *anchor.Task) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *AnchorRepository) Save(ctx context.Context, t *anchor.Task) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// ClaimPending skips rows another dispatcher already holds. A sending row
// whose lease is older than leaseBefore belongs to a dispatcher that died
// mid-call and is handed out again.
func (r *AnchorRepository) ClaimPending(ctx context.Context, limit int, leaseBefore time.Time) ([]anchor.Task, error) {
	var out []anchor.Task
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? OR (status = ? AND updated_at < ?)",
			anchor.StatusPending, anchor.StatusSending, leaseBefore).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *AnchorRepository) ListByNegotiation(ctx context.Context, negotiationID uint64) ([]anchor.Task, error) {
	var out []anchor.Task
	err := r.db.WithContext(ctx).
		Where("negotiation_id = ?", negotiationID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
