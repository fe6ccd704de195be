package mysql

import (
	"context"
	"time"

	"lending-marketplace/internal/domain/negotiation"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NegotiationRepository struct{ db *gorm.DB }

func NewNegotiationRepository(db *gorm.DB) *NegotiationRepository {
	return &NegotiationRepository{db: db}
}

func (r *NegotiationRepository) Create(ctx context.Context, n *negotiation.Negotiation) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NegotiationRepository) Save(ctx context.Context, n *negotiation.Negotiation) error {
	return r.db.WithContext(ctx).Save(n).Error
}

func (r *NegotiationRepository) GetByID(ctx context.Context, id uint64) (*negotiation.Negotiation, error) {
	var out negotiation.Negotiation
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFound(err, "negotiation", id)
	}
	return &out, nil
}

func (r *NegotiationRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*negotiation.Negotiation, error) {
	var out negotiation.Negotiation
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&out, id).Error
	if err != nil {
		return nil, notFound(err, "negotiation", id)
	}
	return &out, nil
}

func (r *NegotiationRepository) List(ctx context.Context, f negotiation.Filter) ([]negotiation.Negotiation, error) {
	q := r.db.WithContext(ctx).Model(&negotiation.Negotiation{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.BorrowerID != 0 {
		q = q.Where("borrower_id = ?", f.BorrowerID)
	}
	if f.LenderID != 0 {
		q = q.Where("lender_id = ?", f.LenderID)
	}
	var out []negotiation.Negotiation
	err := q.Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *NegotiationRepository) ExpireStale(ctx context.Context, cutoff, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&negotiation.Negotiation{}).
		Where("status IN ? AND created_at <= ?", negotiation.ExpirableStatuses, cutoff).
		Updates(map[string]any{
			"status":     negotiation.StatusExpired,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}
