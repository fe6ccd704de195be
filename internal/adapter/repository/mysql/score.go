package mysql

import (
	"context"

	"lending-marketplace/internal/domain/score"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ScoreRepository struct{ db *gorm.DB }

func NewScoreRepository(db *gorm.DB) *ScoreRepository { return &ScoreRepository{db: db} }

func (r *ScoreRepository) Upsert(ctx context.Context, s *score.CreditScore) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"score", "model_score", "bureau_score",
				"default_probability", "bureau_weight", "analysis", "updated_at",
			}),
		}).
		Create(s).Error
}

func (r *ScoreRepository) GetByUserID(ctx context.Context, userID uint64) (*score.CreditScore, error) {
	var out score.CreditScore
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&out).Error
	if err != nil {
		return nil, notFound(err, "credit score for user", userID)
	}
	return &out, nil
}
