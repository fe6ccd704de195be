package mysql

import (
	"context"

	"lending-marketplace/internal/domain/proposal"

	"gorm.io/gorm"
)

// HistoryStore answers the read-only history queries of the rate recommender.
type HistoryStore struct{ db *gorm.DB }

func NewHistoryStore(db *gorm.DB) *HistoryStore { return &HistoryStore{db: db} }

var _ proposal.HistoryStore = (*HistoryStore)(nil)

func (s *HistoryStore) CohortRanges(ctx context.Context, minScore, maxScore int) ([]string, error) {
	var out []string
	err := s.db.WithContext(ctx).
		Table("proposals AS p").
		Joins("JOIN negotiations n ON n.id = p.negotiation_id").
		Joins("JOIN credit_scores s ON s.user_id = n.borrower_id").
		Where("p.status = ? AND s.score BETWEEN ? AND ?", proposal.StatusAccepted, minScore, maxScore).
		Pluck("p.suggested_rate_range", &out).Error
	return out, err
}

func (s *HistoryStore) UserSamples(ctx context.Context, userID uint64, role proposal.Role) ([]proposal.RateSample, error) {
	var rows []struct {
		SuggestedRateRange string
		Principal          *float64
		TermMonths         int
	}
	err := s.db.WithContext(ctx).
		Model(&proposal.Proposal{}).
		Select("suggested_rate_range, principal, term_months").
		Where("author_id = ? AND author_role = ? AND status = ?", userID, role, proposal.StatusAccepted).
		Order("id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]proposal.RateSample, 0, len(rows))
	for _, r := range rows {
		if r.Principal == nil {
			continue
		}
		out = append(out, proposal.RateSample{
			RateRange:  r.SuggestedRateRange,
			Principal:  *r.Principal,
			TermMonths: r.TermMonths,
		})
	}
	return out, nil
}
