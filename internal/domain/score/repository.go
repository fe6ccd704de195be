package score

import "context"

type Repository interface {
	// Upsert inserts or replaces the score row of s.UserID.
	Upsert(ctx context.Context, s *CreditScore) error
	GetByUserID(ctx context.Context, userID uint64) (*CreditScore, error)
}
