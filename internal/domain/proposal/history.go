package proposal

import "context"

// RateSample is one accepted proposal as seen by the rate recommender.
type RateSample struct {
	RateRange  string
	Principal  float64
	TermMonths int
}

// HistoryStore is read-only access to accepted proposals.
type HistoryStore interface {
	// CohortRanges returns suggested ranges of accepted proposals whose
	// negotiation borrower scores within [minScore, maxScore].
	CohortRanges(ctx context.Context, minScore, maxScore int) ([]string, error)
	// UserSamples returns the user's own accepted proposals authored as role.
	UserSamples(ctx context.Context, userID uint64, role Role) ([]RateSample, error)
}
