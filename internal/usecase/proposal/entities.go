package proposal

import "lending-marketplace/internal/domain/proposal"

// SubmitInput is a new proposal. CounterpartID names the other party when
// the proposal opens a negotiation; without it that side stays unknown.
type SubmitInput struct {
	NegotiationID      *uint64       `json:"negotiation_id"`
	CounterpartID      *uint64       `json:"counterpart_id"`
	AuthorID           uint64        `json:"author_id"`
	AuthorRole         proposal.Role `json:"author_role"`
	AnalyzedRateRange  string        `json:"analyzed_rate_range"`
	SuggestedRateRange string        `json:"suggested_rate_range"`
	TermMonths         int           `json:"term_months"`
	Kind               string        `json:"kind"`
	Principal          *float64      `json:"principal"`
	Installment        *float64      `json:"installment"`
	Justification      *string       `json:"justification"`
}
