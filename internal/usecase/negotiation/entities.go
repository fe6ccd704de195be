package negotiation

// CreateInput describes a new negotiation. Unknown sides stay nil.
type CreateInput struct {
	BorrowerID    *uint64  `json:"borrower_id"`
	LenderID      *uint64  `json:"lender_id"`
	Rate          *float64 `json:"rate"`
	TermMonths    *int     `json:"term_months"`
	Principal     *float64 `json:"principal"`
	Installment   *float64 `json:"installment"`
	ProposalCount int      `json:"proposal_count"`
}
