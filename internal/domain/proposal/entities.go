package proposal

import (
	"time"
)

// Role identifies which side of a negotiation authored or acts on a proposal.
type Role string

const (
	RoleBorrower Role = "borrower"
	RoleLender   Role = "lender"
)

func (r Role) Valid() bool { return r == RoleBorrower || r == RoleLender }

// Counterpart returns the opposite role.
func (r Role) Counterpart() Role {
	if r == RoleBorrower {
		return RoleLender
	}
	return RoleBorrower
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

const (
	KindInitial = "initial"
	KindCounter = "counter"
)

type Proposal struct {
	ID                 uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	NegotiationID      *uint64   `gorm:"column:negotiation_id;index:idx_proposals_negotiation" json:"negotiation_id"`
	AuthorID           uint64    `gorm:"column:author_id;not null;index:idx_proposals_author" json:"author_id"`
	AuthorRole         Role      `gorm:"column:author_role;size:12;not null" json:"author_role"`
	AnalyzedRateRange  string    `gorm:"column:analyzed_rate_range;size:32;not null" json:"analyzed_rate_range"`
	SuggestedRateRange string    `gorm:"column:suggested_rate_range;size:32;not null" json:"suggested_rate_range"`
	TermMonths         int       `gorm:"column:term_months;not null" json:"term_months"`
	Kind               string    `gorm:"column:kind;size:50" json:"kind"`
	Status             Status    `gorm:"column:status;size:20;not null;index:idx_proposals_status" json:"status"`
	Installment        *float64  `gorm:"column:installment;type:decimal(18,2)" json:"installment"`
	Principal          *float64  `gorm:"column:principal;type:decimal(18,2)" json:"principal"`
	Negotiable         bool      `gorm:"column:negotiable;not null" json:"negotiable"`
	Justification      *string   `gorm:"column:justification;size:255" json:"justification"`
	CreatedAt          time.Time `gorm:"column:created_at;not null;autoCreateTime:false" json:"created_at"`
}

func (Proposal) TableName() string { return "proposals" }

// BlendedRate is the midpoint of the suggested range, else of the analyzed
// range, else 0.
func (p *Proposal) BlendedRate() float64 {
	if r, err := ParseRateRange(p.SuggestedRateRange); err == nil {
		return r.Mid()
	}
	if r, err := ParseRateRange(p.AnalyzedRateRange); err == nil {
		return r.Mid()
	}
	return 0
}
