package negotiation

import (
	"time"
)

type Status string

const (
	StatusNegotiating Status = "negotiating"
	StatusPending     Status = "pending"
	StatusInProgress  Status = "in_progress"
	StatusAccepted    Status = "accepted"
	StatusFinalized   Status = "finalized"
	StatusRejected    Status = "rejected"
	StatusCancelled   Status = "cancelled"
	StatusExpired     Status = "expired"
)

// DefaultTTL is how long an open negotiation lives before the read-path sweep expires it.
const DefaultTTL = 48 * time.Hour

// ExpirableStatuses are the open states (negotiating and its aliases).
var ExpirableStatuses = []Status{StatusNegotiating, StatusPending, StatusInProgress}

func (s Status) Valid() bool {
	switch s {
	case StatusNegotiating, StatusPending, StatusInProgress,
		StatusAccepted, StatusFinalized,
		StatusRejected, StatusCancelled,
		StatusExpired:
		return true
	}
	return false
}

func (s Status) Open() bool {
	return s == StatusNegotiating || s == StatusPending || s == StatusInProgress
}

func (s Status) Terminal() bool { return s.Valid() && !s.Open() }

// Closed reports whether s is one of the deal-closing states.
func (s Status) Closed() bool { return s == StatusAccepted || s == StatusFinalized }

type Negotiation struct {
	ID            uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	BorrowerID    *uint64    `gorm:"column:borrower_id;index:idx_negotiations_borrower" json:"borrower_id"`
	LenderID      *uint64    `gorm:"column:lender_id;index:idx_negotiations_lender" json:"lender_id"`
	Status        Status     `gorm:"column:status;size:20;not null;index:idx_negotiations_status" json:"status"`
	Rate          *float64   `gorm:"column:rate;type:decimal(6,2)" json:"rate"`
	TermMonths    *int       `gorm:"column:term_months" json:"term_months"`
	Principal     *float64   `gorm:"column:principal;type:decimal(18,2)" json:"principal"`
	Installment   *float64   `gorm:"column:installment;type:decimal(18,2)" json:"installment"`
	ProposalCount int        `gorm:"column:proposal_count;not null;default:0" json:"proposal_count"`
	HashOnchain   *string    `gorm:"column:hash_onchain;size:128" json:"hash_onchain"`
	ContractHash  *string    `gorm:"column:contract_hash;size:64" json:"contract_hash"`
	SignedAt      *time.Time `gorm:"column:signed_at" json:"signed_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updated_at"`
}

func (Negotiation) TableName() string { return "negotiations" }

// Stale reports whether an open negotiation has outlived ttl at now.
func (n *Negotiation) Stale(now time.Time, ttl time.Duration) bool {
	return n.Status.Open() && now.Sub(n.CreatedAt) >= ttl
}

// HasParty reports whether userID is the recorded borrower or lender.
func (n *Negotiation) HasParty(userID uint64) bool {
	return (n.BorrowerID != nil && *n.BorrowerID == userID) ||
		(n.LenderID != nil && *n.LenderID == userID)
}

// SameParty reports whether both sides are known and identical.
func (n *Negotiation) SameParty() bool {
	return n.BorrowerID != nil && n.LenderID != nil && *n.BorrowerID == *n.LenderID
}
