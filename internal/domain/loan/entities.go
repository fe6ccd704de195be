package loan

import (
	"time"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusSettled Status = "settled"
	StatusDefault Status = "default"
)

// Loan is the immutable snapshot written when a negotiation closes.
type Loan struct {
	ID            uint64     `gorm:"primaryKey;column:id" json:"id"`
	LoanCode      string     `gorm:"column:loan_code;size:32;uniqueIndex:ux_loans_loan_code;not null" json:"loan_code"`
	NegotiationID uint64     `gorm:"column:negotiation_id;uniqueIndex:ux_loans_negotiation;not null" json:"negotiation_id"`
	BorrowerID    uint64     `gorm:"column:borrower_id;index:idx_loans_borrower;not null" json:"borrower_id"`
	LenderID      uint64     `gorm:"column:lender_id;index:idx_loans_lender;not null" json:"lender_id"`
	Principal     float64    `gorm:"column:principal;type:decimal(18,2);not null" json:"principal"`
	Rate          float64    `gorm:"column:rate;type:decimal(6,2);not null" json:"rate"`
	TermMonths    int        `gorm:"column:term_months;not null" json:"term_months"`
	Installment   *float64   `gorm:"column:installment;type:decimal(18,2)" json:"installment"`
	ContractHash  string     `gorm:"column:contract_hash;size:64;not null" json:"contract_hash"`
	HashOnchain   *string    `gorm:"column:hash_onchain;size:128" json:"hash_onchain"`
	Status        Status     `gorm:"column:status;size:16;not null;default:'active'" json:"status"`
	Settled       bool       `gorm:"column:settled;not null;default:false" json:"settled"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updated_at"`
	SettledAt     *time.Time `gorm:"column:settled_at" json:"settled_at"`
}

func (Loan) TableName() string { return "loans" }
