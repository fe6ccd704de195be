package mysql

import (
	"context"

	"lending-marketplace/internal/domain/loan"

	"gorm.io/gorm"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loan.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loan.Loan, error) {
	var out loan.Loan
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFound(err, "loan", id)
	}
	return &out, nil
}

func (r *LoanRepository) GetByNegotiationID(ctx context.Context, negotiationID uint64) (*loan.Loan, error) {
	var out loan.Loan
	err := r.db.WithContext(ctx).Where("negotiation_id = ?", negotiationID).First(&out).Error
	if err != nil {
		return nil, notFound(err, "loan for negotiation", negotiationID)
	}
	return &out, nil
}

func (r *LoanRepository) List(ctx context.Context, f loan.Filter) ([]loan.Loan, error) {
	q := r.db.WithContext(ctx).Model(&loan.Loan{})
	if f.BorrowerID != 0 {
		q = q.Where("borrower_id = ?", f.BorrowerID)
	}
	if f.LenderID != 0 {
		q = q.Where("lender_id = ?", f.LenderID)
	}
	var out []loan.Loan
	err := q.Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}
