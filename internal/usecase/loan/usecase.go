package loan

import (
	"context"

	"lending-marketplace/internal/domain/loan"
)

// Usecase is read access to loan snapshots; servicing lives elsewhere.
type Usecase struct{ repo loan.Repository }

func NewUsecase(r loan.Repository) *Usecase { return &Usecase{repo: r} }

func (u *Usecase) Get(ctx context.Context, loanID uint64) (*loan.Loan, error) {
	return u.repo.GetByID(ctx, loanID)
}

func (u *Usecase) GetByNegotiation(ctx context.Context, negotiationID uint64) (*loan.Loan, error) {
	return u.repo.GetByNegotiationID(ctx, negotiationID)
}

func (u *Usecase) List(ctx context.Context, f loan.Filter) ([]loan.Loan, error) {
	return u.repo.List(ctx, f)
}
