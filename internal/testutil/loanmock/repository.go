package loanmock

import (
	"context"

	"lending-marketplace/internal/domain/apperr"
	domain "lending-marketplace/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset lookups report not found, unset writes succeed.
type Repo struct {
	CreateFn             func(ctx context.Context, l *domain.Loan) error
	SaveFn               func(ctx context.Context, l *domain.Loan) error
	GetByIDFn            func(ctx context.Context, id uint64) (*domain.Loan, error)
	GetByNegotiationIDFn func(ctx context.Context, negotiationID uint64) (*domain.Loan, error)
	ListFn               func(ctx context.Context, f domain.Filter) ([]domain.Loan, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}
func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}
func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, apperr.NotFound("loan %d not found", id)
}
func (m *Repo) GetByNegotiationID(ctx context.Context, negotiationID uint64) (*domain.Loan, error) {
	if m.GetByNegotiationIDFn != nil {
		return m.GetByNegotiationIDFn(ctx, negotiationID)
	}
	return nil, apperr.NotFound("loan for negotiation %d not found", negotiationID)
}
func (m *Repo) List(ctx context.Context, f domain.Filter) ([]domain.Loan, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, nil
}
