package negotiationmock

import (
	"context"
	"time"

	"lending-marketplace/internal/domain/apperr"
	domain "lending-marketplace/internal/domain/negotiation"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset lookups report not found, unset writes succeed.
type Repo struct {
	CreateFn           func(ctx context.Context, n *domain.Negotiation) error
	SaveFn             func(ctx context.Context, n *domain.Negotiation) error
	GetByIDFn          func(ctx context.Context, id uint64) (*domain.Negotiation, error)
	GetByIDForUpdateFn func(ctx context.Context, id uint64) (*domain.Negotiation, error)
	ListFn             func(ctx context.Context, f domain.Filter) ([]domain.Negotiation, error)
	ExpireStaleFn      func(ctx context.Context, cutoff, now time.Time) (int64, error)
}

func (m *Repo) Create(ctx context.Context, n *domain.Negotiation) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, n)
	}
	return nil
}
func (m *Repo) Save(ctx context.Context, n *domain.Negotiation) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, n)
	}
	return nil
}
func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Negotiation, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, apperr.NotFound("negotiation %d not found", id)
}
func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Negotiation, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, apperr.NotFound("negotiation %d not found", id)
}
func (m *Repo) List(ctx context.Context, f domain.Filter) ([]domain.Negotiation, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, nil
}
func (m *Repo) ExpireStale(ctx context.Context, cutoff, now time.Time) (int64, error) {
	if m.ExpireStaleFn != nil {
		return m.ExpireStaleFn(ctx, cutoff, now)
	}
	return 0, nil
}
