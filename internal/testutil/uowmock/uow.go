package uowmock

import (
	"context"
	"errors"

	"lending-marketplace/internal/domain/negotiation"
	"lending-marketplace/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn            func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinNegotiationTxFn func(ctx context.Context, id uint64, fn func(r uow.Repos, n *negotiation.Negotiation) error) error
}

func New() *UoW { return &UoW{} }

// Passthrough runs every body directly against repos, without a tx.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) },
		WithinNegotiationTxFn: func(ctx context.Context, id uint64, fn func(uow.Repos, *negotiation.Negotiation) error) error {
			n, err := repos.Negotiations.GetByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			return fn(repos, n)
		},
	}
}

func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinNegotiationTx(fn func(context.Context, uint64, func(uow.Repos, *negotiation.Negotiation) error) error) *UoW {
	m.WithinNegotiationTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinNegotiationTx(ctx context.Context, id uint64, fn func(r uow.Repos, n *negotiation.Negotiation) error) error {
	if m.WithinNegotiationTxFn != nil {
		return m.WithinNegotiationTxFn(ctx, id, fn)
	}
	return errUnimplemented
}
