package loan

import "context"

type Filter struct {
	BorrowerID uint64
	LenderID   uint64
}

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	GetByNegotiationID(ctx context.Context, negotiationID uint64) (*Loan, error)
	List(ctx context.Context, f Filter) ([]Loan, error)
}
