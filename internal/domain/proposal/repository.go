package proposal

import "context"

type Repository interface {
	Create(ctx context.Context, p *Proposal) error
	Save(ctx context.Context, p *Proposal) error
	GetByID(ctx context.Context, id uint64) (*Proposal, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*Proposal, error)

	// List returns proposals newest first, optionally within one negotiation.
	List(ctx context.Context, negotiationID *uint64) ([]Proposal, error)

	// ListOpenInitial returns initial proposals still pending, oldest first.
	ListOpenInitial(ctx context.Context) ([]Proposal, error)

	// ListLenderPortfolio returns accepted proposals of negotiations where
	// lenderID is the lender.
	ListLenderPortfolio(ctx context.Context, lenderID uint64) ([]Proposal, error)
}
