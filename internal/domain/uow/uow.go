package uow

import (
	"context"

	"lending-marketplace/internal/domain/account"
	"lending-marketplace/internal/domain/anchor"
	"lending-marketplace/internal/domain/loan"
	"lending-marketplace/internal/domain/negotiation"
	"lending-marketplace/internal/domain/proposal"
	"lending-marketplace/internal/domain/score"
)

// Repos is the set of repositories bound to one transaction.
type Repos struct {
	Negotiations negotiation.Repository
	Proposals    proposal.Repository
	Accounts     account.Repository
	Loans        loan.Repository
	Scores       score.Repository
	Anchors      anchor.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the negotiation first, then pass it in
	WithinNegotiationTx(ctx context.Context, id uint64, fn func(r Repos, n *negotiation.Negotiation) error) error
}
