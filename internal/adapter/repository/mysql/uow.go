package mysql

import (
	"context"

	"lending-marketplace/internal/domain/negotiation"
	"lending-marketplace/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

var _ uow.UnitOfWork = (*GormUoW)(nil)

// Repos binds every repository to db, usually a transaction handle.
func Repos(db *gorm.DB) uow.Repos {
	return uow.Repos{
		Negotiations: &NegotiationRepository{db: db},
		Proposals:    &ProposalRepository{db: db},
		Accounts:     &AccountRepository{db: db},
		Loans:        &LoanRepository{db: db},
		Scores:       &ScoreRepository{db: db},
		Anchors:      &AnchorRepository{db: db},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repos(tx))
	})
}

func (u *GormUoW) WithinNegotiationTx(ctx context.Context, id uint64, fn func(r uow.Repos, n *negotiation.Negotiation) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := Repos(tx)
		// lock the negotiation row up-front to prevent races
		n, err := r.Negotiations.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		return fn(r, n)
	})
}
