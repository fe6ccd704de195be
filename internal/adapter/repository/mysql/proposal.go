package mysql

import (
	"context"

	"lending-marketplace/internal/domain/proposal"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProposalRepository struct{ db *gorm.DB }

func NewProposalRepository(db *gorm.DB) *ProposalRepository { return &ProposalRepository{db: db} }

func (r *ProposalRepository) Create(ctx context.Context, p *proposal.Proposal) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProposalRepository) Save(ctx context.Context, p *proposal.Proposal) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *ProposalRepository) GetByID(ctx context.Context, id uint64) (*proposal.Proposal, error) {
	var out proposal.Proposal
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFound(err, "proposal", id)
	}
	return &out, nil
}

func (r *ProposalRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*proposal.Proposal, error) {
	var out proposal.Proposal
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&out, id).Error
	if err != nil {
		return nil, notFound(err, "proposal", id)
	}
	return &out, nil
}

func (r *ProposalRepository) List(ctx context.Context, negotiationID *uint64) ([]proposal.Proposal, error) {
	q := r.db.WithContext(ctx).Model(&proposal.Proposal{})
	if negotiationID != nil {
		q = q.Where("negotiation_id = ?", *negotiationID)
	}
	var out []proposal.Proposal
	err := q.Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *ProposalRepository) ListOpenInitial(ctx context.Context) ([]proposal.Proposal, error) {
	var out []proposal.Proposal
	err := r.db.WithContext(ctx).
		Where("kind = ? AND status = ?", proposal.KindInitial, proposal.StatusPending).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *ProposalRepository) ListLenderPortfolio(ctx context.Context, lenderID uint64) ([]proposal.Proposal, error) {
	var out []proposal.Proposal
	err := r.db.WithContext(ctx).
		Select("proposals.*").
		Joins("JOIN negotiations ON negotiations.id = proposals.negotiation_id").
		Where("negotiations.lender_id = ? AND proposals.status = ?", lenderID, proposal.StatusAccepted).
		Order("proposals.id ASC").
		Find(&out).Error
	return out, err
}
