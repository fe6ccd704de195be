package proposal

import (
	"context"
	"strings"

	"lending-marketplace/internal/domain/apperr"
	"lending-marketplace/internal/domain/negotiation"
	"lending-marketplace/internal/domain/proposal"
	"lending-marketplace/internal/domain/uow"
	negotiationuc "lending-marketplace/internal/usecase/negotiation"
	"lending-marketplace/internal/usecase/ranking"

	"github.com/sirupsen/logrus"
)

type Lifecycle struct {
	repo proposal.Repository
	uow  uow.UnitOfWork
	sm   *negotiationuc.StateMachine
}

func NewLifecycle(repo proposal.Repository, u uow.UnitOfWork, sm *negotiationuc.StateMachine) *Lifecycle {
	return &Lifecycle{repo: repo, uow: u, sm: sm}
}

// Submit stores a proposal and creates or advances its negotiation in the
// same transaction.
func (l *Lifecycle) Submit(ctx context.Context, in SubmitInput) (*proposal.Proposal, error) {
	suggested, analyzed, err := validateSubmit(&in)
	if err != nil {
		return nil, err
	}

	var out *proposal.Proposal
	err = l.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := r.Accounts.GetByID(ctx, in.AuthorID); err != nil {
			return err
		}
		if in.CounterpartID != nil {
			if _, err := r.Accounts.GetByID(ctx, *in.CounterpartID); err != nil {
				return err
			}
		}

		var n *negotiation.Negotiation
		if in.NegotiationID == nil {
			n, err = l.open(ctx, r, in, suggested)
		} else {
			n, err = l.advance(ctx, r, in, suggested)
		}
		if err != nil {
			return err
		}

		kind := strings.TrimSpace(in.Kind)
		if kind == "" {
			kind = proposal.KindCounter
			if in.NegotiationID == nil {
				kind = proposal.KindInitial
			}
		}
		p := &proposal.Proposal{
			NegotiationID:      &n.ID,
			AuthorID:           in.AuthorID,
			AuthorRole:         in.AuthorRole,
			AnalyzedRateRange:  analyzed.String(),
			SuggestedRateRange: suggested.String(),
			TermMonths:         in.TermMonths,
			Kind:               kind,
			Status:             proposal.StatusPending,
			Installment:        in.Installment,
			Principal:          in.Principal,
			Negotiable:         true,
			Justification:      in.Justification,
			CreatedAt:          l.sm.Now(),
		}
		if err := r.Proposals.Create(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"proposal_id":    out.ID,
		"negotiation_id": *out.NegotiationID,
		"author_id":      out.AuthorID,
		"author_role":    out.AuthorRole,
	}).Info("proposal submitted")
	return out, nil
}

func validateSubmit(in *SubmitInput) (suggested, analyzed proposal.RateRange, err error) {
	if !in.AuthorRole.Valid() {
		return suggested, analyzed, apperr.Validation("author_role must be borrower or lender")
	}
	if in.AuthorID == 0 {
		return suggested, analyzed, apperr.Validation("author_id is required")
	}
	if in.TermMonths <= 0 {
		return suggested, analyzed, apperr.Validation("term_months must be positive")
	}
	if in.Principal != nil && *in.Principal <= 0 {
		return suggested, analyzed, apperr.Validation("principal must be positive")
	}
	if in.Installment != nil && *in.Installment < 0 {
		return suggested, analyzed, apperr.Validation("installment must be non-negative")
	}
	if in.CounterpartID != nil && *in.CounterpartID == in.AuthorID {
		return suggested, analyzed, apperr.Validation("counterpart must differ from author")
	}
	suggested, err = proposal.ParseRateRange(in.SuggestedRateRange)
	if err != nil {
		return suggested, analyzed, apperr.Validation("invalid suggested_rate_range %q", in.SuggestedRateRange)
	}
	analyzed = suggested
	if strings.TrimSpace(in.AnalyzedRateRange) != "" {
		analyzed, err = proposal.ParseRateRange(in.AnalyzedRateRange)
		if err != nil {
			return suggested, analyzed, apperr.Validation("invalid analyzed_rate_range %q", in.AnalyzedRateRange)
		}
	}
	return suggested, analyzed, nil
}

// open creates the negotiation of a first proposal.
func (l *Lifecycle) open(ctx context.Context, r uow.Repos, in SubmitInput, suggested proposal.RateRange) (*negotiation.Negotiation, error) {
	author := in.AuthorID
	rate := proposal.Round2(suggested.Mid())
	term := in.TermMonths
	ci := negotiationuc.CreateInput{
		Rate:          &rate,
		TermMonths:    &term,
		Principal:     in.Principal,
		Installment:   in.Installment,
		ProposalCount: 1,
	}
	if in.AuthorRole == proposal.RoleBorrower {
		ci.BorrowerID, ci.LenderID = &author, in.CounterpartID
	} else {
		ci.LenderID, ci.BorrowerID = &author, in.CounterpartID
	}
	return l.sm.CreateIn(ctx, r, ci)
}

// advance folds a counter-proposal into an existing negotiation.
func (l *Lifecycle) advance(ctx context.Context, r uow.Repos, in SubmitInput, suggested proposal.RateRange) (*negotiation.Negotiation, error) {
	n, err := r.Negotiations.GetByIDForUpdate(ctx, *in.NegotiationID)
	if err != nil {
		return nil, err
	}
	if err := l.sm.CheckWritable(n); err != nil {
		return nil, err
	}

	own, other := sides(n, in.AuthorRole)
	if own != nil && *own != in.AuthorID {
		return nil, apperr.Validation("user %d is not the %s of negotiation %d", in.AuthorID, in.AuthorRole, n.ID)
	}
	if other != nil && *other == in.AuthorID {
		return nil, apperr.Validation("user %d is the %s of negotiation %d", in.AuthorID, in.AuthorRole.Counterpart(), n.ID)
	}
	if in.CounterpartID != nil && other != nil && *other != *in.CounterpartID {
		return nil, apperr.Validation("counterpart %d does not match negotiation %d", *in.CounterpartID, n.ID)
	}

	count := n.ProposalCount + 1
	rate := proposal.Round2(suggested.Mid())
	term := in.TermMonths
	p := negotiation.Patch{
		ProposalCount: &count,
		Rate:          &rate,
		TermMonths:    &term,
		Principal:     in.Principal,
		Installment:   in.Installment,
	}
	author := in.AuthorID
	if own == nil {
		setSide(&p, in.AuthorRole, &author)
	}
	if other == nil && in.CounterpartID != nil {
		setSide(&p, in.AuthorRole.Counterpart(), in.CounterpartID)
	}
	if err := l.sm.UpdateIn(ctx, r, n, p); err != nil {
		return nil, err
	}
	return n, nil
}

// StartNegotiation opens a negotiation between a lender's offer and a
// borrower. A proposal already linked returns its negotiation unchanged.
func (l *Lifecycle) StartNegotiation(ctx context.Context, proposalID, borrowerID uint64) (*negotiation.Negotiation, error) {
	var out *negotiation.Negotiation
	err := l.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := r.Proposals.GetByIDForUpdate(ctx, proposalID)
		if err != nil {
			return err
		}
		if p.NegotiationID != nil {
			out, err = r.Negotiations.GetByID(ctx, *p.NegotiationID)
			return err
		}
		if p.AuthorRole != proposal.RoleLender {
			return apperr.Validation("proposal %d was not authored by a lender", p.ID)
		}
		if borrowerID == p.AuthorID {
			return apperr.Validation("borrower must differ from the proposal author")
		}
		if _, err := r.Accounts.GetByID(ctx, borrowerID); err != nil {
			return err
		}

		rate := proposal.Round2(p.BlendedRate())
		term := p.TermMonths
		lender := p.AuthorID
		n, err := l.sm.CreateIn(ctx, r, negotiationuc.CreateInput{
			BorrowerID:    &borrowerID,
			LenderID:      &lender,
			Rate:          &rate,
			TermMonths:    &term,
			Principal:     p.Principal,
			Installment:   p.Installment,
			ProposalCount: 1,
		})
		if err != nil {
			return err
		}
		p.NegotiationID = &n.ID
		if err := r.Proposals.Save(ctx, p); err != nil {
			return err
		}
		out = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Accept closes the deal on a pending proposal: the negotiation moves to
// accepted through the state machine, which transfers the principal.
func (l *Lifecycle) Accept(ctx context.Context, proposalID, actorID uint64, actorRole proposal.Role) (*negotiation.Negotiation, error) {
	if !actorRole.Valid() {
		return nil, apperr.Validation("role must be borrower or lender")
	}

	var out *negotiation.Negotiation
	err := l.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := r.Proposals.GetByIDForUpdate(ctx, proposalID)
		if err != nil {
			return err
		}
		if err := checkActor(p, actorID, actorRole); err != nil {
			return err
		}

		borrower, lender := p.AuthorID, actorID
		if p.AuthorRole == proposal.RoleLender {
			borrower, lender = actorID, p.AuthorID
		}

		var n *negotiation.Negotiation
		if p.NegotiationID != nil {
			n, err = r.Negotiations.GetByIDForUpdate(ctx, *p.NegotiationID)
			if err != nil {
				return err
			}
			recorded, _ := sides(n, actorRole)
			if recorded != nil && *recorded != actorID {
				return apperr.Validation("user %d is not the recorded %s of negotiation %d", actorID, actorRole, n.ID)
			}
		} else {
			n, err = l.sm.CreateIn(ctx, r, negotiationuc.CreateInput{
				BorrowerID: &borrower,
				LenderID:   &lender,
			})
			if err != nil {
				return err
			}
			p.NegotiationID = &n.ID
		}

		status := negotiation.StatusAccepted
		signedAt := l.sm.Now()
		count := max(n.ProposalCount, 1)
		rate := proposal.Round2(p.BlendedRate())
		term := p.TermMonths
		patch := negotiation.Patch{
			Status:        &status,
			SignedAt:      &signedAt,
			ProposalCount: &count,
			Rate:          &rate,
			TermMonths:    &term,
			Principal:     p.Principal,
			Installment:   p.Installment,
			BorrowerID:    &borrower,
			LenderID:      &lender,
		}
		if err := l.sm.UpdateIn(ctx, r, n, patch); err != nil {
			return err
		}

		p.Status = proposal.StatusAccepted
		p.Negotiable = false
		if err := r.Proposals.Save(ctx, p); err != nil {
			return err
		}
		out = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"proposal_id":    proposalID,
		"negotiation_id": out.ID,
		"actor_id":       actorID,
	}).Info("proposal accepted")
	return out, nil
}

// Reject declines a linked pending proposal and cancels its negotiation.
func (l *Lifecycle) Reject(ctx context.Context, proposalID, actorID uint64, actorRole proposal.Role) (*negotiation.Negotiation, error) {
	if !actorRole.Valid() {
		return nil, apperr.Validation("role must be borrower or lender")
	}

	var out *negotiation.Negotiation
	err := l.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := r.Proposals.GetByIDForUpdate(ctx, proposalID)
		if err != nil {
			return err
		}
		if err := checkActor(p, actorID, actorRole); err != nil {
			return err
		}
		if p.NegotiationID == nil {
			return apperr.Validation("proposal %d is not linked to a negotiation", p.ID)
		}
		n, err := r.Negotiations.GetByIDForUpdate(ctx, *p.NegotiationID)
		if err != nil {
			return err
		}
		recorded, _ := sides(n, actorRole)
		if recorded == nil || *recorded != actorID {
			return apperr.Validation("user %d is not the recorded %s of negotiation %d", actorID, actorRole, n.ID)
		}

		status := negotiation.StatusCancelled
		if err := l.sm.UpdateIn(ctx, r, n, negotiation.Patch{Status: &status}); err != nil {
			return err
		}
		p.Status = proposal.StatusRejected
		p.Negotiable = false
		if err := r.Proposals.Save(ctx, p); err != nil {
			return err
		}
		out = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Lifecycle) Get(ctx context.Context, proposalID uint64) (*proposal.Proposal, error) {
	return l.repo.GetByID(ctx, proposalID)
}

func (l *Lifecycle) List(ctx context.Context, negotiationID *uint64) ([]proposal.Proposal, error) {
	return l.repo.List(ctx, negotiationID)
}

// Recommended ranks the open initial proposals for userID. The user's own
// proposals are left out for both roles since checkActor would refuse any
// action on them.
func (l *Lifecycle) Recommended(ctx context.Context, userID uint64, role proposal.Role) ([]proposal.Proposal, error) {
	if !role.Valid() {
		return nil, apperr.Validation("role must be borrower or lender")
	}
	open, err := l.repo.ListOpenInitial(ctx)
	if err != nil {
		return nil, err
	}
	candidates := open[:0]
	for _, p := range open {
		if p.AuthorID != userID {
			candidates = append(candidates, p)
		}
	}

	var portfolio []proposal.Proposal
	if role == proposal.RoleLender {
		if portfolio, err = l.repo.ListLenderPortfolio(ctx, userID); err != nil {
			return nil, err
		}
	}
	return ranking.Rank(candidates, portfolio, role), nil
}

// checkActor enforces that only the opposite role, never the author,
// acts on a still pending proposal.
func checkActor(p *proposal.Proposal, actorID uint64, actorRole proposal.Role) error {
	if actorRole == p.AuthorRole {
		return apperr.Validation("a %s cannot act on a %s proposal", actorRole, p.AuthorRole)
	}
	if actorID == p.AuthorID {
		return apperr.Validation("author cannot act on their own proposal")
	}
	if p.Status != proposal.StatusPending {
		return apperr.Conflict("proposal %d is %s", p.ID, p.Status)
	}
	return nil
}

// sides returns the negotiation slot for role and the opposite slot.
func sides(n *negotiation.Negotiation, role proposal.Role) (own, other *uint64) {
	if role == proposal.RoleBorrower {
		return n.BorrowerID, n.LenderID
	}
	return n.LenderID, n.BorrowerID
}

func setSide(p *negotiation.Patch, role proposal.Role, id *uint64) {
	if role == proposal.RoleBorrower {
		p.BorrowerID = id
	} else {
		p.LenderID = id
	}
}
