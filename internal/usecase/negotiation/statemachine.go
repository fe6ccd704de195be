package negotiation

import (
	"context"
	"time"

	"lending-marketplace/internal/domain/account"
	"lending-marketplace/internal/domain/apperr"
	"lending-marketplace/internal/domain/loan"
	"lending-marketplace/internal/domain/negotiation"
	"lending-marketplace/internal/domain/uow"
	anchoruc "lending-marketplace/internal/usecase/anchor"
	"lending-marketplace/pkg/id"

	"github.com/sirupsen/logrus"
)

// Transferer moves principal between the two parties inside the caller's tx.
type Transferer interface {
	Transfer(ctx context.Context, accounts account.Repository, from, to uint64, amount float64) error
}

type StateMachine struct {
	repo   negotiation.Repository
	uow    uow.UnitOfWork
	ledger Transferer
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*StateMachine)

func WithTTL(d time.Duration) Option {
	return func(s *StateMachine) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *StateMachine) { s.now = now }
}

func NewStateMachine(repo negotiation.Repository, u uow.UnitOfWork, ledger Transferer, opts ...Option) *StateMachine {
	s := &StateMachine{
		repo:   repo,
		uow:    u,
		ledger: ledger,
		ttl:    negotiation.DefaultTTL,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Now is the machine's clock, shared with callers stamping related rows.
// Millisecond precision matches the datetime(3) columns, so a contract hash
// recomputed from a stored row equals the one written.
func (s *StateMachine) Now() time.Time { return s.now().UTC().Truncate(time.Millisecond) }

func (s *StateMachine) Create(ctx context.Context, in CreateInput) (*negotiation.Negotiation, error) {
	var out *negotiation.Negotiation
	err := s.uow.WithinTx(ctx, func(r uow.Repos) error {
		n, err := s.CreateIn(ctx, r, in)
		out = n
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateIn inserts a negotiating row using repositories of an open tx.
func (s *StateMachine) CreateIn(ctx context.Context, r uow.Repos, in CreateInput) (*negotiation.Negotiation, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	now := s.Now()
	n := &negotiation.Negotiation{
		BorrowerID:    in.BorrowerID,
		LenderID:      in.LenderID,
		Status:        negotiation.StatusNegotiating,
		Rate:          in.Rate,
		TermMonths:    in.TermMonths,
		Principal:     in.Principal,
		Installment:   in.Installment,
		ProposalCount: in.ProposalCount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.Negotiations.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func validateCreate(in CreateInput) error {
	if in.BorrowerID != nil && in.LenderID != nil && *in.BorrowerID == *in.LenderID {
		return apperr.Validation("borrower and lender must differ")
	}
	if in.ProposalCount < 0 {
		return apperr.Validation("proposal_count must be non-negative")
	}
	if in.Rate != nil && *in.Rate < 0 {
		return apperr.Validation("rate must be non-negative")
	}
	if in.TermMonths != nil && *in.TermMonths <= 0 {
		return apperr.Validation("term_months must be positive")
	}
	if in.Principal != nil && *in.Principal <= 0 {
		return apperr.Validation("principal must be positive")
	}
	return nil
}

func (s *StateMachine) Update(ctx context.Context, negotiationID uint64, p negotiation.Patch) (*negotiation.Negotiation, error) {
	return s.update(ctx, negotiationID, nil, p)
}

// UpdateAs is Update on behalf of actorID, who must be the recorded
// borrower or lender. An actor cannot name the missing counterpart; that
// side is filled only by accepting a proposal.
func (s *StateMachine) UpdateAs(ctx context.Context, negotiationID, actorID uint64, p negotiation.Patch) (*negotiation.Negotiation, error) {
	return s.update(ctx, negotiationID, &actorID, p)
}

func (s *StateMachine) update(ctx context.Context, negotiationID uint64, actorID *uint64, p negotiation.Patch) (*negotiation.Negotiation, error) {
	var out *negotiation.Negotiation
	err := s.uow.WithinNegotiationTx(ctx, negotiationID, func(r uow.Repos, n *negotiation.Negotiation) error {
		if actorID != nil {
			if !n.HasParty(*actorID) {
				return apperr.Forbidden("user %d is not a party of negotiation %d", *actorID, n.ID)
			}
			if (p.BorrowerID != nil && n.BorrowerID == nil) || (p.LenderID != nil && n.LenderID == nil) {
				return apperr.Forbidden("user %d cannot name the counterpart of negotiation %d", *actorID, n.ID)
			}
		}
		if err := s.UpdateIn(ctx, r, n, p); err != nil {
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

// CheckWritable rejects changes to terminal or stale negotiations.
func (s *StateMachine) CheckWritable(n *negotiation.Negotiation) error {
	if n.Status.Terminal() {
		return apperr.Conflict("negotiation %d is %s", n.ID, n.Status)
	}
	if n.Stale(s.Now(), s.ttl) {
		return apperr.Conflict("negotiation %d expired", n.ID)
	}
	return nil
}

// UpdateIn applies p to n, which the caller has locked inside r's tx.
// Entering accepted or finalized moves the principal from lender to
// borrower, stamps the contract hash, writes the loan snapshot and queues
// the anchoring task. Any error leaves the caller to roll back.
func (s *StateMachine) UpdateIn(ctx context.Context, r uow.Repos, n *negotiation.Negotiation, p negotiation.Patch) error {
	if n.Status.Terminal() && p.OnlyAnchor() {
		n.HashOnchain = p.HashOnchain
		return r.Negotiations.Save(ctx, n)
	}
	if err := s.CheckWritable(n); err != nil {
		return err
	}
	if err := checkParties(n, p); err != nil {
		return err
	}
	if p.ProposalCount != nil && *p.ProposalCount < n.ProposalCount {
		return apperr.Validation("proposal_count cannot decrease (%d -> %d)", n.ProposalCount, *p.ProposalCount)
	}

	prev := n.Status
	p.Apply(n)
	if n.SameParty() {
		return apperr.Validation("borrower and lender must differ")
	}
	now := s.Now()
	n.UpdatedAt = now

	if n.Status.Closed() && !prev.Closed() {
		if err := s.close(ctx, r, n, now); err != nil {
			return err
		}
	}

	if err := r.Negotiations.Save(ctx, n); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"negotiation_id": n.ID,
		"from":           prev,
		"to":             n.Status,
	}).Debug("negotiation updated")
	return nil
}

// checkParties lets a patch fill an empty side; a recorded side is fixed.
func checkParties(n *negotiation.Negotiation, p negotiation.Patch) error {
	if p.BorrowerID != nil && n.BorrowerID != nil && *p.BorrowerID != *n.BorrowerID {
		return apperr.Conflict("negotiation %d already has borrower %d", n.ID, *n.BorrowerID)
	}
	if p.LenderID != nil && n.LenderID != nil && *p.LenderID != *n.LenderID {
		return apperr.Conflict("negotiation %d already has lender %d", n.ID, *n.LenderID)
	}
	return nil
}

func (s *StateMachine) close(ctx context.Context, r uow.Repos, n *negotiation.Negotiation, now time.Time) error {
	switch {
	case n.Principal == nil:
		return apperr.Validation("negotiation %d has no principal", n.ID)
	case n.BorrowerID == nil:
		return apperr.Validation("negotiation %d has no borrower", n.ID)
	case n.LenderID == nil:
		return apperr.Validation("negotiation %d has no lender", n.ID)
	case n.Rate == nil:
		return apperr.Validation("negotiation %d has no rate", n.ID)
	case n.TermMonths == nil:
		return apperr.Validation("negotiation %d has no term", n.ID)
	}

	if err := s.ledger.Transfer(ctx, r.Accounts, *n.LenderID, *n.BorrowerID, *n.Principal); err != nil {
		return err
	}

	hash := negotiation.ContractHash(n)
	n.ContractHash = &hash

	l := &loan.Loan{
		LoanCode:      id.NewID32(),
		NegotiationID: n.ID,
		BorrowerID:    *n.BorrowerID,
		LenderID:      *n.LenderID,
		Principal:     *n.Principal,
		Rate:          *n.Rate,
		TermMonths:    *n.TermMonths,
		Installment:   n.Installment,
		ContractHash:  hash,
		Status:        loan.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.Loans.Create(ctx, l); err != nil {
		return err
	}
	if _, err := anchoruc.Enqueue(ctx, r.Anchors, n, now); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"negotiation_id": n.ID,
		"loan_code":      l.LoanCode,
		"borrower_id":    l.BorrowerID,
		"lender_id":      l.LenderID,
		"principal":      l.Principal,
	}).Info("negotiation closed")
	return nil
}

// sweep expires every open negotiation older than the TTL. Only the read
// paths call it; there is no timer.
func (s *StateMachine) sweep(ctx context.Context) (int64, error) {
	now := s.Now()
	n, err := s.repo.ExpireStale(ctx, now.Add(-s.ttl), now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logrus.WithField("expired", n).Info("negotiations expired")
	}
	return n, nil
}

func (s *StateMachine) Get(ctx context.Context, negotiationID uint64) (*negotiation.Negotiation, error) {
	if _, err := s.sweep(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, negotiationID)
}

func (s *StateMachine) List(ctx context.Context, status negotiation.Status) ([]negotiation.Negotiation, error) {
	return s.list(ctx, negotiation.Filter{Status: status})
}

func (s *StateMachine) ListByBorrower(ctx context.Context, borrowerID uint64, status negotiation.Status) ([]negotiation.Negotiation, error) {
	return s.list(ctx, negotiation.Filter{Status: status, BorrowerID: borrowerID})
}

func (s *StateMachine) ListByLender(ctx context.Context, lenderID uint64, status negotiation.Status) ([]negotiation.Negotiation, error) {
	return s.list(ctx, negotiation.Filter{Status: status, LenderID: lenderID})
}

func (s *StateMachine) list(ctx context.Context, f negotiation.Filter) ([]negotiation.Negotiation, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("invalid status %q", f.Status)
	}
	if _, err := s.sweep(ctx); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}
