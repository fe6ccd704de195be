package negotiation

import (
	"context"
	"testing"
	"time"

	"lending-marketplace/internal/adapter/repository/mysql"
	"lending-marketplace/internal/domain/account"
	"lending-marketplace/internal/domain/anchor"
	"lending-marketplace/internal/domain/apperr"
	"lending-marketplace/internal/domain/loan"
	"lending-marketplace/internal/domain/negotiation"
	"lending-marketplace/internal/testutil/testdb"
	"lending-marketplace/internal/usecase/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	sm    *StateMachine
	clock *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	f := &fixture{db: db, clock: &now}
	f.sm = NewStateMachine(
		mysql.NewNegotiationRepository(db),
		mysql.NewGormUoW(db),
		ledger.NewAdjuster(),
		WithClock(func() time.Time { return *f.clock }),
	)
	return f
}

func (f *fixture) advance(d time.Duration) { *f.clock = f.clock.Add(d) }

func (f *fixture) user(t *testing.T, name string, balance float64) uint64 {
	t.Helper()
	u := &account.User{Name: name, Email: name + "@example.com", Document: name, Balance: balance, CreatedAt: *f.clock}
	require.NoError(t, f.db.Create(u).Error)
	return u.ID
}

func (f *fixture) balance(t *testing.T, id uint64) float64 {
	t.Helper()
	var u account.User
	require.NoError(t, f.db.First(&u, id).Error)
	return u.Balance
}

func ptr[T any](v T) *T { return &v }

func patch(t *testing.T, fields map[string]any) negotiation.Patch {
	t.Helper()
	p, err := negotiation.ParsePatch(fields)
	require.NoError(t, err)
	return p
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	n, err := f.sm.Create(ctx, CreateInput{BorrowerID: ptr(uint64(1)), LenderID: ptr(uint64(2))})
	require.NoError(t, err)
	assert.Equal(t, negotiation.StatusNegotiating, n.Status)
	assert.Equal(t, 0, n.ProposalCount)
	assert.True(t, f.clock.Equal(n.CreatedAt))

	_, err = f.sm.Create(ctx, CreateInput{BorrowerID: ptr(uint64(3)), LenderID: ptr(uint64(3))})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdate_AppliesOnlyPresentFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	n, err := f.sm.Create(ctx, CreateInput{
		BorrowerID: ptr(uint64(1)), Rate: ptr(12.0), TermMonths: ptr(12), ProposalCount: 1,
	})
	require.NoError(t, err)

	f.advance(time.Hour)
	got, err := f.sm.Update(ctx, n.ID, patch(t, map[string]any{"rate": 14.5, "lender_id": float64(2)}))
	require.NoError(t, err)
	assert.Equal(t, 14.5, *got.Rate)
	assert.Equal(t, 12, *got.TermMonths)
	assert.Equal(t, uint64(2), *got.LenderID)
	assert.True(t, f.clock.Equal(got.UpdatedAt))
	assert.Nil(t, got.ContractHash)
}

func TestUpdate_Rejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		fields  map[string]any
		wantErr error
	}{
		{name: "same party", fields: map[string]any{"lender_id": float64(1)}, wantErr: apperr.ErrValidation},
		{name: "lower proposal count", fields: map[string]any{"proposal_count": float64(1)}, wantErr: apperr.ErrValidation},
		{name: "accept without principal", fields: map[string]any{"status": "accepted", "lender_id": float64(2)}, wantErr: apperr.ErrValidation},
		{name: "accept without lender", fields: map[string]any{"status": "accepted", "principal": 500.0}, wantErr: apperr.ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			n, err := f.sm.Create(ctx, CreateInput{
				BorrowerID: ptr(uint64(1)), Rate: ptr(10.0), TermMonths: ptr(6), ProposalCount: 2,
			})
			require.NoError(t, err)

			_, err = f.sm.Update(ctx, n.ID, patch(t, tc.fields))
			require.ErrorIs(t, err, tc.wantErr)

			stored, err := f.sm.Get(ctx, n.ID)
			require.NoError(t, err)
			assert.Equal(t, negotiation.StatusNegotiating, stored.Status)
			assert.Nil(t, stored.LenderID)
		})
	}
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.sm.Update(context.Background(), 42, negotiation.Patch{})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdate_AcceptTransfersAndSnapshotsLoan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	borrower := f.user(t, "borrower", 0)
	lender := f.user(t, "lender", 15000)

	n, err := f.sm.Create(ctx, CreateInput{
		BorrowerID: &borrower, LenderID: &lender,
		Rate: ptr(13.5), TermMonths: ptr(12), Principal: ptr(10000.0), ProposalCount: 1,
	})
	require.NoError(t, err)

	f.advance(2 * time.Hour)
	got, err := f.sm.Update(ctx, n.ID, patch(t, map[string]any{"status": "accepted"}))
	require.NoError(t, err)
	require.NotNil(t, got.ContractHash)
	assert.Len(t, *got.ContractHash, 64)

	assert.InDelta(t, 5000, f.balance(t, lender), 0.001)
	assert.InDelta(t, 10000, f.balance(t, borrower), 0.001)

	var l loan.Loan
	require.NoError(t, f.db.Where("negotiation_id = ?", n.ID).First(&l).Error)
	assert.Equal(t, loan.StatusActive, l.Status)
	assert.Equal(t, 10000.0, l.Principal)
	assert.Equal(t, *got.ContractHash, l.ContractHash)
	assert.Len(t, l.LoanCode, 32)

	var tasks []anchor.Task
	require.NoError(t, f.db.Where("negotiation_id = ?", n.ID).Find(&tasks).Error)
	require.Len(t, tasks, 1)
	assert.Equal(t, anchor.StatusPending, tasks[0].Status)
	assert.Equal(t, *got.ContractHash, tasks[0].Digest)

	// the stored row reproduces the stored hash
	stored, err := f.sm.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, *stored.ContractHash, negotiation.ContractHash(stored))

	// terminal: no way back
	_, err = f.sm.Update(ctx, n.ID, patch(t, map[string]any{"status": "negotiating"}))
	require.ErrorIs(t, err, apperr.ErrConflictState)
	_, err = f.sm.Update(ctx, n.ID, patch(t, map[string]any{"status": "finalized"}))
	require.ErrorIs(t, err, apperr.ErrConflictState)
	assert.InDelta(t, 5000, f.balance(t, lender), 0.001)
}

func TestUpdate_InsufficientFundsRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	borrower := f.user(t, "borrower", 0)
	lender := f.user(t, "lender", 100)

	n, err := f.sm.Create(ctx, CreateInput{
		BorrowerID: &borrower, LenderID: &lender,
		Rate: ptr(13.5), TermMonths: ptr(12), Principal: ptr(10000.0), ProposalCount: 1,
	})
	require.NoError(t, err)

	_, err = f.sm.Update(ctx, n.ID, patch(t, map[string]any{"status": "accepted", "installment": 900.0}))
	require.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	stored, err := f.sm.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, negotiation.StatusNegotiating, stored.Status)
	assert.Nil(t, stored.Installment)
	assert.Nil(t, stored.ContractHash)

	var loans int64
	require.NoError(t, f.db.Model(&loan.Loan{}).Count(&loans).Error)
	assert.Zero(t, loans)
	assert.InDelta(t, 100, f.balance(t, lender), 0.001)
}

func TestUpdate_RecordedPartiesCannotBeReplaced(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	borrower := f.user(t, "borrower", 0)
	lender := f.user(t, "lender", 0)
	bystander := f.user(t, "bystander", 50000)
	payee := f.user(t, "payee", 0)

	n, err := f.sm.Create(ctx, CreateInput{
		BorrowerID: &borrower, LenderID: &lender,
		Rate: ptr(13.5), TermMonths: ptr(12), ProposalCount: 1,
	})
	require.NoError(t, err)

	_, err = f.sm.Update(ctx, n.ID, patch(t, map[string]any{
		"status":      "accepted",
		"borrower_id": float64(payee),
		"lender_id":   float64(bystander),
		"principal":   50000.0,
	}))
	require.ErrorIs(t, err, apperr.ErrConflictState)

	_, err = f.sm.Update(ctx, n.ID, patch(t, map[string]any{"lender_id": float64(bystander)}))
	require.ErrorIs(t, err, apperr.ErrConflictState)

	stored, err := f.sm.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, negotiation.StatusNegotiating, stored.Status)
	assert.Equal(t, borrower, *stored.BorrowerID)
	assert.Equal(t, lender, *stored.LenderID)
	assert.InDelta(t, 50000, f.balance(t, bystander), 0.001)
	assert.InDelta(t, 0, f.balance(t, payee), 0.001)

	// repeating the recorded value is fine
	_, err = f.sm.Update(ctx, n.ID, patch(t, map[string]any{"lender_id": float64(lender), "rate": 14.0}))
	require.NoError(t, err)
}

func TestUpdateAs_RequiresRecordedParty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	borrower := f.user(t, "borrower", 0)
	outsider := f.user(t, "outsider", 0)
	victim := f.user(t, "victim", 9000)
	n, err := f.sm.Create(ctx, CreateInput{BorrowerID: &borrower, Rate: ptr(10.0)})
	require.NoError(t, err)

	_, err = f.sm.UpdateAs(ctx, n.ID, outsider, patch(t, map[string]any{"rate": 11.0}))
	require.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := f.sm.UpdateAs(ctx, n.ID, borrower, patch(t, map[string]any{"rate": 11.0}))
	require.NoError(t, err)
	assert.Equal(t, 11.0, *got.Rate)

	_, err = f.sm.UpdateAs(ctx, n.ID, borrower, patch(t, map[string]any{
		"lender_id": float64(victim), "principal": 9000.0, "status": "accepted",
	}))
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.InDelta(t, 9000, f.balance(t, victim), 0.001)
	stored, err := f.sm.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LenderID)
	assert.Equal(t, negotiation.StatusNegotiating, stored.Status)

	_, err = f.sm.UpdateAs(ctx, 404, borrower, negotiation.Patch{})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdate_HashOnchainAllowedOnTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	n, err := f.sm.Create(ctx, CreateInput{BorrowerID: ptr(uint64(1)), LenderID: ptr(uint64(2))})
	require.NoError(t, err)
	_, err = f.sm.Update(ctx, n.ID, patch(t, map[string]any{"status": "cancelled"}))
	require.NoError(t, err)

	got, err := f.sm.Update(ctx, n.ID, patch(t, map[string]any{"hash_onchain": "0xabc"}))
	require.NoError(t, err)
	assert.Equal(t, "0xabc", *got.HashOnchain)
	assert.Equal(t, negotiation.StatusCancelled, got.Status)
}

func TestSweep_ExpiresOnceOnRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	stale, err := f.sm.Create(ctx, CreateInput{BorrowerID: ptr(uint64(1))})
	require.NoError(t, err)
	accepted, err := f.sm.Create(ctx, CreateInput{BorrowerID: ptr(uint64(1)), LenderID: ptr(uint64(2))})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&negotiation.Negotiation{}).Where("id = ?", accepted.ID).
		Update("status", negotiation.StatusRejected).Error)

	f.advance(47 * time.Hour)
	fresh, err := f.sm.Create(ctx, CreateInput{BorrowerID: ptr(uint64(1))})
	require.NoError(t, err)

	f.advance(time.Hour)
	var raw negotiation.Negotiation
	require.NoError(t, f.db.First(&raw, stale.ID).Error)
	assert.Equal(t, negotiation.StatusNegotiating, raw.Status, "nothing expires before a read")

	got, err := f.sm.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, negotiation.StatusExpired, got.Status)
	assert.True(t, f.clock.Equal(got.UpdatedAt))

	firstSweepAt := got.UpdatedAt
	f.advance(time.Minute)
	again, err := f.sm.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, negotiation.StatusExpired, again.Status)
	assert.True(t, firstSweepAt.Equal(again.UpdatedAt))

	others, err := f.sm.List(ctx, "")
	require.NoError(t, err)
	statuses := map[uint64]negotiation.Status{}
	for _, n := range others {
		statuses[n.ID] = n.Status
	}
	assert.Equal(t, negotiation.StatusRejected, statuses[accepted.ID])
	assert.Equal(t, negotiation.StatusNegotiating, statuses[fresh.ID])

	n, err := f.sm.sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdate_StaleButUnswept(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	n, err := f.sm.Create(ctx, CreateInput{BorrowerID: ptr(uint64(1))})
	require.NoError(t, err)

	f.advance(negotiation.DefaultTTL)
	_, err = f.sm.Update(ctx, n.ID, patch(t, map[string]any{"rate": 11.0}))
	require.ErrorIs(t, err, apperr.ErrConflictState)

	var raw negotiation.Negotiation
	require.NoError(t, f.db.First(&raw, n.ID).Error)
	assert.Equal(t, negotiation.StatusNegotiating, raw.Status)
	assert.Nil(t, raw.Rate)
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.sm.Create(ctx, CreateInput{BorrowerID: ptr(uint64(1)), LenderID: ptr(uint64(2))})
	require.NoError(t, err)
	f.advance(time.Second)
	second, err := f.sm.Create(ctx, CreateInput{BorrowerID: ptr(uint64(1)), LenderID: ptr(uint64(3))})
	require.NoError(t, err)
	_, err = f.sm.Create(ctx, CreateInput{BorrowerID: ptr(uint64(4)), LenderID: ptr(uint64(3))})
	require.NoError(t, err)

	byBorrower, err := f.sm.ListByBorrower(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, byBorrower, 2)
	assert.Equal(t, second.ID, byBorrower[0].ID)

	byLender, err := f.sm.ListByLender(ctx, 3, negotiation.StatusNegotiating)
	require.NoError(t, err)
	assert.Len(t, byLender, 2)

	none, err := f.sm.ListByLender(ctx, 3, negotiation.StatusAccepted)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.sm.List(ctx, "bogus")
	require.ErrorIs(t, err, apperr.ErrValidation)
}
