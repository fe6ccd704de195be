package score

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"lending-marketplace/internal/adapter/repository/mysql"
	"lending-marketplace/internal/domain/account"
	"lending-marketplace/internal/domain/apperr"
	"lending-marketplace/internal/testutil/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBureau struct {
	score int
	err   error
	docs  []string
}

func (b *stubBureau) ExternalScore(_ context.Context, doc string) (int, error) {
	b.docs = append(b.docs, doc)
	return b.score, b.err
}

type stubModel struct {
	p        float64
	err      error
	features map[string]float64
}

func (m *stubModel) PredictDefaultProbability(_ context.Context, f map[string]float64) (float64, error) {
	m.features = f
	return m.p, m.err
}

func TestBureauWeight(t *testing.T) {
	tests := []struct {
		months float64
		want   float64
	}{
		{0, 0.4},
		{1, 0.38},
		{12, 0.4 * math.Pow(0.95, 12)},
		{28, 0.1},
		{120, 0.1},
	}
	for _, tc := range tests {
		if got := BureauWeight(tc.months); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("BureauWeight(%v) = %v, want %v", tc.months, got, tc.want)
		}
	}
}

func TestScoreFromProbability(t *testing.T) {
	assert.Equal(t, 1000, ScoreFromProbability(0))
	assert.Equal(t, 0, ScoreFromProbability(1))
	assert.Equal(t, 750, ScoreFromProbability(0.25))
	assert.Equal(t, 877, ScoreFromProbability(0.1234))
}

func TestBlend(t *testing.T) {
	// new user: 0.6*800 + 0.4*500
	assert.Equal(t, 680, Blend(800, 500, 0))
	// long tenure: floor weight 0.1
	assert.Equal(t, 770, Blend(800, 500, 200))
}

func TestTenureMonths(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.InDelta(t, 1.0, TenureMonths(created, created.Add(secondsPerMonth*time.Second)), 1e-9)
	assert.Zero(t, TenureMonths(created, created.Add(-time.Hour)))
}

func TestCalculate(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	u := &account.User{Name: "Ana", Email: "ana@example.com", Document: "12345678901", MonthlyIncome: 5000, CreatedAt: now}
	require.NoError(t, db.Create(u).Error)

	bureau := &stubBureau{score: 500}
	model := &stubModel{p: 0.2}
	svc := NewService(
		mysql.NewAccountRepository(db), mysql.NewLoanRepository(db), mysql.NewScoreRepository(db),
		bureau, model,
	).WithClock(func() time.Time { return now })

	cs, err := svc.Calculate(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 800, cs.ModelScore)
	assert.Equal(t, 500, cs.BureauScore)
	assert.Equal(t, 680, cs.Score)
	assert.InDelta(t, 0.4, cs.BureauWeight, 1e-9)
	assert.Equal(t, []string{"12345678901"}, bureau.docs)
	assert.Equal(t, 5000.0, model.features["monthly_income"])
	assert.Zero(t, model.features["loans_contracted"])

	// second run replaces the row
	model.p = 0.5
	_, err = svc.Calculate(ctx, u.ID)
	require.NoError(t, err)
	stored, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, stored.ModelScore)
	assert.Equal(t, 500, stored.Score)

	var rows int64
	require.NoError(t, db.Table("credit_scores").Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestCalculate_Failures(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	u := &account.User{Name: "Bo", Email: "bo@example.com", Document: "1", CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(u).Error)

	newSvc := func(b Bureau, m Model) *Service {
		return NewService(mysql.NewAccountRepository(db), mysql.NewLoanRepository(db), mysql.NewScoreRepository(db), b, m)
	}

	_, err := newSvc(&stubBureau{}, &stubModel{}).Calculate(ctx, 999)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = newSvc(&stubBureau{err: errors.New("timeout")}, &stubModel{p: 0.1}).Calculate(ctx, u.ID)
	require.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "credit bureau")

	_, err = newSvc(&stubBureau{score: 1}, &stubModel{err: errors.New("boom")}).Calculate(ctx, u.ID)
	require.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)

	_, err = newSvc(&stubBureau{score: 1}, &stubModel{p: 1.5}).Calculate(ctx, u.ID)
	require.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)

	_, err = newSvc(&stubBureau{}, &stubModel{}).Get(ctx, u.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRecalculateAll(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, db.Create(&account.User{Name: name, Email: name + "@x.io", Document: name, CreatedAt: time.Now().UTC()}).Error)
	}
	svc := NewService(mysql.NewAccountRepository(db), mysql.NewLoanRepository(db), mysql.NewScoreRepository(db),
		&stubBureau{score: 600}, &stubModel{p: 0.3})

	out, err := svc.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}
