package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"lending-marketplace/internal/adapter/repository/mysql"
	"lending-marketplace/internal/domain/account"
	"lending-marketplace/internal/domain/apperr"
	"lending-marketplace/internal/domain/uow"
	"lending-marketplace/internal/testutil/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUsers(t *testing.T, db *gorm.DB, balances ...float64) []uint64 {
	t.Helper()
	ids := make([]uint64, 0, len(balances))
	for i, b := range balances {
		u := &account.User{
			Name:      "user",
			Email:     string(rune('a'+i)) + "@example.com",
			Document:  string(rune('a' + i)),
			Balance:   b,
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, db.Create(u).Error)
		ids = append(ids, u.ID)
	}
	return ids
}

func balance(t *testing.T, db *gorm.DB, id uint64) float64 {
	t.Helper()
	var u account.User
	require.NoError(t, db.First(&u, id).Error)
	return u.Balance
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		from, to   float64
		amount     float64
		wantErr    error
		wantFrom   float64
		wantTo     float64
		sameTarget bool
	}{
		{name: "moves funds", from: 15000, to: 0, amount: 10000, wantFrom: 5000, wantTo: 10000},
		{name: "drains to zero", from: 100.50, to: 1, amount: 100.50, wantFrom: 0, wantTo: 101.50},
		{name: "insufficient funds", from: 50, to: 0, amount: 100, wantErr: apperr.ErrInsufficientFunds, wantFrom: 50, wantTo: 0},
		{name: "zero amount is a no-op", from: 10, to: 10, amount: 0, wantFrom: 10, wantTo: 10},
		{name: "negative amount is a no-op", from: 10, to: 10, amount: -5, wantFrom: 10, wantTo: 10},
		{name: "self transfer", from: 10, amount: 5, wantErr: apperr.ErrValidation, wantFrom: 10, sameTarget: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := testdb.Open(t)
			ids := seedUsers(t, db, tc.from, tc.to)
			from, to := ids[0], ids[1]
			if tc.sameTarget {
				to = from
			}

			err := mysql.NewGormUoW(db).WithinTx(ctx, func(r uow.Repos) error {
				return NewAdjuster().Transfer(ctx, r.Accounts, from, to, tc.amount)
			})
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.InDelta(t, tc.wantFrom, balance(t, db, from), 0.001)
			if !tc.sameTarget {
				assert.InDelta(t, tc.wantTo, balance(t, db, to), 0.001)
			}
		})
	}
}

func TestTransfer_MissingAccount(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	ids := seedUsers(t, db, 100)

	err := mysql.NewGormUoW(db).WithinTx(ctx, func(r uow.Repos) error {
		return NewAdjuster().Transfer(ctx, r.Accounts, ids[0], 9999, 10)
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.InDelta(t, 100, balance(t, db, ids[0]), 0.001)
}

func TestTransfer_RollsBackWithEnclosingTx(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	ids := seedUsers(t, db, 500, 0)
	boom := errors.New("boom")

	err := mysql.NewGormUoW(db).WithinTx(ctx, func(r uow.Repos) error {
		if err := NewAdjuster().Transfer(ctx, r.Accounts, ids[0], ids[1], 200); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.InDelta(t, 500, balance(t, db, ids[0]), 0.001)
	assert.InDelta(t, 0, balance(t, db, ids[1]), 0.001)
}

// lockRecorder wraps an account repository and records lock order.
type lockRecorder struct {
	account.Repository
	locked []uint64
}

func (l *lockRecorder) GetByIDForUpdate(ctx context.Context, id uint64) (*account.User, error) {
	l.locked = append(l.locked, id)
	return l.Repository.GetByIDForUpdate(ctx, id)
}

func TestTransfer_LocksInAscendingOrder(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	ids := seedUsers(t, db, 0, 300)

	var rec *lockRecorder
	err := mysql.NewGormUoW(db).WithinTx(ctx, func(r uow.Repos) error {
		rec = &lockRecorder{Repository: r.Accounts}
		// higher id pays the lower one
		return NewAdjuster().Transfer(ctx, rec, ids[1], ids[0], 100)
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{ids[0], ids[1]}, rec.locked)
	assert.InDelta(t, 100, balance(t, db, ids[0]), 0.001)
	assert.InDelta(t, 200, balance(t, db, ids[1]), 0.001)
}
