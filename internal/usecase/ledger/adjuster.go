package ledger

import (
	"context"

	"lending-marketplace/internal/domain/account"
	"lending-marketplace/internal/domain/apperr"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Adjuster moves money between two user balances. It never opens its own
// transaction: callers pass repositories bound to theirs.
type Adjuster struct{}

func NewAdjuster() *Adjuster { return &Adjuster{} }

// Transfer debits from and credits to by amount, rounded to cents.
// Rows are locked in ascending id order.
func (a *Adjuster) Transfer(ctx context.Context, accounts account.Repository, from, to uint64, amount float64) error {
	amt := decimal.NewFromFloat(amount).Round(2)
	if !amt.IsPositive() {
		return nil
	}
	if from == to {
		return apperr.Validation("cannot transfer from user %d to itself", from)
	}

	first, second := from, to
	if second < first {
		first, second = second, first
	}
	locked := make(map[uint64]*account.User, 2)
	for _, id := range []uint64{first, second} {
		u, err := accounts.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		locked[id] = u
	}

	src, dst := locked[from], locked[to]
	srcBal := decimal.NewFromFloat(src.Balance).Round(2)
	if srcBal.LessThan(amt) {
		return apperr.InsufficientFunds("user %d has %s, needs %s", from, srcBal.StringFixed(2), amt.StringFixed(2))
	}
	newSrc := srcBal.Sub(amt)
	newDst := decimal.NewFromFloat(dst.Balance).Round(2).Add(amt)

	if err := accounts.UpdateBalance(ctx, from, newSrc.InexactFloat64()); err != nil {
		return err
	}
	if err := accounts.UpdateBalance(ctx, to, newDst.InexactFloat64()); err != nil {
		return err
	}
	src.Balance = newSrc.InexactFloat64()
	dst.Balance = newDst.InexactFloat64()

	logrus.WithFields(logrus.Fields{
		"from_user_id": from,
		"to_user_id":   to,
		"amount":       amt.StringFixed(2),
	}).Info("ledger transfer")
	return nil
}
