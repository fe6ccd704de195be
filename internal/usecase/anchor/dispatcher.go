package anchor

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lending-marketplace/internal/domain/anchor"
	"lending-marketplace/internal/domain/apperr"
	"lending-marketplace/internal/domain/uow"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Anchorer registers a digest on chain.
type Anchorer interface {
	Register(ctx context.Context, digest [32]byte, payload string) (anchor.Receipt, error)
}

const (
	DefaultBatchSize   = 20
	DefaultMaxAttempts = 5
	// DefaultLease bounds how long a claimed task may sit in sending
	// before another dispatcher takes it over.
	DefaultLease = 5 * time.Minute
	maxErrorLen  = 255
)

// Dispatcher drains the anchor outbox. Tasks are claimed in a short
// transaction, registered on chain outside of any transaction and each
// outcome is committed on its own. Chain failures only ever touch the
// task row; negotiation status is never changed here.
type Dispatcher struct {
	uow         uow.UnitOfWork
	chain       Anchorer
	batchSize   int
	maxAttempts int
	lease       time.Duration
	now         func() time.Time
}

type Option func(*Dispatcher)

func WithBatchSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

func WithLease(l time.Duration) Option {
	return func(d *Dispatcher) {
		if l > 0 {
			d.lease = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(u uow.UnitOfWork, chain Anchorer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		uow:         u,
		chain:       chain,
		batchSize:   DefaultBatchSize,
		maxAttempts: DefaultMaxAttempts,
		lease:       DefaultLease,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// RunOnce processes one batch and returns how many tasks were anchored.
// A task whose outcome could not be stored keeps its lease and is picked
// up again once the lease runs out; the rest of the batch still proceeds.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	tasks, err := d.claim(ctx)
	if err != nil {
		return 0, err
	}
	done := 0
	var errs []error
	for i := range tasks {
		ok, err := d.process(ctx, &tasks[i])
		if err != nil {
			errs = append(errs, fmt.Errorf("task %s: %w", tasks[i].TaskID, err))
			continue
		}
		if ok {
			done++
		}
	}
	return done, errors.Join(errs...)
}

// Run calls RunOnce every interval until ctx is done.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := d.RunOnce(ctx)
			if err != nil {
				logrus.WithError(err).Error("anchor dispatch failed")
			}
			if n > 0 {
				logrus.WithField("anchored", n).Info("anchor dispatch")
			}
		}
	}
}

// claim leases a batch: each task moves to sending with its attempt
// counted before any chain call is made.
func (d *Dispatcher) claim(ctx context.Context) ([]anchor.Task, error) {
	var tasks []anchor.Task
	err := d.uow.WithinTx(ctx, func(r uow.Repos) error {
		now := d.now()
		claimed, err := r.Anchors.ClaimPending(ctx, d.batchSize, now.Add(-d.lease))
		if err != nil {
			return err
		}
		for i := range claimed {
			t := &claimed[i]
			t.Attempts++
			t.Status = anchor.StatusSending
			t.UpdatedAt = now
			if err := r.Anchors.Save(ctx, t); err != nil {
				return err
			}
		}
		tasks = claimed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (d *Dispatcher) process(ctx context.Context, t *anchor.Task) (bool, error) {
	digest, err := decodeDigest(t.Digest)
	if err != nil {
		return false, d.recordFailure(ctx, t, err, true)
	}

	receipt, err := d.chain.Register(ctx, digest, string(t.Payload))
	if err != nil {
		return false, d.recordFailure(ctx, t, err, t.Attempts >= d.maxAttempts)
	}
	return d.recordSuccess(ctx, t, receipt)
}

func (d *Dispatcher) recordFailure(ctx context.Context, t *anchor.Task, cause error, final bool) error {
	return d.uow.WithinTx(ctx, func(r uow.Repos) error {
		d.fail(t, cause, final)
		return r.Anchors.Save(ctx, t)
	})
}

// recordSuccess writes the receipt and the chain hash on negotiation and
// loan. A vanished negotiation or loan fails only this task.
func (d *Dispatcher) recordSuccess(ctx context.Context, t *anchor.Task, receipt anchor.Receipt) (bool, error) {
	ok := false
	err := d.uow.WithinTx(ctx, func(r uow.Repos) error {
		raw, err := json.Marshal(receipt)
		if err == nil {
			t.Receipt = datatypes.JSON(raw)
		}

		n, err := r.Negotiations.GetByIDForUpdate(ctx, t.NegotiationID)
		if err != nil {
			return d.failMissing(ctx, r, t, err)
		}
		l, err := r.Loans.GetByNegotiationID(ctx, t.NegotiationID)
		if err != nil {
			return d.failMissing(ctx, r, t, err)
		}

		// updated_at stays put: the contract hash is derived from it
		n.HashOnchain = &receipt.TxHash
		if err := r.Negotiations.Save(ctx, n); err != nil {
			return err
		}
		l.HashOnchain = &receipt.TxHash
		l.UpdatedAt = d.now()
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		t.Status = anchor.StatusDone
		t.LastError = nil
		t.UpdatedAt = d.now()
		if err := r.Anchors.Save(ctx, t); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if ok {
		logrus.WithFields(logrus.Fields{
			"task_id":        t.TaskID,
			"negotiation_id": t.NegotiationID,
			"tx_hash":        receipt.TxHash,
		}).Info("contract anchored")
	}
	return ok, nil
}

// failMissing gives up on a task whose negotiation or loan is gone; other
// lookup errors abort the outcome so the lease can expire and retry it.
func (d *Dispatcher) failMissing(ctx context.Context, r uow.Repos, t *anchor.Task, err error) error {
	if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	d.fail(t, err, true)
	return r.Anchors.Save(ctx, t)
}

// fail records cause on t; a final failure parks the task, otherwise it
// goes back to pending for the next round.
func (d *Dispatcher) fail(t *anchor.Task, cause error, final bool) {
	msg := cause.Error()
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}
	t.LastError = &msg
	t.UpdatedAt = d.now()
	t.Status = anchor.StatusPending
	if final {
		t.Status = anchor.StatusFailed
	}
	logrus.WithFields(logrus.Fields{
		"task_id":        t.TaskID,
		"negotiation_id": t.NegotiationID,
		"attempts":       t.Attempts,
		"final":          final,
	}).WithError(cause).Warn("anchor attempt failed")
}

func decodeDigest(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != len(out) {
		return out, fmt.Errorf("digest has %d bytes, want %d", len(b), len(out))
	}
	copy(out[:], b)
	return out, nil
}
