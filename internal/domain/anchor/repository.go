package anchor

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Save(ctx context.Context, t *Task) error
	// ClaimPending locks up to limit tasks that are pending or whose
	// sending lease was taken before leaseBefore, oldest first.
	ClaimPending(ctx context.Context, limit int, leaseBefore time.Time) ([]Task, error)
	ListByNegotiation(ctx context.Context, negotiationID uint64) ([]Task, error)
}
