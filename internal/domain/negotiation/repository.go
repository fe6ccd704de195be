package negotiation

import (
	"context"
	"time"
)

// Filter narrows listings; zero values mean "any".
type Filter struct {
	Status     Status
	BorrowerID uint64
	LenderID   uint64
}

type Repository interface {
	Create(ctx context.Context, n *Negotiation) error
	Save(ctx context.Context, n *Negotiation) error
	GetByID(ctx context.Context, id uint64) (*Negotiation, error)
	// Row lock held until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Negotiation, error)
	List(ctx context.Context, f Filter) ([]Negotiation, error)

	// ExpireStale flips every open negotiation created at or before cutoff to
	// expired. Safe to run concurrently; returns the number of rows changed.
	ExpireStale(ctx context.Context, cutoff, now time.Time) (int64, error)
}
