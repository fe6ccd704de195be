package account

import "context"

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uint64) (*User, error)
	// Row lock held until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uint64) (*User, error)
	UpdateBalance(ctx context.Context, id uint64, balance float64) error
	List(ctx context.Context) ([]User, error)
}
