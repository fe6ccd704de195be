package mysql

import (
	"context"

	"lending-marketplace/internal/domain/account"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) *AccountRepository { return &AccountRepository{db: db} }

func (r *AccountRepository) Create(ctx context.Context, u *account.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *AccountRepository) GetByID(ctx context.Context, id uint64) (*account.User, error) {
	var out account.User
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &out, nil
}

func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*account.User, error) {
	var out account.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&out, id).Error
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return &out, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, id uint64, balance float64) error {
	res := r.db.WithContext(ctx).
		Model(&account.User{}).
		Where("id = ?", id).
		Update("balance", balance)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "user", id)
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context) ([]account.User, error) {
	var out []account.User
	err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&out).Error
	return out, err
}
