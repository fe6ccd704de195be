package db

import (
	"lending-marketplace/internal/domain/account"
	"lending-marketplace/internal/domain/anchor"
	"lending-marketplace/internal/domain/loan"
	"lending-marketplace/internal/domain/negotiation"
	"lending-marketplace/internal/domain/proposal"
	"lending-marketplace/internal/domain/score"

	"gorm.io/gorm"
)

// Models lists every persisted aggregate in dependency order.
func Models() []any {
	return []any{
		&account.User{},
		&score.CreditScore{},
		&negotiation.Negotiation{},
		&proposal.Proposal{},
		&loan.Loan{},
		&anchor.Task{},
	}
}

// Migrate creates or alters tables for Models. No versioned migrations.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
