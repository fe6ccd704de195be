package mysql

import (
	"errors"

	"lending-marketplace/internal/domain/apperr"

	"gorm.io/gorm"
)

// notFound turns gorm's missing-row error into the domain kind.
func notFound(err error, what string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s %v not found", what, id)
	}
	return err
}
