package persistence

import (
	"context"
	"errors"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"gorm.io/gorm"
)

// storeError translates a GORM error into the domain taxonomy.
// Missing rows become NotFound, unique violations become a concurrency conflict
// and anything else the driver reports is treated as transient.
func storeError(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.NewNotFoundError(resource)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.NewConcurrencyConflictError(resource)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return shared.NewTransientStoreError(op, err)
}
