// Package repository holds the gorm-backed stores for users, accounts,
// entries and the prompt ledger.
package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrStorage wraps every persistence failure returned by this package.
var ErrStorage = errors.New("storage failure")

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
