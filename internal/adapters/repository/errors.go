package repository

import (
	"errors"

	"gorm.io/gorm"
)

// Sentinel kinds for storage errors.
var (
	ErrNotFound          = errors.New("record not found")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	ErrInvalidLimit      = errors.New("invalid limit")
)

// translate maps gorm's not-found error onto ErrNotFound and leaves the rest as is.
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
