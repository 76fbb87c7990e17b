package mission

import (
	"errors"
	"fmt"

	"github.com/jwebster45206/cyber-siege/internal/storage"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrValidation    = errors.New("validation failed")
	ErrStorage       = errors.New("storage failure")
	ErrSessionBusy   = errors.New("session is busy")
	ErrSessionClosed = errors.New("session is not active")
)

// storageError maps a storage failure onto the service's sentinels.
func storageError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case errors.Is(err, storage.ErrMalformed):
		return fmt.Errorf("%s: %w: %w", op, ErrValidation, err)
	case errors.Is(err, storage.ErrLocked):
		return fmt.Errorf("%s: %w: %w", op, ErrSessionBusy, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
	}
}
