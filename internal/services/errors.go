package services

import (
	"errors"
	"fmt"

	"github.com/otc-marketplace/backend/internal/repositories"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrAccountDisabled = errors.New("account is disabled")
)

// invalid wraps ErrValidation with a client-facing message.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// fromRepo maps repository sentinels to service sentinels. Other errors pass through.
func fromRepo(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, repositories.ErrConflict):
		return fmt.Errorf("%s: %w", what, ErrConflict)
	default:
		return err
	}
}
