package services

import (
	"errors"
	"fmt"

	"phone_ordering_backend/internal/repositories"
)

// --- Custom Service Errors ---
var (
	// ErrValidation is bad input shape or values; details follow the colon.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound covers both absent records and records outside the caller's tenant scope.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized means the caller's role may not perform the operation.
	ErrUnauthorized = errors.New("operation not permitted for this role")
	// ErrInvalidTransition is a status machine violation, including a lost concurrent update.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict is a uniqueness violation such as a voice line already bound to another restaurant.
	ErrConflict = errors.New("conflict with existing record")
	// ErrUpstreamDegraded marks a failed side effect. It is reported in results, never returned.
	ErrUpstreamDegraded = errors.New("upstream side effect failed")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// mapRepoError translates repository sentinels into service sentinels.
func mapRepoError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, repositories.ErrDuplicateKey):
		return fmt.Errorf("%w: %s: %v", ErrConflict, what, err)
	case errors.Is(err, repositories.ErrStaleStatus):
		return fmt.Errorf("%w: %s was modified concurrently", ErrInvalidTransition, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// degradedWarning formats a side-effect failure for a result's warning list.
func degradedWarning(effect string, err error) string {
	return fmt.Sprintf("%s: %v", effect, fmt.Errorf("%w: %v", ErrUpstreamDegraded, err))
}
