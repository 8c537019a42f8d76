package postledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// Registry errors
	ErrInvalidIdentifier = errors.New("postledger: invalid post identifier")
	ErrInvalidAddress    = errors.New("postledger: invalid address")
	ErrAlreadyRegistered = errors.New("postledger: post already registered")

	// Ledger errors
	ErrInvalidAmount = errors.New("postledger: invalid amount")

	// Settlement errors
	ErrNothingToWithdraw = errors.New("postledger: nothing to withdraw")
	ErrTransferFailed    = errors.New("postledger: transfer failed")
	ErrOverdraw          = errors.New("postledger: withdrawal exceeds available balance")

	// Administration errors
	ErrNotAuthorized        = errors.New("postledger: not authorized")
	ErrInvalidFeePercentage = errors.New("postledger: invalid fee percentage")
	ErrNotPaused            = errors.New("postledger: not paused")
	ErrAlreadyInState       = errors.New("postledger: already in requested state")
	ErrPaused               = errors.New("postledger: paused")

	// Store errors
	ErrNotFound        = errors.New("postledger: not found")
	ErrStoreNotReady   = errors.New("postledger: store not ready")
	ErrStoreClosed     = errors.New("postledger: store is closed")
	ErrMigrationFailed = errors.New("postledger: migration failed")
)

// ValidationError represents a validation failure with details.
// It unwraps to the sentinel that classifies it.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("postledger: validation failed for %s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error { return e.Err }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "postledger: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("postledger: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAuthorizationError returns true if the caller lacked the privilege for the call.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrNotAuthorized)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransferFailed) ||
		errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrPaused)
}
