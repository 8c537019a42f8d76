package postledger

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrorUnwraps(t *testing.T) {
	err := ValidationError{Field: "fee_recipient", Message: "must not be the zero address", Err: ErrInvalidAddress}
	if !errors.Is(err, ErrInvalidAddress) {
		t.Error("expected ValidationError to unwrap to its sentinel")
	}
	if err.Error() != "postledger: validation failed for fee_recipient: must not be the zero address" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestMultiError(t *testing.T) {
	var me MultiError
	if me.HasErrors() || me.First() != nil {
		t.Fatal("empty MultiError should report no errors")
	}

	me.Add(nil)
	me.Add(ErrTransferFailed)
	me.Add(ErrNotFound)

	if len(me.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(me.Errors))
	}
	if !errors.Is(me, ErrNotFound) || !errors.Is(me, ErrTransferFailed) {
		t.Error("expected errors.Is to see every collected error")
	}
	if me.First() != ErrTransferFailed {
		t.Errorf("First: got %v", me.First())
	}
	if me.Error() != "postledger: 2 errors occurred" {
		t.Errorf("Error: got %q", me.Error())
	}
}

func TestClassificationHelpers(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		notFound  bool
		auth      bool
		retryable bool
	}{
		{"not found", fmt.Errorf("wrap: %w", ErrNotFound), true, false, false},
		{"not authorized", fmt.Errorf("%w: %w", ErrNotAuthorized, errors.New("nope")), false, true, false},
		{"transfer failed", fmt.Errorf("%w: vault", ErrTransferFailed), false, false, true},
		{"paused", ErrPaused, false, false, true},
		{"store not ready", ErrStoreNotReady, false, false, true},
		{"invalid amount", ErrInvalidAmount, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.notFound {
				t.Errorf("IsNotFound: got %v, want %v", got, tt.notFound)
			}
			if got := IsAuthorizationError(tt.err); got != tt.auth {
				t.Errorf("IsAuthorizationError: got %v, want %v", got, tt.auth)
			}
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable: got %v, want %v", got, tt.retryable)
			}
		})
	}
}
