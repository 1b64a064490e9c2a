package model

import (
	"errors"
	"testing"
)

func TestEngineError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *EngineError
		want string
	}{
		{
			name: "without wrapped error",
			err: &EngineError{
				Code:    "TEST_ERROR",
				Message: "something went wrong",
			},
			want: "TEST_ERROR: something went wrong",
		},
		{
			name: "with wrapped error",
			err: &EngineError{
				Code:    "TEST_ERROR",
				Message: "something went wrong",
				Err:     errors.New("underlying cause"),
			},
			want: "TEST_ERROR: something went wrong (underlying cause)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEngineError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &EngineError{Code: "TEST", Message: "test", Err: underlying}

	if unwrapped := err.Unwrap(); unwrapped != underlying {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, underlying)
	}

	errNoWrap := &EngineError{Code: "TEST", Message: "test"}
	if errNoWrap.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no wrapped error")
	}
}

// TestConstructors_Sentinels verifies each constructor wraps its sentinel so
// callers can branch with errors.Is regardless of construction site.
func TestConstructors_Sentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		status   int
	}{
		{"not found", NewNotFoundError("line item"), ErrNotFound, 404},
		{"validation", NewValidationError("quantity", "must be >= 1"), ErrInvalidRequest, 400},
		{"not authenticated", NewNotAuthenticatedError("save items to your wishlist"), ErrNotAuthenticated, 401},
		{"remote", NewRemoteError("add item", errors.New("connection refused")), ErrRemoteUnavailable, 502},
		{"promo", NewPromoError("SAVE10", "expired"), ErrPromoRejected, 422},
		{"rate limited", NewRateLimitError(), ErrRateLimited, 429},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", tt.err)
			}
			var ee *EngineError
			if !errors.As(tt.err, &ee) {
				t.Fatalf("errors.As EngineError failed for %v", tt.err)
			}
			if ee.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", ee.StatusCode, tt.status)
			}
		})
	}
}

func TestNewVersionError(t *testing.T) {
	err := NewVersionError("0.9.0", "1.0.0")
	if !errors.Is(err, ErrIncompatible) {
		t.Error("version error should wrap ErrIncompatible")
	}
}
