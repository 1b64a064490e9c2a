package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrRemoteUnavailable = errors.New("remote unavailable")
	ErrPromoRejected     = errors.New("promo rejected")
	ErrRateLimited       = errors.New("rate limited")
	ErrIncompatible      = errors.New("incompatible server version")
)

// EngineError is a structured error carried across engine boundaries.
// Implements error interface and supports unwrapping.
type EngineError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status when originating from the remote service
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewNotFoundError marks a missing resource. Remove/update against an absent
// line item is treated as a no-op by callers, not surfaced to users.
func NewNotFoundError(resource string) *EngineError {
	return &EngineError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewValidationError marks invalid local input, rejected before any
// optimistic apply.
func NewValidationError(field, reason string) *EngineError {
	return &EngineError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: 400,
		Err:        ErrInvalidRequest,
	}
}

// NewNotAuthenticatedError marks an operation that requires sign-in,
// e.g. any wishlist mutation under a guest identity.
func NewNotAuthenticatedError(action string) *EngineError {
	return &EngineError{
		Code:       "NOT_AUTHENTICATED",
		Message:    fmt.Sprintf("sign in to %s", action),
		StatusCode: 401,
		Err:        ErrNotAuthenticated,
	}
}

// NewRemoteError marks a failed round-trip to the cart service. For cart
// mutations this is absorbed (optimistic state retained); for promo and
// wishlist operations it is surfaced to the caller.
func NewRemoteError(op string, err error) *EngineError {
	return &EngineError{
		Code:       "REMOTE_UNAVAILABLE",
		Message:    fmt.Sprintf("%s request failed", op),
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %v", ErrRemoteUnavailable, err),
	}
}

// NewPromoError marks a promo code the server refused to apply.
func NewPromoError(code, reason string) *EngineError {
	if reason == "" {
		reason = "code was not accepted"
	}
	return &EngineError{
		Code:       "PROMO_REJECTED",
		Message:    fmt.Sprintf("promo %q: %s", code, reason),
		StatusCode: 422,
		Err:        ErrPromoRejected,
	}
}

// NewRateLimitError marks a 429 from the cart service.
func NewRateLimitError() *EngineError {
	return &EngineError{
		Code:       "RATE_LIMITED",
		Message:    "cart service rate limit exceeded, please retry later",
		StatusCode: 429,
		Err:        ErrRateLimited,
	}
}

// NewVersionError marks a cart service whose protocol version is older than
// the minimum this engine supports.
func NewVersionError(serverVersion, minVersion string) *EngineError {
	return &EngineError{
		Code:    "INCOMPATIBLE_VERSION",
		Message: fmt.Sprintf("server version %s is below minimum supported %s", serverVersion, minVersion),
		Err:     ErrIncompatible,
	}
}
