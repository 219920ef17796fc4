package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart gates checkout. It is a state condition, not a failure.
	ErrEmptyCart = errors.New("cart is empty")

	ErrStorageKeyNotFound = errors.New("storage: key not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrUnauthenticated    = errors.New("user not authenticated")
	ErrUpstream           = errors.New("upstream service error")

	// ErrCheckoutInProgress rejects a second checkout for the same session.
	ErrCheckoutInProgress = errors.New("checkout already in progress")
)

// ValidationError rejects bad input before any state is touched.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PersistenceError wraps a storage read/write failure.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("cart persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// UpstreamError carries the status of a failed call to the remote API.
type UpstreamError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Service, e.Message)
	}
	return fmt.Sprintf("%s (status %d): %s", e.Service, e.StatusCode, e.Message)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
