package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Generic sentinels
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
	ErrTimeout           = errors.New("operation timeout")
	ErrUnavailable       = errors.New("service unavailable")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Signal fusion sentinels
var (
	// ErrUpstreamDataUnavailable: a fetch returned nothing for the requested range
	ErrUpstreamDataUnavailable = errors.New("upstream data unavailable")

	// ErrInsufficientWarmup: a series lacks history for its moving average or z-score
	ErrInsufficientWarmup = errors.New("insufficient warm-up data")

	// ErrScoringFailed: the text polarity scorer failed
	ErrScoringFailed = errors.New("text scoring failed")

	// ErrDivisionDegenerate: zero or undefined denominator (std, vote totals)
	ErrDivisionDegenerate = errors.New("degenerate division")
)

// ValidationError reports a rejected input field. It matches ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s (got %v)", e.Field, e.Message, e.Value)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError creates a ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// MultiError collects failures of independent steps
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	switch len(m.Errors) {
	case 0:
		return "no errors"
	case 1:
		return m.Errors[0].Error()
	}
	msgs := make([]string, len(m.Errors))
	for i, err := range m.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(m.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to Is and As
func (m *MultiError) Unwrap() []error { return m.Errors }

// Add appends err unless it is nil
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

func (m *MultiError) HasErrors() bool { return len(m.Errors) > 0 }

// ToError returns nil when nothing was collected
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

func New(message string) error { return errors.New(message) }

// Wrap prefixes err with message; nil stays nil
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Mark tags err with sentinel so that Is matches both
func Mark(err, sentinel error) error {
	if err == nil || errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// Permanent reports whether retrying err cannot help
func Permanent(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound)
}
