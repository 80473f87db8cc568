package ragerr

import (
	"errors"
	"fmt"
)

// Error is the engine's single error type. Every boundary between
// subsystems (storage, ingestion, search, the tool surface) translates
// failures into an Error with an explicit Kind rather than letting raw
// driver/stdlib errors leak across the boundary.
type Error struct {
	Kind      Kind
	Message   string
	Cause     error
	Retryable bool
	Details   map[string]any
}

// New creates an Error of the given kind wrapping cause (which may be
// nil). Retryable is derived from Kind unless overridden with
// WithRetryable.
func New(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:      kind,
		Message:   message,
		Cause:     cause,
		Retryable: retryable(kind),
	}
}

// Wrap is a convenience for New(kind, err.Error(), err).
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return New(kind, err.Error(), err)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is supports errors.Is comparisons against a Kind-only sentinel built
// with New(kind, "", nil), so callers can write
// errors.Is(err, ragerr.New(ragerr.DocumentNotFound, "", nil)).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// WithDetail attaches a structured detail field and returns the
// receiver for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithRetryable overrides the kind-derived retryable classification.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable reports whether err (or any error it wraps) is a
// retryable *Error.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetKind extracts the Kind of err, or "" if err is not (or does not
// wrap) a *Error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Of reports whether err is (or wraps) an *Error of the given kind.
func Of(err error, kind Kind) bool {
	return GetKind(err) == kind
}
