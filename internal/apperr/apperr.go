// Package apperr defines the error taxonomy surfaced by the portal.
// Every failure leaving a service method carries one of these kinds so the
// API layer can map it to a structured response instead of a bare 500.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers.
type Kind string

const (
	KindValidation Kind = "validation"  // bad or unsupported input
	KindNotFound   Kind = "not_found"   // missing index or document
	KindIndexEmpty Kind = "index_empty" // query against an index with zero entries
	KindEmbedding  Kind = "embedding"   // external embedding call failed
	KindGeneration Kind = "generation"  // external model call failed
	KindConflict   Kind = "conflict"    // concurrent build of the same index
	KindInternal   Kind = "internal"
)

// Error is a classified error. Err may be nil when there is no underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func newf(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Validation builds a validation error.
func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, nil, format, args...)
}

// NotFound builds a not-found error.
func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, nil, format, args...)
}

// IndexEmpty builds an empty-index error.
func IndexEmpty(format string, args ...interface{}) *Error {
	return newf(KindIndexEmpty, nil, format, args...)
}

// Conflict builds a conflict error.
func Conflict(format string, args ...interface{}) *Error {
	return newf(KindConflict, nil, format, args...)
}

// Embedding wraps a failed embedding provider call.
func Embedding(cause error, format string, args ...interface{}) *Error {
	return newf(KindEmbedding, cause, format, args...)
}

// Generation wraps a failed generation provider call.
func Generation(cause error, format string, args ...interface{}) *Error {
	return newf(KindGeneration, cause, format, args...)
}

// Internal wraps an unclassified failure.
func Internal(cause error, format string, args ...interface{}) *Error {
	return newf(KindInternal, cause, format, args...)
}
