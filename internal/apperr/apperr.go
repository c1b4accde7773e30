// Package apperr defines the error taxonomy shared by every scanstack component.
//
// Each failure carries a Kind. Callers branch on the kind with errors.Is against
// the exported sentinels:
//
//	if errors.Is(err, apperr.ErrInvalidPosition) {
//	    // tell the user the number they typed is not a slot
//	}
//
// Per-item failures (InvalidInput during ingestion, RecognitionFailure during a
// batch) are collected by their callers instead of aborting the surrounding
// operation. ExportFailed aborts only the single export attempt.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindInvalidInput       Kind = "invalid_input"
	KindInvalidPosition    Kind = "invalid_position"
	KindOutOfRange         Kind = "out_of_range"
	KindRecognitionFailure Kind = "recognition_failure"
	KindExportFailed       Kind = "export_failed"
	KindUnsupportedFormat  Kind = "unsupported_format"
	KindBatchInFlight      Kind = "batch_in_flight"
	KindNotFound           Kind = "not_found"
)

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrInvalidPosition    = &Error{Kind: KindInvalidPosition}
	ErrOutOfRange         = &Error{Kind: KindOutOfRange}
	ErrRecognitionFailure = &Error{Kind: KindRecognitionFailure}
	ErrExportFailed       = &Error{Kind: KindExportFailed}
	ErrUnsupportedFormat  = &Error{Kind: KindUnsupportedFormat}
	ErrBatchInFlight      = &Error{Kind: KindBatchInFlight}
	ErrNotFound           = &Error{Kind: KindNotFound}
)

// Error is a classified failure with an optional offending path and cause.
type Error struct {
	Kind    Kind
	Message string
	Path    string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind. An out-of-range position is also an invalid position.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind == t.Kind {
		return true
	}
	return e.Kind == KindOutOfRange && t.Kind == KindInvalidPosition
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies cause under kind. A nil cause yields a nil *Error, which
// chains through WithPath; check cause before returning the result as an error.
func Wrap(cause error, kind Kind, format string, args ...interface{}) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithPath returns a copy of e naming the offending path. It is nil on a
// nil receiver.
func (e *Error) WithPath(path string) *Error {
	if e == nil {
		return nil
	}
	c := *e
	c.Path = path
	return &c
}

// KindOf reports the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
