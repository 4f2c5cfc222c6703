package video

import (
	"errors"
	"fmt"
)

// ErrorKind is the coarse failure category reported to callers
type ErrorKind string

const (
	// KindInvalidInput covers bad paths and out-of-range options
	KindInvalidInput ErrorKind = "invalid_input"

	// KindAlreadyOpen covers interactive session and per-source conflicts
	KindAlreadyOpen ErrorKind = "already_open"

	// KindNativeFailure covers errors reported by the codec collaborator
	KindNativeFailure ErrorKind = "native_failure"

	// KindIOFailure covers file store failures
	KindIOFailure ErrorKind = "io_failure"
)

// Error codes carried by Error events and returned errors
const (
	CodeFileNotFound      = "FILE_NOT_FOUND"
	CodeFileUnreadable    = "FILE_UNREADABLE"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeInvalidOptions    = "INVALID_OPTIONS"
	CodeInvalidTimeRange  = "INVALID_TIME_RANGE"
	CodeAlreadyOpen       = "ALREADY_OPEN"
	CodeSourceBusy        = "SOURCE_BUSY"
	CodeNativeFailure     = "NATIVE_FAILURE"
	CodeIOFailure         = "IO_FAILURE"
)

// Error is a classified pipeline failure. The same value feeds both the
// Error event and the rejected result of the originating call.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

// Error formats the failure for logs and CLI output
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error by code so sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) || other == nil || e == nil {
		return false
	}
	return other.Code == e.Code && other.Message == ""
}

var (
	// ErrNotFound matches any FILE_NOT_FOUND error
	ErrNotFound = &Error{Kind: KindInvalidInput, Code: CodeFileNotFound}

	// ErrUnreadable matches any FILE_UNREADABLE error
	ErrUnreadable = &Error{Kind: KindInvalidInput, Code: CodeFileUnreadable}

	// ErrUnsupportedFormat matches any UNSUPPORTED_FORMAT error
	ErrUnsupportedFormat = &Error{Kind: KindInvalidInput, Code: CodeUnsupportedFormat}

	// ErrAlreadyOpen matches any ALREADY_OPEN error
	ErrAlreadyOpen = &Error{Kind: KindAlreadyOpen, Code: CodeAlreadyOpen}

	// ErrSourceBusy matches any SOURCE_BUSY error
	ErrSourceBusy = &Error{Kind: KindAlreadyOpen, Code: CodeSourceBusy}
)

// NewError builds a classified error
func NewError(kind ErrorKind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// InvalidOptions builds an INVALID_OPTIONS error
func InvalidOptions(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Code: CodeInvalidOptions, Message: fmt.Sprintf(format, args...)}
}

// AsError classifies any error. Unclassified errors become IO failures.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindIOFailure, Code: CodeIOFailure, Message: err.Error(), Err: err}
}

// KindOf returns the kind of a classified error, or "" when err is nil
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return AsError(err).Kind
}
