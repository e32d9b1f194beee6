// Package errors provides the coded error type shared by every layer of the planner
package errors

// Always import the project errors package as perr (platform/errors)

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies an error for transports
// values go out on the wire, append only
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePanic is for panics recovered by middleware
	ErrorCodePanic

	// ErrorCodeUnavailable is for a dependency that is down or starting
	ErrorCodeUnavailable

	// ErrorCodeConflict covers a submission already in progress and other state clashes
	ErrorCodeConflict

	// ErrorCodeInvalidArgument is for well formed input that cannot be applied
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is for input rejected before any store call
	ErrorCodeValidation

	// ErrorCodeJSON is for undecodable bodies
	ErrorCodeJSON

	// ErrorCodeNotFound is for a missing line, duty, driver or assignment
	ErrorCodeNotFound

	// ErrorCodeDuplicateKey is for a slot that is already taken
	ErrorCodeDuplicateKey

	// ErrorCodeDB is for everything else the store returns
	ErrorCodeDB
)

var codeStatus = map[ErrorCode]int{
	ErrorCodeNotFound:        http.StatusNotFound,
	ErrorCodeInvalidArgument: http.StatusUnprocessableEntity,
	ErrorCodeDuplicateKey:    http.StatusConflict,
	ErrorCodeConflict:        http.StatusConflict,
	ErrorCodeValidation:      http.StatusBadRequest,
	ErrorCodeJSON:            http.StatusBadRequest,
	ErrorCodeUnavailable:     http.StatusServiceUnavailable,
}

// HTTPStatusCode turns an ErrorCode into an http status code
func HTTPStatusCode(c ErrorCode) int {
	if s, ok := codeStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// ErrNotFound is the sentinel repos return for a missing row
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error carries a code, a message and an optional offending field around a cause
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
}

// Wire is the JSON form returned by the API
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending request field, if any
func (e *Error) Field() string { return e.field }

// WireFrom converts any error into its wire payload
// foreign errors become Unknown with their text as message
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return Wire{Code: e.code, Message: e.msg, Field: e.field}
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf extracts an ErrorCode from any error, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus returns the mapped HTTP status for any error
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// WithField returns a copy of err naming the offending field
// foreign errors are returned unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// New returns an *Error with the given code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns an *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns an *Error around orig
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// DuplicateKeyf returns a duplicate key error
func DuplicateKeyf(format string, a ...any) error { return Newf(ErrorCodeDuplicateKey, format, a...) }

// JSONErrf returns a JSON error
func JSONErrf(format string, a ...any) error { return Newf(ErrorCodeJSON, format, a...) }

// PanicErrf returns a panic error
func PanicErrf(format string, a ...any) error { return Newf(ErrorCodePanic, format, a...) }

// Conflictf returns a conflict error
func Conflictf(format string, a ...any) error { return Newf(ErrorCodeConflict, format, a...) }

// Internalf returns a generic internal error
func Internalf(format string, a ...any) error { return Newf(ErrorCodeUnknown, format, a...) }
