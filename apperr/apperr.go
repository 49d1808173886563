// Package apperr carries coded domain errors across service boundaries.
//
// Conflict-class codes mean the caller attempted a transition whose
// precondition already holds; NotFound-class codes mean the referenced
// entity or relationship is not in the expected state. Both are expected
// conditions and are never retried internally.
package apperr

import (
	"errors"
	"fmt"
)

// AppError is a domain error with a classification code.
type AppError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// New creates an AppError with the given code.
func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

// Newf creates an AppError with a formatted message.
func Newf(code Code, format string, args ...interface{}) error {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func NotFound(msg string) error       { return New(CodeNotFound, msg) }
func Conflict(msg string) error       { return New(CodeConflict, msg) }
func SlotsExhausted(msg string) error { return New(CodeSlotsExhausted, msg) }
func InvalidArg(msg string) error     { return New(CodeInvalidArgument, msg) }
func Unauthorized(msg string) error   { return New(CodeUnauthorized, msg) }
func Forbidden(msg string) error      { return New(CodeForbidden, msg) }
func Unimplemented(msg string) error  { return New(CodeUnimplemented, msg) }
func Internal(msg string) error       { return New(CodeInternal, msg) }

// TxFailure wraps a storage error raised inside a compound mutation so
// partial multi-step writes surface as a single rolled-back failure.
func TxFailure(msg string, cause error) error {
	return Wrap(CodeTxFailure, msg, cause)
}

// CodeOf extracts the classification code, or CodeUnknown for plain errors.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	var ae *AppError
	for errors.As(err, &ae) {
		if ae.Code == code {
			return true
		}
		err = ae.Cause
		if err == nil {
			break
		}
	}
	return false
}
