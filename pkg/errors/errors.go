// Package errors provides the unified error type and factory functions for
// OntoGround.  Every layer (domain, intelligence, application, infrastructure,
// interfaces) reports failures as *AppError so that the CLI, the HTTP surface
// and the structured logger can classify them without string matching.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

// captureStack returns a formatted call-stack string starting two frames above
// the caller (skipping captureStack itself and the factory).
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// AppError
// ─────────────────────────────────────────────────────────────────────────────

// AppError is the single structured error type used throughout OntoGround.
// It supports errors.Is / errors.As / errors.Unwrap through Unwrap.
//
// Usage:
//
//	return errors.New(errors.ErrCodeConfiguration, "concept is missing an id").
//	           WithDetail("category=drugs index=3")
//	return errors.InputShape("drug_name", "required field is missing")
type AppError struct {
	// Code classifies the failure.
	Code ErrorCode

	// Message is the primary human-readable description.
	Message string

	// Detail carries supplementary context (paths, categories, keys).
	Detail string

	// Field names the offending input key for per-fact input errors.
	Field string

	// Cause is the underlying error, if any.
	Cause error

	// Stack is captured by the factories; it is never part of Error().
	Stack string
}

// Error implements the error interface.
// Format: "[<code>] <message>: <detail>: <cause>", omitting empty segments.
func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(e.Code.String())
	sb.WriteString("] ")
	sb.WriteString(e.Message)
	if e.Field != "" {
		sb.WriteString(" (field ")
		sb.WriteString(e.Field)
		sb.WriteString(")")
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail returns a copy of the receiver with Detail set. Nil-safe.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithDetailf is WithDetail with fmt formatting.
func (e *AppError) WithDetailf(format string, args ...interface{}) *AppError {
	return e.WithDetail(fmt.Sprintf(format, args...))
}

// WithField returns a copy of the receiver with Field set. Nil-safe.
func (e *AppError) WithField(field string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Field = field
	return &clone
}

// WithCause returns a copy of the receiver with Cause set. Nil-safe.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// ─────────────────────────────────────────────────────────────────────────────
// Factories
// ─────────────────────────────────────────────────────────────────────────────

// New constructs an AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Stack:   captureStack(1),
	}
}

// Newf is New with fmt formatting.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(1),
	}
}

// Wrap constructs an AppError around err. If err is nil, Wrap returns nil, so
// callers returning `error` must check err first to avoid a typed nil.
//
// When code is CodeUnknown and err already carries an AppError, the original
// code is preserved.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
		Stack:   captureStack(1),
	}
}

// Wrapf is Wrap with fmt formatting.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
		Stack:   captureStack(1),
	}
}

// Configuration constructs an ErrCodeConfiguration error.
func Configuration(message string) *AppError {
	return &AppError{Code: ErrCodeConfiguration, Message: message, Stack: captureStack(1)}
}

// InputShape constructs an ErrCodeInputShape error naming the offending field.
// field may be empty for batch-level shape errors.
func InputShape(field, message string) *AppError {
	return &AppError{Code: ErrCodeInputShape, Message: message, Field: field, Stack: captureStack(1)}
}

// LookupFailure wraps a reference vocabulary failure.
func LookupFailure(err error, vocabulary string) *AppError {
	return &AppError{
		Code:    ErrCodeLookupFailure,
		Message: "reference vocabulary lookup failed",
		Detail:  "vocabulary=" + vocabulary,
		Cause:   err,
		Stack:   captureStack(1),
	}
}

// Persistence wraps a backup or dictionary write failure.
func Persistence(err error, message string) *AppError {
	return &AppError{Code: ErrCodePersistence, Message: message, Cause: err, Stack: captureStack(1)}
}

// Internal constructs an ErrCodeInternal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message, Stack: captureStack(1)}
}

// InvalidParam constructs an ErrCodeBadRequest error.
func InvalidParam(message string) *AppError {
	return &AppError{Code: ErrCodeBadRequest, Message: message, Stack: captureStack(1)}
}

// NotFound constructs an ErrCodeNotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message, Stack: captureStack(1)}
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

// IsCode reports whether any error in err's chain is an *AppError with code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) {
			if ae.Code == code {
				return true
			}
			err = ae.Cause
			continue
		}
		return false
	}
	return false
}

// GetCode returns the code of the first *AppError in err's chain, CodeOK for
// nil and CodeUnknown for foreign errors.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// FieldOf returns the Field of the first *AppError in err's chain that has one.
func FieldOf(err error) string {
	var ae *AppError
	for err != nil {
		if !errors.As(err, &ae) {
			return ""
		}
		if ae.Field != "" {
			return ae.Field
		}
		err = ae.Cause
	}
	return ""
}

func IsConfiguration(err error) bool { return IsCode(err, ErrCodeConfiguration) }
func IsInputShape(err error) bool    { return IsCode(err, ErrCodeInputShape) }
func IsLookupFailure(err error) bool { return IsCode(err, ErrCodeLookupFailure) }
func IsPersistence(err error) bool   { return IsCode(err, ErrCodePersistence) }
func IsLock(err error) bool          { return IsCode(err, ErrCodeLock) }
func IsNotFound(err error) bool      { return IsCode(err, ErrCodeNotFound) }

// Is, As and Unwrap re-export the standard library helpers so callers only
// need to import this package.
func Is(err, target error) bool { return errors.Is(err, target) }
func As(err error, target any) bool { return errors.As(err, target) }
func Unwrap(err error) error { return errors.Unwrap(err) }

//Personal.AI order the ending
