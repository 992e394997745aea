// Package errors provides structured error handling for formatbench
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeConfig represents catalog and run configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeConversion represents text-to-value conversion errors
	ErrorTypeConversion ErrorType = "conversion"
	// ErrorTypeSource represents source file errors
	ErrorTypeSource ErrorType = "source"
	// ErrorTypeEncoding represents failures of one output encoding
	ErrorTypeEncoding ErrorType = "encoding"
	// ErrorTypeFile represents file operation errors
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeQuery represents table store query errors
	ErrorTypeQuery ErrorType = "query"
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
)

// Code identifies the specific member of an ErrorType
type Code string

const (
	CodeMissingSection         Code = "missing_section"
	CodeMissingField           Code = "missing_field"
	CodeUnknownType            Code = "unknown_type"
	CodeInvalidColumn          Code = "invalid_column"
	CodeMalformedNumber        Code = "malformed_number"
	CodeInvalidDate            Code = "invalid_date"
	CodeDecimalRescaleOverflow Code = "decimal_rescale_overflow"
	CodeFieldCountMismatch     Code = "field_count_mismatch"
	CodeUnreadableSource       Code = "unreadable_source"
	CodeEncoding               Code = "encoding"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Code    Code
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	prefix := string(e.Type)
	if e.Code != "" {
		prefix += "/" + string(e.Code)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCode sets the specific error code
func (e *Error) WithCode(code Code) *Error {
	e.Code = code
	return e
}

// Detail returns a detail value, searching wrapped errors outward-in
func (e *Error) Detail(key string) (interface{}, bool) {
	if v, ok := e.Details[key]; ok {
		return v, true
	}
	var inner *Error
	if e.Cause != nil && errors.As(e.Cause, &inner) {
		return inner.Detail(key)
	}
	return nil, false
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new coded error with a formatted message
func Newf(errType ErrorType, code Code, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack and code
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Code:    existingErr.Code,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Type == errType {
			return true
		}
		err = e.Cause
	}
	return false
}

// IsCode checks if the error or any wrapped *Error carries the given code
func IsCode(err error, code Code) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// DetailOf returns a detail value from the outermost *Error that has it
func DetailOf(err error, key string) (interface{}, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return nil, false
	}
	return e.Detail(key)
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
