package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// FileUnreadable indicates an input file could not be read
	FileUnreadable ErrorCode = "FILE_UNREADABLE"
	// ParseFailed indicates no grammar could parse a file
	ParseFailed ErrorCode = "PARSE_FAILED"
	// MacroParseFailed indicates a verification macro body could not be re-parsed
	MacroParseFailed ErrorCode = "MACRO_PARSE_FAILED"
	// OutputUnwritable indicates the tag table could not be created or written
	OutputUnwritable ErrorCode = "OUTPUT_UNWRITABLE"
	// TagsMalformed indicates an existing tag table is not in etags format
	TagsMalformed ErrorCode = "TAGS_MALFORMED"
	// ConfigInvalid indicates the configuration could not be loaded or validated
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// CacheUnavailable indicates the tag cache could not be opened or used
	CacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Error is a verus-etags error carrying a stable code, the affected path
// (when there is one) and the underlying cause.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Path    string    `json:"path,omitempty"`
	cause   error
}

// New creates a new Error
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Newf creates a new Error with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ForPath creates a new Error bound to a file path
func ForPath(code ErrorCode, path, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Path:    path,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same code, so that
// errors.Is(err, &Error{Code: ParseFailed}) matches any parse failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Path == "" || t.Path == e.Path)
}

// CodeOf returns the code of the first *Error in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return InternalError
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// PathOf returns the path of the first *Error in err's chain that has one.
func PathOf(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Path != "" {
			return e.Path
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// HasCode reports whether err's chain contains an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &Error{Code: code})
}

// IsFatal reports whether the error must abort the whole run. Only failures
// writing the tag table and invalid configuration are fatal; everything that
// concerns a single input file is recoverable.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case OutputUnwritable, ConfigInvalid:
		return true
	default:
		return false
	}
}
