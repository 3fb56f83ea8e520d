// Package errs holds the config store's error taxonomy in a leaf package so
// both the fs backends and the top-level tableconfig facade can construct
// and inspect these errors without an import cycle. tableconfig re-exports
// these names as its own public Error/ErrorCode/HasCode.
package errs

import "fmt"

// ErrorCode enumerates the config store's error taxonomy.
type ErrorCode int

const (
	// Unknown represents an unspecified error condition.
	Unknown ErrorCode = iota
	// IoError wraps a filesystem failure (permission, disconnected, transient).
	// The caller decides whether to retry.
	IoError
	// NotFound means neither the primary nor the backup file exists.
	NotFound
	// InvalidConfig means both candidate files are present but neither passes
	// checksum validation, or a reserved value failed to parse to its semantic type.
	InvalidConfig
	// AlreadyExists means create was invoked against an already-initialized directory.
	AlreadyExists
)

func (c ErrorCode) String() string {
	switch c {
	case IoError:
		return "IoError"
	case NotFound:
		return "NotFound"
	case InvalidConfig:
		return "InvalidConfig"
	case AlreadyExists:
		return "AlreadyExists"
	default:
		return "Unknown"
	}
}

// Error is the config store's error type: a code drawn from the taxonomy
// above plus the underlying cause. It is never raised silently; every
// failure path in this module returns one of these.
type Error struct {
	Code ErrorCode
	Err  error
}

// Error formats the code and wrapped cause, mirroring the teacher's sop.Error.
func (e Error) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return fmt.Errorf("%s: %w", e.Code, e.Err).Error()
}

// Unwrap lets errors.Is/errors.As reach the wrapped cause.
func (e Error) Unwrap() error {
	return e.Err
}

// New constructs an Error from a code and cause.
func New(code ErrorCode, err error) error {
	return Error{Code: code, Err: err}
}

// HasCode reports whether err (or something it wraps) carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var e Error
	for err != nil {
		if ce, ok := err.(Error); ok {
			e = ce
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return e.Code == code
}
