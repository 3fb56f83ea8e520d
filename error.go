package tableconfig

import "github.com/sharedcode/tableconfig/internal/errs"

// ErrorCode enumerates the config store's error taxonomy.
type ErrorCode = errs.ErrorCode

// Error is the config store's error type: a code drawn from the taxonomy
// below plus the underlying cause. It is never raised silently; every
// failure path in this module returns one of these. It is defined in the
// leaf package internal/errs (and aliased here) so that the fs backends can
// construct it too without creating an import cycle back to this package.
type Error = errs.Error

const (
	// Unknown represents an unspecified error condition.
	Unknown = errs.Unknown
	// IoError wraps a filesystem failure (permission, disconnected, transient).
	// The caller decides whether to retry.
	IoError = errs.IoError
	// NotFound means neither the primary nor the backup file exists.
	NotFound = errs.NotFound
	// InvalidConfig means both candidate files are present but neither passes
	// checksum validation, or a reserved value failed to parse to its semantic type.
	InvalidConfig = errs.InvalidConfig
	// AlreadyExists means create was invoked against an already-initialized directory.
	AlreadyExists = errs.AlreadyExists
)

// HasCode reports whether err (or something it wraps) carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return errs.HasCode(err, code)
}
