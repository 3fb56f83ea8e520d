// Package retry provides the bounded, backed-off retry helper used across
// the config store: transient filesystem errors on the write path, and the
// read path's tolerance for racing an in-flight writer.
package retry

import (
	"context"
	"errors"
	log "log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"
)

// MaxAttempts is the retry budget after the first attempt: Do and IO run an
// operation at most MaxAttempts+1 times before giving up and returning the
// last error.
const MaxAttempts = 5

// Do executes task with Fibonacci backoff, retrying any error up to
// MaxAttempts times. If retries are exhausted, gaveUp is invoked (when not
// nil) and the final error is returned.
func Do(ctx context.Context, task func(ctx context.Context) error, gaveUp func(ctx context.Context)) error {
	b := retry.NewFibonacci(1 * time.Millisecond)
	if err := retry.Do(ctx, retry.WithMaxRetries(MaxAttempts, b), func(ctx context.Context) error {
		return retry.RetryableError(task(ctx))
	}); err != nil {
		log.Debug(err.Error() + ", gave up")
		if gaveUp != nil {
			gaveUp(ctx)
		}
		return err
	}
	return nil
}

// ShouldRetry reports whether err is retryable (non-nil and not a known
// permanent failure such as a missing file or a read-only filesystem).
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, os.ErrExist) {
		return false
	}
	switch {
	case errors.Is(err, syscall.EROFS),
		errors.Is(err, syscall.ENOSPC),
		errors.Is(err, syscall.EDQUOT),
		errors.Is(err, syscall.EMFILE),
		errors.Is(err, syscall.ENFILE),
		errors.Is(err, syscall.EACCES),
		errors.Is(err, syscall.EPERM),
		errors.Is(err, syscall.ENAMETOOLONG),
		errors.Is(err, syscall.ENOTDIR),
		errors.Is(err, syscall.EISDIR),
		errors.Is(err, syscall.ENOTEMPTY),
		errors.Is(err, syscall.EXDEV),
		errors.Is(err, syscall.EEXIST),
		errors.Is(err, syscall.EINVAL):
		return false
	}
	// Last-resort heuristic for read-only-fs text across platforms.
	if strings.Contains(err.Error(), "read-only file system") {
		return false
	}
	return true
}

// IO wraps a filesystem operation with ShouldRetry-gated backoff, returning
// the operation's error verbatim (not wrapped) once retries are exhausted
// or the error is judged non-retryable.
func IO(ctx context.Context, task func(ctx context.Context) error) error {
	b := retry.NewFibonacci(1 * time.Millisecond)
	var lastErr error
	err := retry.Do(ctx, retry.WithMaxRetries(MaxAttempts, b), func(ctx context.Context) error {
		if err := task(ctx); err != nil {
			lastErr = err
			if ShouldRetry(err) {
				return retry.RetryableError(err)
			}
			return nil
		}
		lastErr = nil
		return nil
	})
	if err != nil {
		return err
	}
	return lastErr
}
