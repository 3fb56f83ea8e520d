// Package fs contains filesystem-backed implementations of the config
// store's Filesystem Adapter, Property Codec, Recovery Protocol, and Update
// Protocol.
package fs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sharedcode/tableconfig/internal/retry"
)

// FileIO is the narrow capability the store needs from any backing
// substrate, per SPEC_FULL.md §5.2: existence, read, create-overwrite
// write, rename, and delete. rename's atomicity is not assumed beyond "after
// a successful return, dst holds src's old content and src no longer
// exists" — backends that cannot rename atomically (e.g. object stores)
// still satisfy the protocol by implementing it as copy-then-delete.
type FileIO interface {
	Exists(ctx context.Context, path string) bool
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Rename(ctx context.Context, oldPath, newPath string) error
	Remove(ctx context.Context, path string) error
}

const dirPermission = 0o755
const filePermission = 0o644

// LocalFileIO is a FileIO backed by the local (or NFS-mounted) filesystem
// via the os package, with retry semantics for transient errors.
type LocalFileIO struct{}

// NewLocalFileIO returns a FileIO that performs I/O via the os package.
func NewLocalFileIO() *LocalFileIO {
	return &LocalFileIO{}
}

// Exists returns true if path exists (file or directory). Any error other
// than "not exist" is treated as existing, since permission or transient
// I/O errors should not be read as "missing path".
func (LocalFileIO) Exists(ctx context.Context, path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// Read reads an entire file into memory with retry on transient errors.
func (LocalFileIO) Read(ctx context.Context, path string) ([]byte, error) {
	var ba []byte
	err := retry.IO(ctx, func(context.Context) error {
		var e error
		ba, e = os.ReadFile(path)
		return e
	})
	return ba, err
}

// Write truncates (or creates) path and writes data, creating parent
// directories on demand, with retry on transient errors.
func (LocalFileIO) Write(ctx context.Context, path string, data []byte) error {
	write := func(context.Context) error { return os.WriteFile(path, data, filePermission) }
	if err := write(ctx); err != nil {
		if derr := os.MkdirAll(filepath.Dir(path), dirPermission); derr != nil {
			return err
		}
		return retry.IO(ctx, write)
	}
	return nil
}

// Rename moves oldPath to newPath. On the local filesystem this is the
// atomic os.Rename; the protocol does not depend on that atomicity, only on
// the postcondition holding once Rename returns without error.
func (LocalFileIO) Rename(ctx context.Context, oldPath, newPath string) error {
	return retry.IO(ctx, func(context.Context) error { return os.Rename(oldPath, newPath) })
}

// Remove deletes path; a missing target is not an error.
func (LocalFileIO) Remove(ctx context.Context, path string) error {
	err := retry.IO(ctx, func(context.Context) error { return os.Remove(path) })
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
