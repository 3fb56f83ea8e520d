package fs

import (
	"context"
	"path/filepath"
)

// PrimaryFilename and BackupFilename are the config store's fixed on-disk
// names under a caller-supplied metadata directory (spec.md §6).
const (
	PrimaryFilename = "hoodie.properties"
	BackupFilename  = "hoodie.properties.backup"
)

// Paths returns the primary and backup file paths for a metadata directory.
func Paths(dir string) (primary, backup string) {
	return filepath.Join(dir, PrimaryFilename), filepath.Join(dir, BackupFilename)
}

// candidate is one of {primary, backup}'s observed state.
type candidate struct {
	exists bool
	valid  bool
}

func inspect(ctx context.Context, io FileIO, path string) candidate {
	if !io.Exists(ctx, path) {
		return candidate{}
	}
	data, err := io.Read(ctx, path)
	if err != nil {
		// Treat a read failure as present-but-invalid: the subsequent decode
		// attempt on the read path will surface the concrete error.
		return candidate{exists: true}
	}
	_, err = Decode(data)
	return candidate{exists: true, valid: err == nil}
}

// RecoverIfNeeded implements the Recovery Protocol's decision table
// (SPEC_FULL.md §5.3, spec.md §4.3): it reconciles {primary, backup} into
// the invariant "primary valid, no backup", or leaves the pair untouched
// when neither file is recoverable (the subsequent read will fail).
// RecoverIfNeeded never itself returns InvalidConfig — that is the read
// path's job once it attempts to decode what recovery left behind.
func RecoverIfNeeded(ctx context.Context, io FileIO, dir string) error {
	primary, backup := Paths(dir)
	p := inspect(ctx, io, primary)
	b := inspect(ctx, io, backup)

	switch {
	case p.valid && !b.exists:
		// Healthy: nothing to do.
		return nil
	case p.valid && b.exists:
		// Stale backup left over from a completed update: drop it.
		return io.Remove(ctx, backup)
	case !p.valid && b.valid:
		// A valid backup dominates an invalid or absent primary: it is the
		// write-ahead image of a swap that reached durable storage before
		// the final rename completed.
		if p.exists {
			if err := io.Remove(ctx, primary); err != nil {
				return err
			}
		}
		return io.Rename(ctx, backup, primary)
	default:
		// {invalid primary, invalid/absent backup} or {absent primary, absent backup}:
		// not recoverable here. Leave state as-is; the read path's decode
		// attempt raises InvalidConfig or NotFound as appropriate.
		return nil
	}
}
