package fs

import (
	"context"
	log "log/slog"

	"github.com/sharedcode/tableconfig/internal/errs"
	"github.com/sharedcode/tableconfig/internal/retry"
)

// Reserved keys every table's property file carries from Create onward
// (SPEC_FULL.md §4, resolving spec.md's "6 default properties" Open Question).
// precombine_field is reserved but deliberately NOT one of the injected
// defaults below: spec.md scenario 2 adds it via Update and expects the
// entry count to grow from 6 to 7, which only holds if Create didn't
// already seed it.
const (
	KeyName             = "name"
	KeyPrecombineField  = "precombine_field"
	KeyArchivelogFolder = "archivelog_folder"
	KeyTableType        = "table_type"
	KeyPartitionFields  = "partition_fields"
	KeyPayloadClass     = "payload_class"
)

// defaultKeys lists the reserved keys (besides checksum) Create always
// populates: name plus four others, matching spec.md scenario 1's
// "name + 4 defaults injected by facade + checksum" == 6 entries.
var defaultKeys = []string{KeyName, KeyArchivelogFolder, KeyTableType, KeyPartitionFields, KeyPayloadClass}

// Load runs the Recovery Protocol and decodes the primary file, retrying the
// whole recovery-then-decode sequence a bounded number of times (via
// internal/retry.Do) before giving up and returning whatever error the last
// attempt produced. This is the spec's mandatory read-path liveness
// guarantee (spec.md §5, §7): a reader racing a writer mid-swap can land on
// a torn primary — no FS-level error, just a failing checksum — that a
// moment later, once the writer's swap completes or RecoverIfNeeded
// restores the backup, decodes cleanly. Without this loop that transient
// decode failure would surface as a permanent InvalidConfig instead of the
// successful read the spec requires (P5, scenario 7: "zero read failures").
func Load(ctx context.Context, io FileIO, dir string) (map[string]string, error) {
	var entries map[string]string
	err := retry.Do(ctx, func(ctx context.Context) error {
		if rerr := RecoverIfNeeded(ctx, io, dir); rerr != nil {
			return errs.Error{Code: errs.IoError, Err: rerr}
		}
		primary, backup := Paths(dir)
		if !io.Exists(ctx, primary) {
			if io.Exists(ctx, backup) {
				// Recovery restores a valid backup, so one still here did not
				// validate (or a writer has just staged it; the retry covers that).
				return errs.Error{Code: errs.InvalidConfig, Err: errBackupInvalid}
			}
			return errs.Error{Code: errs.NotFound, Err: errPrimaryMissing}
		}
		data, rerr := io.Read(ctx, primary)
		if rerr != nil {
			return errs.Error{Code: errs.IoError, Err: rerr}
		}
		decoded, rerr := Decode(data)
		if rerr != nil {
			return rerr
		}
		entries = decoded
		return nil
	}, func(context.Context) {
		log.Debug("load exhausted bounded read retries", "dir", dir)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

var errPrimaryMissing = errNotFound("primary property file does not exist")

var errBackupInvalid = errNotFound("primary property file does not exist and the backup is not valid")

type errNotFound string

func (e errNotFound) Error() string { return string(e) }

// Create initializes a new property file at dir, seeding the reserved
// default keys plus any caller-supplied props (props wins over a same-named
// default). It fails with AlreadyExists if a valid primary is already
// present.
func Create(ctx context.Context, io FileIO, dir string, props map[string]string) error {
	if err := RecoverIfNeeded(ctx, io, dir); err != nil {
		return errs.Error{Code: errs.IoError, Err: err}
	}
	primary, _ := Paths(dir)
	if io.Exists(ctx, primary) {
		if data, err := io.Read(ctx, primary); err == nil {
			if _, derr := Decode(data); derr == nil {
				return errs.Error{Code: errs.AlreadyExists, Err: errAlreadyExists}
			}
		}
	}

	entries := make(map[string]string, len(defaultKeys)+len(props))
	for _, k := range defaultKeys {
		entries[k] = ""
	}
	for k, v := range props {
		entries[k] = v
	}
	return writePrimary(ctx, io, primary, entries)
}

var errAlreadyExists = errNotFound("table config already exists")

// Update applies delta on top of the currently stored entries (merge-set:
// new keys added, existing keys overwritten) via the swap protocol:
// rename primary to backup, write the merged entries as the new primary,
// then remove the backup. A crash between any two of those three steps is
// reconciled by RecoverIfNeeded on the next access (spec.md §4.2/§4.3).
func Update(ctx context.Context, io FileIO, dir string, delta map[string]string) error {
	entries, err := Load(ctx, io, dir)
	if err != nil {
		return err
	}
	for k, v := range delta {
		entries[k] = v
	}
	return swap(ctx, io, dir, entries)
}

// DeleteKeys removes the given keys from the stored entries via the swap
// protocol. Keys not present are silently ignored (spec.md §4.2 edge case).
// Reserved keys may be deleted like any other; only checksum is immutable by
// callers, since Encode always recomputes it.
func DeleteKeys(ctx context.Context, io FileIO, dir string, keys []string) error {
	entries, err := Load(ctx, io, dir)
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(entries, k)
	}
	return swap(ctx, io, dir, entries)
}

// swap performs the rename-primary-to-backup / write-new-primary /
// delete-backup sequence that makes an update crash-consistent: at every
// point during the sequence, either the old primary, the backup holding the
// old primary's content, or the new primary is readable as valid.
func swap(ctx context.Context, io FileIO, dir string, entries map[string]string) error {
	primary, backup := Paths(dir)
	if io.Exists(ctx, primary) {
		if err := retry.IO(ctx, func(context.Context) error { return io.Rename(ctx, primary, backup) }); err != nil {
			return errs.Error{Code: errs.IoError, Err: err}
		}
	}
	if err := writePrimary(ctx, io, primary, entries); err != nil {
		return err
	}
	if err := retry.IO(ctx, func(context.Context) error { return io.Remove(ctx, backup) }); err != nil {
		return errs.Error{Code: errs.IoError, Err: err}
	}
	return nil
}

func writePrimary(ctx context.Context, io FileIO, primary string, entries map[string]string) error {
	data := Encode(entries)
	if err := retry.IO(ctx, func(context.Context) error { return io.Write(ctx, primary, data) }); err != nil {
		return errs.Error{Code: errs.IoError, Err: err}
	}
	return nil
}
