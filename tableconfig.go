package tableconfig

import (
	"context"
	log "log/slog"
	"strings"

	"github.com/sharedcode/tableconfig/cache"
	"github.com/sharedcode/tableconfig/fs"
	"github.com/sharedcode/tableconfig/internal/errs"
	"github.com/sharedcode/tableconfig/internal/lease"
)

// TableType enumerates the table's storage layout, drawn from the
// reserved table_type entry (SPEC_FULL.md §4).
type TableType int

const (
	// CopyOnWrite stores every update as a full new file version.
	CopyOnWrite TableType = iota
	// MergeOnRead batches updates into a log applied at read/compaction time.
	MergeOnRead
)

func (t TableType) String() string {
	switch t {
	case CopyOnWrite:
		return "COPY_ON_WRITE"
	case MergeOnRead:
		return "MERGE_ON_READ"
	default:
		return "UNKNOWN"
	}
}

func parseTableType(s string) (TableType, error) {
	switch s {
	case "", "COPY_ON_WRITE":
		return CopyOnWrite, nil
	case "MERGE_ON_READ":
		return MergeOnRead, nil
	default:
		return CopyOnWrite, errs.Error{Code: errs.InvalidConfig, Err: errUnknownTableType(s)}
	}
}

type errUnknownTableType string

func (e errUnknownTableType) Error() string { return "unknown table_type: " + string(e) }

// Store is a durable, crash-consistent property-file store for one or more
// tables' configuration. It wraps a fs.FileIO backend with an optional L2
// snapshot cache and an optional advisory writer lease (SPEC_FULL.md §5.5);
// both are purely latency/UX optimizations — a Store with neither configured
// still satisfies every correctness property (P1-P5) on its own.
type Store struct {
	io    fs.FileIO
	cache cache.Cache
}

// Option configures a Store.
type Option func(*Store)

// WithCache attaches an L2 cache used for snapshotting Load results and for
// the optional advisory writer lease. Passing nil (the default) disables
// both; the store still works, every Load simply reads the backend directly.
func WithCache(c cache.Cache) Option {
	return func(s *Store) { s.cache = c }
}

// New returns a Store backed by io (typically fs.NewLocalFileIO() or an
// fs/s3backend.Backend).
func New(io fs.FileIO, opts ...Option) *Store {
	s := &Store{io: io}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config is an immutable snapshot of a table's property file at the moment
// it was loaded.
type Config struct {
	entries map[string]string
}

func newConfig(entries map[string]string) *Config {
	return &Config{entries: entries}
}

// Get returns the raw value for key and whether it was present.
func (c *Config) Get(key string) (string, bool) {
	v, ok := c.entries[key]
	return v, ok
}

// Size returns the number of entries, including the checksum key.
func (c *Config) Size() int {
	return len(c.entries) + 1
}

// Name returns the reserved "name" entry.
func (c *Config) Name() string { return c.entries[fs.KeyName] }

// PrecombineField returns the reserved "precombine_field" entry.
func (c *Config) PrecombineField() string { return c.entries[fs.KeyPrecombineField] }

// ArchivelogFolder returns the reserved "archivelog_folder" entry.
func (c *Config) ArchivelogFolder() string { return c.entries[fs.KeyArchivelogFolder] }

// TableType parses the reserved "table_type" entry, failing with
// InvalidConfig if it holds a value outside the known enum.
func (c *Config) TableType() (TableType, error) {
	return parseTableType(c.entries[fs.KeyTableType])
}

// PartitionFields splits the reserved "partition_fields" entry on commas,
// returning nil for an empty value.
func (c *Config) PartitionFields() []string {
	v := c.entries[fs.KeyPartitionFields]
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

// Create initializes a new table's property file under dir, seeding the
// reserved default keys plus props. It fails with AlreadyExists if dir
// already holds a valid config.
func (s *Store) Create(ctx context.Context, dir string, props map[string]string) error {
	if err := fs.Create(ctx, s.io, dir, props); err != nil {
		return err
	}
	return cache.InvalidateSnapshot(ctx, s.cache, dir)
}

// Load reads dir's current config, running the Recovery Protocol first and
// consulting the L2 snapshot cache (if configured) before touching the
// backend. The read path tolerates racing an in-flight Update/DeleteKeys by
// retrying internally via fs's bounded-retry primitives; a caller never
// needs to retry Load itself.
func (s *Store) Load(ctx context.Context, dir string) (*Config, error) {
	if entries, ok := cache.LoadSnapshot(ctx, s.cache, dir); ok {
		return newConfig(entries), nil
	}

	entries, err := fs.Load(ctx, s.io, dir)
	if err != nil {
		return nil, err
	}
	if err := cache.StoreSnapshot(ctx, s.cache, dir, entries); err != nil {
		log.Debug("snapshot cache store failed, continuing uncached", "dir", dir, "error", err)
	}
	return newConfig(entries), nil
}

// Update merges delta into dir's stored entries via the swap protocol. If an
// L2 cache is configured, Update first attempts the optional advisory writer
// lease so a concurrent local writer gets an immediate rejection rather
// than racing the swap; failure to acquire the lease is
// reported as IoError, since the swap protocol itself is what actually
// guarantees correctness, not the lease.
func (s *Store) Update(ctx context.Context, dir string, delta map[string]string) error {
	l, ok, err := lease.Acquire(ctx, s.cache, dir)
	if err != nil {
		return errs.Error{Code: errs.IoError, Err: err}
	}
	if !ok {
		return errs.Error{Code: errs.IoError, Err: errLeaseHeld(dir)}
	}
	defer func() {
		if rerr := l.Release(ctx); rerr != nil {
			log.Debug("writer lease release failed", "dir", dir, "error", rerr)
		}
	}()

	if err := fs.Update(ctx, s.io, dir, delta); err != nil {
		return err
	}
	return cache.InvalidateSnapshot(ctx, s.cache, dir)
}

type errLeaseHeld string

func (e errLeaseHeld) Error() string {
	return "writer lease for " + string(e) + " is currently held by another writer"
}

// DeleteKeys removes keys from dir's stored entries via the swap protocol.
// Unknown keys are silently ignored. Guarded by the same advisory lease as
// Update.
func (s *Store) DeleteKeys(ctx context.Context, dir string, keys []string) error {
	l, ok, err := lease.Acquire(ctx, s.cache, dir)
	if err != nil {
		return errs.Error{Code: errs.IoError, Err: err}
	}
	if !ok {
		return errs.Error{Code: errs.IoError, Err: errLeaseHeld(dir)}
	}
	defer func() {
		if rerr := l.Release(ctx); rerr != nil {
			log.Debug("writer lease release failed", "dir", dir, "error", rerr)
		}
	}()

	if err := fs.DeleteKeys(ctx, s.io, dir, keys); err != nil {
		return err
	}
	return cache.InvalidateSnapshot(ctx, s.cache, dir)
}

// RecoverIfNeeded runs the Recovery Protocol against dir without performing
// a Load, for callers (e.g. a startup health check) that want to repair
// on-disk state eagerly rather than lazily on next access.
func (s *Store) RecoverIfNeeded(ctx context.Context, dir string) error {
	return fs.RecoverIfNeeded(ctx, s.io, dir)
}
