package cache

import (
	"context"
	"sort"
	"strings"
	"time"
)

// SnapshotTTL is how long a loaded TableConfig snapshot stays cached before
// a fresh filesystem read is forced, matching the teacher's StoreInfo cache
// duration pattern (store.CacheConfig.StoreInfoCacheDuration) scaled down
// for a much smaller, more volatile artifact.
const SnapshotTTL = 5 * time.Minute

func snapshotKey(dir string) string {
	return "tableconfig-snapshot:" + dir
}

// snapshotEscaper and snapshotUnescaper backslash-escape backslashes and
// newlines in values so every value survives a cache round trip.
var (
	snapshotEscaper   = strings.NewReplacer(`\`, `\\`, "\n", `\n`)
	snapshotUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n")
)

// encodeSnapshot serializes an ordered map deterministically so repeated
// encodes of the same map produce identical cache values.
func encodeSnapshot(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(snapshotEscaper.Replace(m[k]))
		b.WriteByte('\n')
	}
	return b.String()
}

func decodeSnapshot(s string) map[string]string {
	m := make(map[string]string)
	for _, line := range strings.Split(s, "\n") {
		if line == "" {
			continue
		}
		i := strings.IndexByte(line, '=')
		if i < 0 {
			continue
		}
		m[line[:i]] = snapshotUnescaper.Replace(line[i+1:])
	}
	return m
}

// LoadSnapshot returns the cached config for dir, if present and unexpired.
// A nil Cache or a cache-backend error both report a clean miss: the caller
// falls through to the filesystem read path either way.
func LoadSnapshot(ctx context.Context, c Cache, dir string) (map[string]string, bool) {
	if c == nil {
		return nil, false
	}
	s, found, err := c.Get(ctx, snapshotKey(dir))
	if err != nil || !found {
		return nil, false
	}
	return decodeSnapshot(s), true
}

// StoreSnapshot caches cfg for dir. Errors are intentionally swallowed by
// the caller (see tableconfig.go) since the cache is an optimization only.
func StoreSnapshot(ctx context.Context, c Cache, dir string, cfg map[string]string) error {
	if c == nil {
		return nil
	}
	return c.Set(ctx, snapshotKey(dir), encodeSnapshot(cfg), SnapshotTTL)
}

// InvalidateSnapshot drops any cached snapshot for dir. Called after every
// successful update/delete-keys so the next Load re-reads the filesystem.
func InvalidateSnapshot(ctx context.Context, c Cache, dir string) error {
	if c == nil {
		return nil
	}
	return c.Delete(ctx, snapshotKey(dir))
}
