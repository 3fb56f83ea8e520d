// Package lease implements the optional, non-normative advisory writer
// lease described in SPEC_FULL.md §5.4: a best-effort guard, backed by the
// cache subpackage's Cache interface, that gives a second co-located writer
// a clear rejection instead of interleaving with an in-flight swap. The
// protocol's correctness (I1-I4) never depends on a lease being held; a nil
// Cache (no L2 cache configured) makes every lease acquisition succeed.
package lease

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sharedcode/tableconfig/cache"
)

// token is a thin wrapper over github.com/google/uuid.UUID, kept local so
// lease owners never need to import the external package directly.
type token uuid.UUID

func newToken() token {
	id, err := uuid.NewRandom()
	if err != nil {
		// UUID generation failure is effectively unreachable (crypto/rand
		// failure); fall back to the nil token, which simply never matches.
		return token{}
	}
	return token(id)
}

func (t token) String() string {
	return uuid.UUID(t).String()
}

func (t token) isNil() bool {
	var nilToken token
	return bytes.Equal(t[:], nilToken[:])
}

// Duration is the default TTL granted to an acquired lease. It bounds how
// long a crashed writer can block a subsequent writer without a clean
// release.
const Duration = 2 * time.Minute

// Lease is a held advisory lock on a directory. Release must be called by
// whichever goroutine acquired it; a zero-value Lease's Release is a no-op.
type Lease struct {
	cache cache.Cache
	key   string
	tok   token
	held  bool
}

func formatKey(dir string) string {
	return fmt.Sprintf("tableconfig-writer-lease:%s", dir)
}

// Acquire attempts to take the writer lease for dir. It returns (lease, true, nil)
// on success, (zero-lease, false, nil) if another writer currently holds it,
// and (zero-lease, false, err) on a cache-backend error. A nil cache always
// succeeds, since the lease is advisory only.
func Acquire(ctx context.Context, c cache.Cache, dir string) (Lease, bool, error) {
	if c == nil {
		return Lease{}, true, nil
	}
	key := formatKey(dir)
	tok := newToken()

	ok, err := c.SetIfAbsent(ctx, key, tok.String(), Duration)
	if err != nil {
		return Lease{}, false, err
	}
	if !ok {
		return Lease{}, false, nil
	}
	return Lease{cache: c, key: key, tok: tok, held: true}, true, nil
}

// Release drops the lease if it is currently held by this token. Safe to
// call multiple times and on a zero-value Lease.
func (l Lease) Release(ctx context.Context) error {
	if !l.held || l.cache == nil || l.tok.isNil() {
		return nil
	}
	return l.cache.DeleteIfMatch(ctx, l.key, l.tok.String())
}
