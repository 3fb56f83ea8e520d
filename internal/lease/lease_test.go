package lease

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedcode/tableconfig/cache"
)

func TestAcquire_NilCacheAlwaysSucceeds(t *testing.T) {
	l, ok, err := Acquire(context.Background(), nil, "/tmp/M")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, l.Release(context.Background()))
}

func TestAcquire_SecondWriterIsRejected(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()

	l1, ok, err := Acquire(ctx, c, "/tmp/M")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = Acquire(ctx, c, "/tmp/M")
	require.NoError(t, err)
	assert.False(t, ok, "a second writer must not acquire the same directory's lease")

	require.NoError(t, l1.Release(ctx))

	_, ok, err = Acquire(ctx, c, "/tmp/M")
	require.NoError(t, err)
	assert.True(t, ok, "releasing the lease must let a new writer acquire it")
}

func TestRelease_OnlyOwnerClearsTheLease(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()

	_, ok, err := Acquire(ctx, c, "/tmp/M")
	require.NoError(t, err)
	require.True(t, ok)

	// A zero-value lease (e.g. from a rejected Acquire) must not be able to
	// release someone else's lease.
	var stale Lease
	require.NoError(t, stale.Release(ctx))

	_, ok, err = Acquire(ctx, c, "/tmp/M")
	require.NoError(t, err)
	assert.False(t, ok)
}
