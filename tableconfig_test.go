package tableconfig

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedcode/tableconfig/cache"
	"github.com/sharedcode/tableconfig/fs"
)

func TestCreateThenLoadHasSixEntries(t *testing.T) {
	ctx := context.Background()
	store := New(fs.NewLocalFileIO())
	dir := t.TempDir()

	require.NoError(t, store.Create(ctx, dir, map[string]string{fs.KeyName: "orders"}))
	cfg, err := store.Load(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Size())
	assert.Equal(t, "orders", cfg.Name())
}

func TestUpdateAddsKeySizeBecomesSeven(t *testing.T) {
	ctx := context.Background()
	store := New(fs.NewLocalFileIO())
	dir := t.TempDir()

	require.NoError(t, store.Create(ctx, dir, nil))
	require.NoError(t, store.Update(ctx, dir, map[string]string{"owner": "team-x"}))

	cfg, err := store.Load(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Size())
	v, ok := cfg.Get("owner")
	assert.True(t, ok)
	assert.Equal(t, "team-x", v)
}

// TestUpdateScenario2AddsPrecombineField is spec.md §8 scenario 2, verbatim:
// starting from scenario 1 (create{name}, size 6), update(name,
// precombine_field) must grow size to 7, since precombine_field is reserved
// but not seeded by Create.
func TestUpdateScenario2AddsPrecombineField(t *testing.T) {
	ctx := context.Background()
	store := New(fs.NewLocalFileIO())
	dir := t.TempDir()

	require.NoError(t, store.Create(ctx, dir, map[string]string{fs.KeyName: "test-table"}))
	cfg, err := store.Load(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, 6, cfg.Size())

	require.NoError(t, store.Update(ctx, dir, map[string]string{
		fs.KeyName:            "test-table2",
		fs.KeyPrecombineField: "new_field",
	}))

	cfg, err = store.Load(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Size())
	assert.Equal(t, "test-table2", cfg.Name())
	assert.Equal(t, "new_field", cfg.PrecombineField())
}

// TestDeleteKeysScenario3 is spec.md §8 scenario 3, verbatim: starting from
// scenario 1, deleting {archivelog_folder, "hoodie.invalid.config"} shrinks
// size to 5, drops archivelog_folder, and silently ignores the unknown key.
func TestDeleteKeysScenario3(t *testing.T) {
	ctx := context.Background()
	store := New(fs.NewLocalFileIO())
	dir := t.TempDir()

	require.NoError(t, store.Create(ctx, dir, nil))
	require.NoError(t, store.DeleteKeys(ctx, dir, []string{fs.KeyArchivelogFolder, "hoodie.invalid.config"}))

	cfg, err := store.Load(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Size())
	_, present := cfg.Get(fs.KeyArchivelogFolder)
	assert.False(t, present)
}

func TestLoadEmptyDirIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := New(fs.NewLocalFileIO())
	dir := t.TempDir()

	_, err := store.Load(ctx, dir)
	require.Error(t, err)
	assert.True(t, HasCode(err, NotFound))
}

func TestTableTypeDefaultsToCopyOnWrite(t *testing.T) {
	ctx := context.Background()
	store := New(fs.NewLocalFileIO())
	dir := t.TempDir()
	require.NoError(t, store.Create(ctx, dir, nil))

	cfg, err := store.Load(ctx, dir)
	require.NoError(t, err)
	tt, err := cfg.TableType()
	require.NoError(t, err)
	assert.Equal(t, CopyOnWrite, tt)
}

func TestTableTypeInvalidValueIsInvalidConfig(t *testing.T) {
	ctx := context.Background()
	store := New(fs.NewLocalFileIO())
	dir := t.TempDir()
	require.NoError(t, store.Create(ctx, dir, map[string]string{fs.KeyTableType: "garbage"}))

	cfg, err := store.Load(ctx, dir)
	require.NoError(t, err)
	_, err = cfg.TableType()
	require.Error(t, err)
	assert.True(t, HasCode(err, InvalidConfig))
}

func TestPartitionFieldsSplitsOnComma(t *testing.T) {
	ctx := context.Background()
	store := New(fs.NewLocalFileIO())
	dir := t.TempDir()
	require.NoError(t, store.Create(ctx, dir, map[string]string{fs.KeyPartitionFields: "region,day"}))

	cfg, err := store.Load(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "day"}, cfg.PartitionFields())
}

// TestConcurrentUpdatesAndLoadsStaySafe drives P5: many goroutines update
// disjoint keys while many others load concurrently; every load must
// succeed with a structurally valid config (at least the six entries Create
// wrote), and the final state must still load. Updates rejected by the
// advisory writer lease are ignored, so not every writer's key is expected
// in the final state.
func TestConcurrentUpdatesAndLoadsStaySafe(t *testing.T) {
	ctx := context.Background()
	store := New(fs.NewLocalFileIO(), WithCache(cache.NewMemoryCache()))
	dir := t.TempDir()
	require.NoError(t, store.Create(ctx, dir, nil))

	const n = 100
	var wg sync.WaitGroup
	wg.Add(2 * n)

	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			key := "k" + string(rune('a'+i%26)) + string(rune('0'+i/26))
			_ = store.Update(ctx, dir, map[string]string{key: "v"})
		}(i)
	}
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			cfg, err := store.Load(ctx, dir)
			assert.NoError(t, err)
			if cfg != nil {
				assert.GreaterOrEqual(t, cfg.Size(), 6)
			}
		}()
	}
	wg.Wait()

	cfg, err := store.Load(ctx, dir)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cfg.Size(), 6)
}
