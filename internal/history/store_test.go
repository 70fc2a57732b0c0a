package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := &BatchRun{
		BatchID:   "b1",
		Operation: "scan",
		StartedAt: time.Now().UTC(),
		Duration:  3500 * time.Millisecond,
		Total:     10,
		Succeeded: 6,
		Skipped:   2,
		Errored:   1,
		Cached:    1,
	}
	require.NoError(t, store.RecordRun(ctx, run))
	assert.NotZero(t, run.ID)

	runs, err := store.RecentRuns(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, "b1", got.BatchID)
	assert.Equal(t, "scan", got.Operation)
	assert.Equal(t, 10, got.Total)
	assert.Equal(t, 6, got.Succeeded)
	assert.Equal(t, 2, got.Skipped)
	assert.Equal(t, 1, got.Errored)
	assert.Equal(t, 1, got.Cached)
	assert.InDelta(t, 3.5, got.Duration.Seconds(), 0.01)
}

func TestRecentRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, op := range []string{"scan", "classify", "scan", "move"} {
		require.NoError(t, store.RecordRun(ctx, &BatchRun{
			BatchID:   "b",
			Operation: op,
			StartedAt: time.Now().UTC(),
			Total:     i + 1,
		}))
	}

	t.Run("most recent first", func(t *testing.T) {
		runs, err := store.RecentRuns(ctx, "", 10)
		require.NoError(t, err)
		require.Len(t, runs, 4)
		assert.Equal(t, "move", runs[0].Operation)
		assert.Equal(t, "scan", runs[3].Operation)
	})

	t.Run("operation filter", func(t *testing.T) {
		runs, err := store.RecentRuns(ctx, "scan", 10)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		for _, r := range runs {
			assert.Equal(t, "scan", r.Operation)
		}
	})

	t.Run("limit applies", func(t *testing.T) {
		runs, err := store.RecentRuns(ctx, "", 2)
		require.NoError(t, err)
		assert.Len(t, runs, 2)
	})

	t.Run("empty database", func(t *testing.T) {
		empty := newTestStore(t)
		runs, err := empty.RecentRuns(ctx, "", 10)
		require.NoError(t, err)
		assert.Empty(t, runs)
	})
}

func TestStoreReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.RecordRun(ctx, &BatchRun{BatchID: "b1", Operation: "scan", StartedAt: time.Now().UTC()}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	runs, err := reopened.RecentRuns(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
