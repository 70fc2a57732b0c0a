package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrison/archivist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry(rel string) Entry {
	return Entry{
		RelPath:   rel,
		SizeBytes: 2048,
		ModTime:   time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		Status:    models.StatusScanned,
		Facts: &models.FactsResult{
			Summary:    "Electricity bill for March",
			YearHint:   "2022",
			Confidence: 0.85,
			Method:     "pdf-text",
		},
		Timings: models.Timings{ExtractSecs: 0.4, LLMSecs: 2.1},
	}
}

func loadedStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(t.TempDir())
	require.NoError(t, store.Load())
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := loadedStore(t)
	entry := testEntry("docs/bill.pdf")
	require.NoError(t, store.Put(entry))

	got, ok := store.Get(entry.Identity())
	require.True(t, ok)
	assert.Equal(t, entry, got)
}

func TestRoundTripThroughDisk(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)
	require.NoError(t, store.Load())
	entry := testEntry("docs/bill.pdf")
	require.NoError(t, store.Put(entry))

	reloaded := NewStore(root)
	require.NoError(t, reloaded.Load())
	got, ok := reloaded.Get(entry.Identity())
	require.True(t, ok)
	assert.Equal(t, entry.Status, got.Status)
	require.NotNil(t, got.Facts)
	assert.Equal(t, entry.Facts.Summary, got.Facts.Summary)
	assert.Equal(t, entry.Timings, got.Timings)
	assert.True(t, got.ModTime.Equal(entry.ModTime))
}

func TestIdentityChangeForcesMiss(t *testing.T) {
	store := loadedStore(t)
	entry := testEntry("docs/bill.pdf")
	require.NoError(t, store.Put(entry))

	t.Run("size change", func(t *testing.T) {
		id := entry.Identity()
		id.SizeBytes++
		_, ok := store.Get(id)
		assert.False(t, ok)
	})

	t.Run("mtime change", func(t *testing.T) {
		id := entry.Identity()
		id.ModTime = id.ModTime.Add(time.Nanosecond)
		_, ok := store.Get(id)
		assert.False(t, ok)
	})
}

func TestPutOverwritesStaleIdentity(t *testing.T) {
	store := loadedStore(t)
	old := testEntry("docs/bill.pdf")
	require.NoError(t, store.Put(old))

	// Same path, new size/mtime: the old identity becomes orphaned.
	updated := testEntry("docs/bill.pdf")
	updated.SizeBytes = 4096
	updated.ModTime = updated.ModTime.Add(time.Hour)
	require.NoError(t, store.Put(updated))

	_, ok := store.Get(old.Identity())
	assert.False(t, ok, "old identity should be orphaned")
	got, ok := store.Get(updated.Identity())
	require.True(t, ok)
	assert.Equal(t, int64(4096), got.SizeBytes)
}

func TestPutRejectsTransientStatus(t *testing.T) {
	store := loadedStore(t)
	entry := testEntry("docs/bill.pdf")
	entry.Status = models.StatusScanning

	err := store.Put(entry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transient")
}

func TestInvalidateAndClear(t *testing.T) {
	store := loadedStore(t)
	a := testEntry("a.pdf")
	b := testEntry("b.pdf")
	require.NoError(t, store.Put(a))
	require.NoError(t, store.Put(b))

	require.NoError(t, store.Invalidate("a.pdf"))
	_, ok := store.Get(a.Identity())
	assert.False(t, ok)
	_, ok = store.Get(b.Identity())
	assert.True(t, ok)

	require.NoError(t, store.Clear())
	assert.Empty(t, store.Entries())
}

func TestLoadDropsCorruptEntriesIndividually(t *testing.T) {
	root := t.TempDir()
	cachePath := filepath.Join(root, DirName, "cache.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(cachePath), 0755))

	content := `{
		"good.pdf": {"rel_path": "good.pdf", "size_bytes": 10, "mod_time": "2024-05-01T09:00:00Z", "status": "scanned"},
		"bad.pdf": "not an object",
		"unknown-status.pdf": {"rel_path": "unknown-status.pdf", "size_bytes": 10, "mod_time": "2024-05-01T09:00:00Z", "status": "weird"},
		"transient.pdf": {"rel_path": "transient.pdf", "size_bytes": 10, "mod_time": "2024-05-01T09:00:00Z", "status": "scanning"}
	}`
	require.NoError(t, os.WriteFile(cachePath, []byte(content), 0644))

	store := NewStore(root)
	require.NoError(t, store.Load())

	entries := store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "good.pdf", entries[0].RelPath)
}

func TestLoadToleratesUnknownFields(t *testing.T) {
	root := t.TempDir()
	cachePath := filepath.Join(root, DirName, "cache.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(cachePath), 0755))

	// A field from a future schema version must not prevent loading.
	content := `{
		"future.pdf": {"rel_path": "future.pdf", "size_bytes": 10, "mod_time": "2024-05-01T09:00:00Z", "status": "classified", "hologram_index": 42}
	}`
	require.NoError(t, os.WriteFile(cachePath, []byte(content), 0644))

	store := NewStore(root)
	require.NoError(t, store.Load())

	entry, ok := store.Lookup("future.pdf")
	require.True(t, ok)
	assert.Equal(t, models.StatusClassified, entry.Status)
}

func TestLoadMissingFileYieldsEmptyCache(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Load())
	assert.Empty(t, store.Entries())
}

func TestLoadWhollyCorruptFileStartsOver(t *testing.T) {
	root := t.TempDir()
	cachePath := filepath.Join(root, DirName, "cache.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(cachePath), 0755))
	require.NoError(t, os.WriteFile(cachePath, []byte("{{{{"), 0644))

	store := NewStore(root)
	require.NoError(t, store.Load())
	assert.Empty(t, store.Entries())
}

func TestFromItemAndApply(t *testing.T) {
	identity := models.FileIdentity{RelPath: "a.pdf", SizeBytes: 100, ModTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	it := models.NewItem(identity, "pdf", "/src/a.pdf")
	require.NoError(t, it.BeginScan())
	require.NoError(t, it.CompleteScan(models.FactsResult{Summary: "s", YearHint: "2022", Confidence: 0.8}))
	it.Timings.ExtractSecs = 0.3

	entry := FromItem(it)
	assert.Equal(t, models.StatusScanned, entry.Status)
	require.NotNil(t, entry.Facts)

	fresh := models.NewItem(identity, "pdf", "/src/a.pdf")
	entry.Apply(fresh)
	assert.Equal(t, models.StatusScanned, fresh.Status)
	require.NotNil(t, fresh.Facts)
	assert.Equal(t, "s", fresh.Facts.Summary)
	assert.Equal(t, 0.3, fresh.Timings.ExtractSecs)

	// Apply copies, not aliases.
	entry.Facts.Summary = "mutated"
	assert.Equal(t, "s", fresh.Facts.Summary)
}

func TestEntriesSorted(t *testing.T) {
	store := loadedStore(t)
	for _, rel := range []string{"c.pdf", "a.pdf", "b.pdf"} {
		entry := testEntry(rel)
		require.NoError(t, store.Put(entry))
	}
	entries := store.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, []string{entries[0].RelPath, entries[1].RelPath, entries[2].RelPath})
}

func TestCacheFileIsValidJSON(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)
	require.NoError(t, store.Load())
	entry := testEntry("docs/bill.pdf")
	require.NoError(t, store.Put(entry))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "docs/bill.pdf")
}
