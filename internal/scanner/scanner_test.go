package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harrison/archivist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root string, rel string, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func relPaths(items []*models.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Identity.RelPath
	}
	return out
}

func TestKindForPath(t *testing.T) {
	cases := map[string]string{
		"report.pdf":   "pdf",
		"photo.JPG":    "image",
		"notes.md":     "md",
		"data.csv":     "txt",
		"readme.txt":   "txt",
		"sheet.xlsx":   "xlsx",
		"letter.docx":  "office",
		"old.doc":      "office",
		"garbage.bin":  KindUnsupported,
		"noextension":  KindUnsupported,
	}
	for path, want := range cases {
		assert.Equal(t, want, KindForPath(path), path)
	}
}

func TestDiscoverFlat(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "report.pdf", "pdf bytes")
	writeFile(t, root, "photo.jpg", "jpg bytes")
	writeFile(t, root, "garbage.bin", "binary")
	writeFile(t, root, "nested/inner.pdf", "pdf bytes")

	items, err := Discover(context.Background(), root, Options{Recursive: false})
	require.NoError(t, err)

	assert.Equal(t, []string{"garbage.bin", "photo.jpg", "report.pdf"}, relPaths(items))
	for _, it := range items {
		assert.Equal(t, models.StatusPending, it.Status)
		assert.NotZero(t, it.Identity.SizeBytes)
		assert.False(t, it.Identity.ModTime.IsZero())
	}
}

func TestDiscoverRecursive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.pdf", "x")
	writeFile(t, root, "sub/b.pdf", "x")
	writeFile(t, root, "sub/deeper/c.txt", "x")

	items, err := Discover(context.Background(), root, Options{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "sub/b.pdf", "sub/deeper/c.txt"}, relPaths(items))
}

func TestDiscoverSkipsMetadataAndHidden(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.pdf", "x")
	writeFile(t, root, ".archivist/cache.json", "{}")
	writeFile(t, root, ".hiddenfile", "x")
	writeFile(t, root, ".hiddendir/b.pdf", "x")

	items, err := Discover(context.Background(), root, Options{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, relPaths(items))
}

func TestDiscoverExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.pdf", "x")
	writeFile(t, root, "node_modules/junk.txt", "x")

	items, err := Discover(context.Background(), root, Options{
		Recursive:       true,
		ExcludeDirNames: []string{"node_modules"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, relPaths(items))
}

func TestDiscoverIncludeExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.pdf", "x")
	writeFile(t, root, "b.txt", "x")
	writeFile(t, root, "c.bin", "x")

	items, err := Discover(context.Background(), root, Options{
		IncludeExtensions: []string{"pdf", ".txt"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.txt"}, relPaths(items))
}

func TestDiscoverUnsupportedFilesAreKept(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "garbage.bin", "x")

	items, err := Discover(context.Background(), root, Options{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	// Unsupported files are discovered so the scan phase can record an
	// explicit skip instead of hiding them.
	assert.Equal(t, KindUnsupported, items[0].Kind)
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := Discover(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{})
	assert.Error(t, err)
}

func TestDiscoverRootIsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.pdf", "x")
	_, err := Discover(context.Background(), filepath.Join(root, "a.pdf"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestDiscoverCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.pdf", "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Discover(ctx, root, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
