// Package scanner discovers archivable files under a source root and builds
// their identities. Discovery is cheap and side-effect free: every regular
// file becomes a pending item, including unsupported kinds, which the scan
// phase later records as skipped rather than silently hiding them.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harrison/archivist/internal/cache"
	"github.com/harrison/archivist/internal/models"
)

// Options controls the discovery walk.
type Options struct {
	// Recursive walks subdirectories when true; otherwise only the root's
	// immediate files are considered.
	Recursive bool

	// IncludeExtensions restricts discovery to the given extensions (without
	// dot, case-insensitive). Empty means every file is discovered.
	IncludeExtensions []string

	// ExcludeDirNames are directory basenames skipped during a recursive
	// walk. The per-root metadata directory is always excluded.
	ExcludeDirNames []string
}

// KindUnsupported marks files no extractor can handle.
const KindUnsupported = "unsupported"

// KindForPath maps a filename to the extraction kind handled by the
// extraction registry.
func KindForPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "pdf":
		return "pdf"
	case "jpg", "jpeg", "png":
		return "image"
	case "md", "markdown":
		return "md"
	case "txt", "text", "log", "csv", "json", "yaml", "yml":
		return "txt"
	case "xlsx":
		return "xlsx"
	case "doc", "docx", "odt", "rtf":
		return "office"
	}
	return KindUnsupported
}

// Discover walks sourceRoot and returns one pending item per discovered
// file, sorted by relative path. A missing or non-directory root is a fatal
// setup error. The walk observes ctx between directory entries.
func Discover(ctx context.Context, sourceRoot string, opts Options) ([]*models.Item, error) {
	info, err := os.Stat(sourceRoot)
	if err != nil {
		return nil, fmt.Errorf("source root %s: %w", sourceRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source root %s is not a directory", sourceRoot)
	}

	include := make(map[string]bool, len(opts.IncludeExtensions))
	for _, ext := range opts.IncludeExtensions {
		include[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	exclude := make(map[string]bool, len(opts.ExcludeDirNames)+1)
	for _, name := range opts.ExcludeDirNames {
		exclude[name] = true
	}
	exclude[cache.DirName] = true

	var items []*models.Item

	walkFn := func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			// Unreadable subtree: skip it, discovery stays best-effort.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path == sourceRoot {
				return nil
			}
			if exclude[d.Name()] || strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			if !opts.Recursive {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(d.Name()), "."))
		if len(include) > 0 && !include[ext] {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			// File vanished between listing and stat.
			return nil
		}
		rel, err := filepath.Rel(sourceRoot, path)
		if err != nil {
			return nil
		}
		identity := models.FileIdentity{
			RelPath:   filepath.ToSlash(rel),
			SizeBytes: fi.Size(),
			ModTime:   fi.ModTime(),
		}
		items = append(items, models.NewItem(identity, KindForPath(path), path))
		return nil
	}

	if err := filepath.WalkDir(sourceRoot, walkFn); err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Identity.RelPath < items[j].Identity.RelPath
	})
	return items, nil
}
