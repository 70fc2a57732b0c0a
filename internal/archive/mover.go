// Package archive performs the user-approved move of an item into the
// archive tree: destination computation, filename sanitization, collision
// resolution, the rename itself, and the append-only audit log. The commit
// order is fixed: rename, then log append, then archive cache write; the
// caller updates the source cache last.
package archive

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/archivist/internal/cache"
	"github.com/harrison/archivist/internal/filelock"
	"github.com/harrison/archivist/internal/models"
	"github.com/harrison/archivist/internal/taxonomy"
)

// MoveLogName is the audit log file under the archive metadata directory.
const MoveLogName = "moves.jsonl"

// SuffixMode selects how destination collisions are disambiguated.
type SuffixMode string

const (
	// SuffixNumeric appends -1, -2, ... before the extension.
	SuffixNumeric SuffixMode = "numeric"
	// SuffixHash appends a short content-derived hash before the extension.
	SuffixHash SuffixMode = "hash"
)

var yearFolder = regexp.MustCompile(`^\d{4}$`)

// Mover moves items into an archive root.
type Mover struct {
	ArchiveRoot  string
	ArchiveCache *cache.Store

	// UndatedLabel is the year-bucket folder used when no reference year is
	// known.
	UndatedLabel string
	// MaxNameLen caps sanitized filenames; zero uses DefaultMaxNameLen.
	MaxNameLen int
	// Suffix selects the collision disambiguator; empty means numeric.
	Suffix SuffixMode
}

// LogPath returns the audit log location under the archive root.
func (m *Mover) LogPath() string {
	return filepath.Join(m.ArchiveRoot, cache.DirName, MoveLogName)
}

// Destination computes the archive path for an item before collision
// resolution: {archive_root}/{category}/{year|undated}/{sanitized name}.
// Unclassified items land in the unknown category; the original filename is
// used unless a classification proposed one.
func (m *Mover) Destination(it *models.Item) string {
	category := taxonomy.UnknownCategory
	year := m.undated()
	name := filepath.Base(it.AbsPath)

	if c := it.Classification; c != nil {
		if c.Category != "" {
			category = c.Category
		}
		if yearFolder.MatchString(c.ReferenceYear) {
			year = c.ReferenceYear
		}
		if it.Status == models.StatusClassified && c.ProposedName != "" {
			name = EnsureExtension(c.ProposedName, name)
		}
	} else if it.Facts != nil && yearFolder.MatchString(it.Facts.YearHint) {
		year = it.Facts.YearHint
	}

	category = sanitizeComponent(category, taxonomy.UnknownCategory)
	year = sanitizeComponent(year, m.undated())
	name = SanitizeName(name, m.MaxNameLen)

	return filepath.Join(m.ArchiveRoot, category, year, name)
}

func (m *Mover) undated() string {
	if m.UndatedLabel == "" {
		return "undated"
	}
	return m.UndatedLabel
}

// resolveCollision finds a free path by appending a deterministic
// disambiguator to the stem. The destination is never silently overwritten.
func (m *Mover) resolveCollision(dest, sourcePath string) (string, error) {
	if _, err := os.Lstat(dest); os.IsNotExist(err) {
		return dest, nil
	}

	ext := filepath.Ext(dest)
	stem := dest[:len(dest)-len(ext)]

	if m.Suffix == SuffixHash {
		suffix, err := contentSuffix(sourcePath)
		if err != nil {
			return "", err
		}
		cand := fmt.Sprintf("%s-%s%s", stem, suffix, ext)
		if _, err := os.Lstat(cand); os.IsNotExist(err) {
			return cand, nil
		}
		// Same content hash already present: fall through to numeric on the
		// hashed stem.
		stem = fmt.Sprintf("%s-%s", stem, suffix)
	}

	for n := 1; ; n++ {
		cand := fmt.Sprintf("%s-%d%s", stem, n, ext)
		if _, err := os.Lstat(cand); os.IsNotExist(err) {
			return cand, nil
		}
	}
}

// contentSuffix derives a short stable suffix from the file's leading bytes.
func contentSuffix(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash source file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, io.LimitReader(f, 1<<20)); err != nil {
		return "", fmt.Errorf("hash source file: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:8], nil
}

// Move relocates the item's file into the archive and records it. On
// success it returns the MoveRecord and the file's new identity (relative to
// the archive root); the caller transitions the item to moved and updates
// the source cache. On any failure the source file is intact at its original
// path and nothing the caller observes has changed.
func (m *Mover) Move(it *models.Item) (models.MoveRecord, models.FileIdentity, error) {
	var zero models.MoveRecord
	var zeroID models.FileIdentity

	dest := m.Destination(it)
	dest, err := m.resolveCollision(dest, it.AbsPath)
	if err != nil {
		return zero, zeroID, err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return zero, zeroID, fmt.Errorf("create destination directory: %w", err)
	}

	// A plain rename keeps the move atomic. Cross-device or permission
	// failures surface as errors with the source untouched; copy+delete
	// would risk partial state.
	if err := os.Rename(it.AbsPath, dest); err != nil {
		return zero, zeroID, fmt.Errorf("rename to archive: %w", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		// The file moved but is suddenly unreadable; roll back.
		return zero, zeroID, m.rollback(it.AbsPath, dest, fmt.Errorf("stat moved file: %w", err))
	}

	relDest, err := filepath.Rel(m.ArchiveRoot, dest)
	if err != nil {
		relDest = filepath.Base(dest)
	}
	newIdentity := models.FileIdentity{
		RelPath:   filepath.ToSlash(relDest),
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}

	record := models.MoveRecord{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		SourcePath:  it.AbsPath,
		ArchivePath: dest,
		Category:    filepath.Base(filepath.Dir(filepath.Dir(dest))),
		Year:        filepath.Base(filepath.Dir(dest)),
		Identity:    it.Identity,
	}

	line, err := json.Marshal(record)
	if err != nil {
		return zero, zeroID, m.rollback(it.AbsPath, dest, fmt.Errorf("encode move record: %w", err))
	}
	if err := filelock.AppendLine(m.LogPath(), line); err != nil {
		return zero, zeroID, m.rollback(it.AbsPath, dest, fmt.Errorf("append move log: %w", err))
	}

	if m.ArchiveCache != nil {
		entry := cache.FromItem(it)
		entry.RelPath = newIdentity.RelPath
		entry.SizeBytes = newIdentity.SizeBytes
		entry.ModTime = newIdentity.ModTime
		entry.Status = models.StatusMoved
		entry.MovedTo = dest
		if err := m.ArchiveCache.Put(entry); err != nil {
			// Log and archive-side cache disagree now; reconciliation picks
			// this up from the log, so the move still counts as committed.
			return record, newIdentity, nil
		}
	}

	return record, newIdentity, nil
}

// rollback tries to return the file to its source path after a post-rename
// failure. If the rollback itself fails, the move log reconciliation path
// detects the dangling file later.
func (m *Mover) rollback(sourcePath, dest string, cause error) error {
	if err := os.Rename(dest, sourcePath); err != nil {
		return fmt.Errorf("%w (rollback also failed: %v; file is at %s)", cause, err, dest)
	}
	return cause
}

// ReadMoveLog parses the audit log, skipping unparseable lines. Used by
// reconciliation and reporting.
func ReadMoveLog(archiveRoot string) ([]models.MoveRecord, error) {
	path := filepath.Join(archiveRoot, cache.DirName, MoveLogName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read move log: %w", err)
	}

	var records []models.MoveRecord
	for _, line := range splitLines(data) {
		if len(line) == 0 {
			continue
		}
		var rec models.MoveRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
