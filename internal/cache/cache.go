// Package cache persists the last known pipeline result per file under a
// root. The cache file is the source of truth for "has this file changed
// since last processed": entries are keyed by relative path and validated
// against the file's size and modification time.
//
// One Store exists per root (source root, archive root). All writes go
// through a single mutex and a flock-guarded atomic file write, so parallel
// workers never interleave at the byte level; reads may be concurrent.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/harrison/archivist/internal/filelock"
	"github.com/harrison/archivist/internal/models"
)

// DirName is the per-root metadata directory holding the cache file, the
// move log, and the history database.
const DirName = ".archivist"

const cacheFileName = "cache.json"

// Store is the durable identity -> Entry mapping for one root.
type Store struct {
	root string
	path string

	mu   sync.RWMutex
	data map[string]Entry
}

// NewStore creates a store for the given root directory. Call Load before
// first use.
func NewStore(root string) *Store {
	return &Store{
		root: root,
		path: filepath.Join(root, DirName, cacheFileName),
		data: make(map[string]Entry),
	}
}

// Root returns the root directory this store belongs to.
func (s *Store) Root() string { return s.root }

// Path returns the cache file path.
func (s *Store) Path() string { return s.path }

// Load reads the cache file. A missing file yields an empty cache. An entry
// that fails to deserialize, carries an unknown status, or was persisted in a
// transient status is dropped individually; a single bad entry never
// invalidates the whole file. Unknown fields from newer schema versions are
// ignored.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]Entry)

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache file %s: %w", s.path, err)
	}

	var rawEntries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rawEntries); err != nil {
		// A wholly corrupt file starts over empty rather than blocking the
		// scan; the next save rewrites it.
		return nil
	}

	for rel, rawEntry := range rawEntries {
		var entry Entry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			continue
		}
		if !entry.Status.Valid() || entry.Status.IsTransient() {
			continue
		}
		entry.RelPath = rel
		s.data[rel] = entry
	}
	return nil
}

// Get returns the entry for identity if one exists and is still valid: the
// relative path must be present and size and mtime must match exactly.
func (s *Store) Get(identity models.FileIdentity) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[identity.RelPath]
	if !ok {
		return Entry{}, false
	}
	if !entry.Identity().Equal(identity) {
		return Entry{}, false
	}
	return entry, true
}

// Lookup returns the entry stored under relPath regardless of identity match.
// Used by reconciliation, which needs to see stale entries.
func (s *Store) Lookup(relPath string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[relPath]
	return entry, ok
}

// Put stores the entry under its relative path, overwriting any stale entry
// for the same path even when size or mtime differ, and persists the cache
// file atomically. Transient statuses are rejected: only terminal statuses
// may be persisted so that a crash mid-task resumes from the last terminal
// state.
func (s *Store) Put(entry Entry) error {
	if entry.Status.IsTransient() {
		return fmt.Errorf("refusing to persist transient status %q for %s", entry.Status, entry.RelPath)
	}
	if entry.RelPath == "" {
		return fmt.Errorf("cache entry has no relative path")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[entry.RelPath] = entry
	return s.saveLocked()
}

// Invalidate removes the entry for relPath, forcing pending on reload.
func (s *Store) Invalidate(relPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[relPath]; !ok {
		return nil
	}
	delete(s.data, relPath)
	return s.saveLocked()
}

// Clear removes all entries for the root.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]Entry)
	return s.saveLocked()
}

// Entries returns a snapshot of all entries sorted by relative path.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.data))
	for _, e := range s.data {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
	return entries
}

// saveLocked writes the cache file. Callers must hold s.mu.
func (s *Store) saveLocked() error {
	payload := make(map[string]Entry, len(s.data))
	for rel, e := range s.data {
		payload[rel] = e
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	if err := filelock.LockAndWrite(s.path, data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}
