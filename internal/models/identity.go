package models

import "time"

// FileIdentity identifies a file for cache-validity purposes.
// Two identities are equal iff relative path, size, and modification time all
// match; any change to size or mtime invalidates cached results for the path
// without content hashing.
type FileIdentity struct {
	RelPath   string    `json:"rel_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// Equal reports whether two identities refer to the same unchanged file.
func (id FileIdentity) Equal(other FileIdentity) bool {
	return id.RelPath == other.RelPath &&
		id.SizeBytes == other.SizeBytes &&
		id.ModTime.Equal(other.ModTime)
}
