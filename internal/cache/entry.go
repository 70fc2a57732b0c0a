package cache

import (
	"time"

	"github.com/harrison/archivist/internal/models"
)

// Entry is the persisted form of an item: its identity, last terminal status,
// and the phase results produced so far. Fields absent in older cache files
// default to their zero values on load.
type Entry struct {
	RelPath   string    `json:"rel_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`

	Status         models.Status                `json:"status"`
	Reason         string                       `json:"reason,omitempty"`
	Facts          *models.FactsResult          `json:"facts,omitempty"`
	Classification *models.ClassificationResult `json:"classification,omitempty"`
	Error          *models.ErrorInfo            `json:"error,omitempty"`
	MovedTo        string                       `json:"moved_to,omitempty"`
	Timings        models.Timings               `json:"timings"`
}

// Identity reconstructs the FileIdentity this entry was written for.
func (e Entry) Identity() models.FileIdentity {
	return models.FileIdentity{
		RelPath:   e.RelPath,
		SizeBytes: e.SizeBytes,
		ModTime:   e.ModTime,
	}
}

// FromItem builds the persistable entry for an item. The item must be in a
// terminal status; Store.Put rejects anything else.
func FromItem(it *models.Item) Entry {
	entry := Entry{
		RelPath:   it.Identity.RelPath,
		SizeBytes: it.Identity.SizeBytes,
		ModTime:   it.Identity.ModTime,
		Status:    it.Status,
		Reason:    it.SkipReason,
		Timings:   it.Timings,
	}
	if it.Facts != nil {
		f := *it.Facts
		entry.Facts = &f
	}
	if it.Classification != nil {
		c := *it.Classification
		entry.Classification = &c
	}
	if it.Error != nil {
		e := *it.Error
		entry.Error = &e
	}
	if it.Moved != nil {
		entry.MovedTo = it.Moved.MovedTo
	}
	return entry
}

// Apply restores the cached state onto a freshly discovered item. The item
// keeps its own identity and path; only status and results are taken from
// the entry.
func (e Entry) Apply(it *models.Item) {
	it.Status = e.Status
	it.SkipReason = e.Reason
	it.Timings = e.Timings
	it.Facts = nil
	it.Classification = nil
	it.Error = nil
	it.Moved = nil
	if e.Facts != nil {
		f := *e.Facts
		it.Facts = &f
	}
	if e.Classification != nil {
		c := *e.Classification
		it.Classification = &c
	}
	if e.Error != nil {
		info := *e.Error
		it.Error = &info
	}
	if e.MovedTo != "" {
		it.Moved = &models.MovedInfo{MovedTo: e.MovedTo}
	}
}
