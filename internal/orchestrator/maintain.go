package orchestrator

import (
	"context"
	"fmt"

	"github.com/harrison/archivist/internal/archive"
	"github.com/harrison/archivist/internal/cache"
	"github.com/harrison/archivist/internal/history"
	"github.com/harrison/archivist/internal/models"
)

// Reset invalidates cache entries so the files are reprocessed from pending.
// An empty path list clears the whole source cache.
func (o *Orchestrator) Reset(relPaths []string) error {
	if len(relPaths) == 0 {
		return o.sourceCache.Clear()
	}
	for _, rel := range relPaths {
		if err := o.sourceCache.Invalidate(rel); err != nil {
			return err
		}
	}
	return nil
}

// Unclassify returns classified entries to scanned, keeping their facts so a
// re-run of classify skips the scan phase.
func (o *Orchestrator) Unclassify(relPaths []string) error {
	for _, rel := range relPaths {
		entry, ok := o.sourceCache.Lookup(rel)
		if !ok {
			return fmt.Errorf("no cache entry for %s", rel)
		}
		if entry.Status != models.StatusClassified {
			return fmt.Errorf("%s is %s, not classified", rel, entry.Status)
		}
		entry.Status = models.StatusScanned
		entry.Classification = nil
		if err := o.sourceCache.Put(entry); err != nil {
			return err
		}
	}
	return nil
}

// Report is the cross-session view: current cache state, recorded batch
// runs, and the size of the archive move log.
type Report struct {
	StatusCounts map[models.Status]int
	Entries      []cache.Entry
	Runs         []*history.BatchRun
	MoveCount    int
}

// BuildReport assembles a Report from the cache, the history database, and
// the archive move log.
func (o *Orchestrator) BuildReport(ctx context.Context, runLimit int) (*Report, error) {
	entries := o.sourceCache.Entries()

	report := &Report{
		StatusCounts: make(map[models.Status]int),
		Entries:      entries,
	}
	for _, e := range entries {
		report.StatusCounts[e.Status]++
	}

	if o.history != nil {
		runs, err := o.history.RecentRuns(ctx, "", runLimit)
		if err != nil {
			return nil, err
		}
		report.Runs = runs
	}

	if o.archiveRoot != "" {
		records, err := archive.ReadMoveLog(o.archiveRoot)
		if err != nil {
			return nil, err
		}
		report.MoveCount = len(records)
	}

	return report, nil
}
