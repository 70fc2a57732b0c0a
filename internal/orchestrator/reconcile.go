package orchestrator

import (
	"github.com/harrison/archivist/internal/archive"
	"github.com/harrison/archivist/internal/models"
)

// ReconcileReport lists what happened to cache entries whose files are no
// longer present in the source root.
type ReconcileReport struct {
	// RecoveredMoves are relative paths whose disappearance matched a move
	// log record; their entries were marked moved retroactively.
	RecoveredMoves []string

	// Missing are relative paths gone without a trace; their entries were
	// invalidated so a reappearing file starts over as pending.
	Missing []string
}

// reconcile detects dangling moves. A move commits in the order rename, log
// append, source cache update; if the process dies between the rename and the
// cache update, the source cache still shows a pre-move status for a file
// that is gone. The move log is the authority: a record matching the entry's
// identity means the move happened.
func (o *Orchestrator) reconcile(items []*models.Item) (*ReconcileReport, error) {
	present := make(map[string]bool, len(items))
	for _, it := range items {
		present[it.Identity.RelPath] = true
	}

	report := &ReconcileReport{}
	var records []models.MoveRecord
	logLoaded := false

	for _, entry := range o.sourceCache.Entries() {
		if present[entry.RelPath] || entry.Status == models.StatusMoved {
			continue
		}

		if o.archiveRoot != "" && !logLoaded {
			var err error
			records, err = archive.ReadMoveLog(o.archiveRoot)
			if err != nil {
				return nil, err
			}
			logLoaded = true
		}

		if rec, ok := matchMoveRecord(records, entry.Identity()); ok {
			entry.Status = models.StatusMoved
			entry.MovedTo = rec.ArchivePath
			if err := o.sourceCache.Put(entry); err != nil {
				return nil, err
			}
			report.RecoveredMoves = append(report.RecoveredMoves, entry.RelPath)
			o.log.Infof("reconciled dangling move: %s -> %s", entry.RelPath, rec.ArchivePath)
			continue
		}

		if err := o.sourceCache.Invalidate(entry.RelPath); err != nil {
			return nil, err
		}
		report.Missing = append(report.Missing, entry.RelPath)
		o.log.Warnf("file missing from source with no move record: %s", entry.RelPath)
	}

	return report, nil
}

// matchMoveRecord finds the most recent log record for the given identity.
func matchMoveRecord(records []models.MoveRecord, id models.FileIdentity) (models.MoveRecord, bool) {
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Identity.Equal(id) {
			return records[i], true
		}
	}
	return models.MoveRecord{}, false
}
