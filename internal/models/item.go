package models

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a status transition is requested from
// a state that does not allow it.
var ErrInvalidTransition = errors.New("invalid status transition")

// Item is the authoritative per-file record. One Item exists per discovered
// file; it is created at discovery with status pending, mutated only through
// the transition methods below, and never destroyed during a session (Reset
// re-initializes it instead of deleting it).
//
// Item is owned by a single goroutine at a time: the orchestrator hands it to
// exactly one worker per batch, and readers only see value snapshots.
type Item struct {
	Identity FileIdentity
	Kind     string // pdf, image, md, txt, xlsx, docx, ...
	AbsPath  string

	Status         Status
	Facts          *FactsResult
	Classification *ClassificationResult
	Error          *ErrorInfo
	SkipReason     string
	Moved          *MovedInfo
	Timings        Timings

	// preMove remembers the status to restore when a move fails, so that a
	// failed move is all-or-nothing for the item.
	preMove Status
}

// NewItem creates a pending item for a discovered file.
func NewItem(identity FileIdentity, kind, absPath string) *Item {
	return &Item{
		Identity: identity,
		Kind:     kind,
		AbsPath:  absPath,
		Status:   StatusPending,
	}
}

func (it *Item) transitionErr(to Status) error {
	return fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, it.Status, to, it.Identity.RelPath)
}

// BeginScan enters the scanning transient state. Legal from pending, and
// from error when no facts survived the failure: re-running the scan command
// is the retry mechanism for I/O and transport errors.
func (it *Item) BeginScan() error {
	retriable := it.Status == StatusError && it.Facts == nil
	if it.Status != StatusPending && !retriable {
		return it.transitionErr(StatusScanning)
	}
	it.Status = StatusScanning
	it.Facts = nil
	it.Classification = nil
	it.Error = nil
	it.SkipReason = ""
	return nil
}

// CompleteScan exits scanning with facts.
func (it *Item) CompleteScan(facts FactsResult) error {
	if it.Status != StatusScanning {
		return it.transitionErr(StatusScanned)
	}
	it.Status = StatusScanned
	it.Facts = &facts
	return nil
}

// SkipScan exits scanning as a semantic skip (no usable content, or facts
// output that failed validation). Skips are never retried on rescan unless
// the cache entry is invalidated.
func (it *Item) SkipScan(reason string) error {
	if it.Status != StatusScanning {
		return it.transitionErr(StatusSkipped)
	}
	it.Status = StatusSkipped
	it.SkipReason = reason
	return nil
}

// FailScan exits scanning with an I/O or transport failure.
func (it *Item) FailScan(info ErrorInfo) error {
	if it.Status != StatusScanning {
		return it.transitionErr(StatusError)
	}
	it.Status = StatusError
	it.Error = &info
	return nil
}

// AbortScan returns a scanning item to pending when cancellation is observed
// before any result exists. The item looks exactly as it did before BeginScan.
func (it *Item) AbortScan() error {
	if it.Status != StatusScanning {
		return it.transitionErr(StatusPending)
	}
	it.Status = StatusPending
	return nil
}

// BeginClassify enters the classifying transient state. Legal from scanned,
// and from error when facts survived the failure: the scan already succeeded,
// so re-running classify is the retry for this item.
func (it *Item) BeginClassify() error {
	retriable := it.Status == StatusError && it.Facts != nil
	if it.Status != StatusScanned && !retriable {
		return it.transitionErr(StatusClassifying)
	}
	it.Status = StatusClassifying
	it.Classification = nil
	it.Error = nil
	it.SkipReason = ""
	return nil
}

// CompleteClassify exits classifying with a validated classification.
func (it *Item) CompleteClassify(c ClassificationResult) error {
	if it.Status != StatusClassifying {
		return it.transitionErr(StatusClassified)
	}
	it.Status = StatusClassified
	it.Classification = &c
	return nil
}

// SkipClassify exits classifying as a semantic skip (unparseable output or
// confidence below threshold). Facts are kept.
func (it *Item) SkipClassify(reason string) error {
	if it.Status != StatusClassifying {
		return it.transitionErr(StatusSkipped)
	}
	it.Status = StatusSkipped
	it.SkipReason = reason
	return nil
}

// FailClassify exits classifying with an I/O or transport failure.
func (it *Item) FailClassify(info ErrorInfo) error {
	if it.Status != StatusClassifying {
		return it.transitionErr(StatusError)
	}
	it.Status = StatusError
	it.Error = &info
	return nil
}

// AbortClassify returns a classifying item to scanned when cancellation is
// observed before any result exists. Facts are kept.
func (it *Item) AbortClassify() error {
	if it.Status != StatusClassifying {
		return it.transitionErr(StatusScanned)
	}
	it.Status = StatusScanned
	return nil
}

// BeginMove enters the moving transient state. Legal from classified, skipped,
// or error (unclassified items are filed under the unknown/undated bucket).
func (it *Item) BeginMove() error {
	switch it.Status {
	case StatusClassified, StatusSkipped, StatusError:
	default:
		return it.transitionErr(StatusMoving)
	}
	it.preMove = it.Status
	it.Status = StatusMoving
	return nil
}

// CompleteMove exits moving after a successful rename and log write. Moved is
// terminal for the source-side item.
func (it *Item) CompleteMove(info MovedInfo) error {
	if it.Status != StatusMoving {
		return it.transitionErr(StatusMoved)
	}
	it.Status = StatusMoved
	it.Moved = &info
	it.Error = nil
	it.preMove = ""
	return nil
}

// AbortMove returns a moving item to its pre-move status when cancellation is
// observed before the rename. Nothing about the item changes.
func (it *Item) AbortMove() error {
	if it.Status != StatusMoving {
		return it.transitionErr(StatusPending)
	}
	it.Status = it.preMove
	it.preMove = ""
	return nil
}

// FailMove exits moving by restoring the pre-move status, leaving the item
// exactly as it was before the attempt. The failure is recorded in Error.
func (it *Item) FailMove(info ErrorInfo) error {
	if it.Status != StatusMoving {
		return it.transitionErr(StatusError)
	}
	it.Status = it.preMove
	it.Error = &info
	it.preMove = ""
	return nil
}

// Reset re-initializes the item to pending, clearing facts, classification,
// error, skip reason, and timings. Legal from any non-transient state.
func (it *Item) Reset() error {
	if it.Status.IsTransient() {
		return it.transitionErr(StatusPending)
	}
	it.Status = StatusPending
	it.Facts = nil
	it.Classification = nil
	it.Error = nil
	it.SkipReason = ""
	it.Moved = nil
	it.Timings = Timings{}
	return nil
}

// Unclassify returns a classified item to scanned, keeping facts and clearing
// only the classification fields.
func (it *Item) Unclassify() error {
	if it.Status != StatusClassified {
		return it.transitionErr(StatusScanned)
	}
	it.Status = StatusScanned
	it.Classification = nil
	it.Error = nil
	it.SkipReason = ""
	return nil
}

// Snapshot returns a value copy safe to hand to readers while workers mutate
// the original. Pointer payloads are copied.
func (it *Item) Snapshot() Item {
	cp := *it
	if it.Facts != nil {
		f := *it.Facts
		cp.Facts = &f
	}
	if it.Classification != nil {
		c := *it.Classification
		cp.Classification = &c
	}
	if it.Error != nil {
		e := *it.Error
		cp.Error = &e
	}
	if it.Moved != nil {
		m := *it.Moved
		cp.Moved = &m
	}
	return cp
}
