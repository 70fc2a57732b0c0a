package models

import "time"

// YearUnknown is the literal marker the model uses when it cannot determine a
// reference year. Items carrying it are filed under the undated bucket.
const YearUnknown = "unknown"

// FactsResult is the phase-1 output: a taxonomy-independent summary of the
// document plus a year hint. Immutable once written except by reset.
type FactsResult struct {
	Summary    string  `json:"summary"`
	YearHint   string  `json:"year_hint"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method,omitempty"`
	Model      string  `json:"model,omitempty"`
}

// ClassificationResult is the phase-2 output: the taxonomy category, the
// reference year, and a proposed archive filename. Depends on the taxonomy at
// classify time; taxonomy changes do not retroactively invalidate it.
type ClassificationResult struct {
	Category       string  `json:"category"`
	ReferenceYear  string  `json:"reference_year"`
	ProductionYear string  `json:"production_year,omitempty"`
	ProposedName   string  `json:"proposed_name"`
	Confidence     float64 `json:"confidence"`
	Notes          string  `json:"notes,omitempty"`
	Model          string  `json:"model,omitempty"`
}

// FailureKind distinguishes the error classes of §7 that end an item in the
// error status. Semantic skips are not failures and use SkipReason instead.
type FailureKind string

const (
	FailureIO         FailureKind = "io"         // file vanished, permission denied, disk full
	FailureTransport  FailureKind = "transport"  // model backend unreachable or timed out
	FailureFatalSetup FailureKind = "fatal_setup" // aborts the batch, never recorded per item
)

// ErrorInfo records why an item ended in the error status.
type ErrorInfo struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// MovedInfo records the outcome of a successful archive move.
type MovedInfo struct {
	MovedTo string    `json:"moved_to"`
	At      time.Time `json:"at"`
}

// Timings collects per-phase elapsed times for an item, in seconds.
type Timings struct {
	ExtractSecs float64 `json:"extract_s,omitempty"`
	OCRSecs     float64 `json:"ocr_s,omitempty"`
	LLMSecs     float64 `json:"llm_s,omitempty"`
}

// MoveRecord is one append-only audit log entry, written once per successful
// archive move and never rewritten.
type MoveRecord struct {
	ID         string       `json:"id"`
	Timestamp  time.Time    `json:"ts"`
	SourcePath string       `json:"from"`
	ArchivePath string      `json:"to"`
	Category   string       `json:"category"`
	Year       string       `json:"year"`
	Identity   FileIdentity `json:"identity"`
}
