package models

// Status is the lifecycle state of an item in the archiving pipeline.
type Status string

// Item statuses. Transient statuses mark in-flight work and are never
// persisted to the cache; a crash resumes from the last terminal status.
const (
	StatusPending     Status = "pending"
	StatusScanning    Status = "scanning"
	StatusScanned     Status = "scanned"
	StatusClassifying Status = "classifying"
	StatusClassified  Status = "classified"
	StatusSkipped     Status = "skipped"
	StatusError       Status = "error"
	StatusMoving      Status = "moving"
	StatusMoved       Status = "moved"
)

// IsTransient returns true for statuses that mark an operation in progress.
func (s Status) IsTransient() bool {
	switch s {
	case StatusScanning, StatusClassifying, StatusMoving:
		return true
	}
	return false
}

// IsTerminal returns true for statuses that may be persisted to the cache.
func (s Status) IsTerminal() bool {
	return !s.IsTransient() && s != ""
}

// Valid returns true if the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusScanning, StatusScanned, StatusClassifying,
		StatusClassified, StatusSkipped, StatusError, StatusMoving, StatusMoved:
		return true
	}
	return false
}
