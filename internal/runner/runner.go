// Package runner executes batch operations (scan, classify, move) over a set
// of items with bounded parallelism, a system-wide single-flight guard, and
// cooperative cancellation. It owns no pipeline semantics: the per-item work
// function is supplied by the orchestrator.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/archivist/internal/models"
)

// Operation names the batch operation being executed.
type Operation string

const (
	OpScan     Operation = "scan"
	OpClassify Operation = "classify"
	OpMove     Operation = "move"
)

// ErrBusy is returned when a batch start is requested while another batch is
// active. Requests are rejected, never queued.
var ErrBusy = errors.New("another batch operation is already active")

// Outcome is one element of the unordered completion stream. Item is a value
// snapshot taken after the worker finished with it; Err carries the worker's
// error for diagnostics (the item's own status already reflects it).
type Outcome struct {
	Item models.Item
	Err  error
}

// WorkFunc processes one item. It must leave the item in a terminal status on
// every return path, including cancellation, and must check ctx between
// steps (before extraction, before invoking the model, before writing cache).
// A returned error never aborts the batch.
type WorkFunc func(ctx context.Context, item *models.Item) error

// Batch describes one running batch operation.
type Batch struct {
	ID        string
	Op        Operation
	StartedAt time.Time

	// Outcomes delivers one Outcome per started item and is closed when the
	// batch is finished or cancelled. Completion order is not guaranteed.
	Outcomes <-chan Outcome
}

// Runner enforces the single-flight discipline: at most one batch operation
// is active system-wide at any time.
type Runner struct {
	active atomic.Bool
}

// New creates a Runner.
func New() *Runner {
	return &Runner{}
}

// Active reports whether a batch is currently running.
func (r *Runner) Active() bool {
	return r.active.Load()
}

// Run starts a batch over items with the given bounded concurrency
// (values < 1 run sequentially). It returns ErrBusy if another batch is
// active. Items are handed to work one at a time each; items not yet started
// when cancellation is observed are left untouched and produce no outcome.
func (r *Runner) Run(ctx context.Context, op Operation, items []*models.Item, concurrency int, work WorkFunc) (*Batch, error) {
	if !r.active.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(items) && len(items) > 0 {
		concurrency = len(items)
	}

	outcomes := make(chan Outcome, len(items))
	batch := &Batch{
		ID:        uuid.NewString(),
		Op:        op,
		StartedAt: time.Now(),
		Outcomes:  outcomes,
	}

	go func() {
		// Release the single-flight guard before closing the stream, so a
		// caller that drained the channel can immediately start a new batch.
		defer close(outcomes)
		defer r.active.Store(false)

		semaphore := make(chan struct{}, concurrency)
		var wg sync.WaitGroup

		for _, item := range items {
			// Observe cancellation before scheduling the next item; items
			// not yet started stay in their current status.
			if ctx.Err() != nil {
				break
			}
			select {
			case <-ctx.Done():
			case semaphore <- struct{}{}:
				wg.Add(1)
				go func(it *models.Item) {
					defer wg.Done()
					defer func() { <-semaphore }()

					err := runWork(ctx, it, work)
					outcomes <- Outcome{Item: it.Snapshot(), Err: err}
				}(item)
				continue
			}
			break
		}

		wg.Wait()
	}()

	return batch, nil
}

// runWork invokes work and converts a panic into an ordinary per-item error,
// so a faulty work function takes down one item, never the batch or the
// process.
func runWork(ctx context.Context, it *models.Item, work WorkFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic on %s: %v", it.Identity.RelPath, r)
		}
	}()
	return work(ctx, it)
}

// Collect drains a batch's outcome stream and returns all outcomes. Useful
// for CLI callers that do not need streaming updates.
func Collect(b *Batch) []Outcome {
	var all []Outcome
	for o := range b.Outcomes {
		all = append(all, o)
	}
	return all
}
