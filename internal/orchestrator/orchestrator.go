// Package orchestrator composes the pipeline: it discovers items, selects the
// ones eligible for an operation, drives the runner, maps extraction and model
// outcomes to status transitions, and persists terminal statuses to the cache.
// Nothing below it knows about phases; nothing above it touches item state.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/archivist/internal/archive"
	"github.com/harrison/archivist/internal/cache"
	"github.com/harrison/archivist/internal/config"
	"github.com/harrison/archivist/internal/extract"
	"github.com/harrison/archivist/internal/history"
	"github.com/harrison/archivist/internal/llm"
	"github.com/harrison/archivist/internal/logger"
	"github.com/harrison/archivist/internal/models"
	"github.com/harrison/archivist/internal/parser"
	"github.com/harrison/archivist/internal/runner"
	"github.com/harrison/archivist/internal/scanner"
	"github.com/harrison/archivist/internal/taxonomy"
)

// Listener receives a snapshot after every item transition. Optional; used by
// the CLI layer for progress output.
type Listener func(it models.Item)

// Summary aggregates one batch run.
type Summary struct {
	BatchID   string
	Operation runner.Operation
	StartedAt time.Time
	Duration  time.Duration

	Total     int // eligible items handed to the runner
	Succeeded int
	Skipped   int
	Errored   int
	Cached    int // discovered items already satisfied by the cache
	Cancelled int // eligible items not completed because of cancellation
}

// MoveOptions controls which items a move batch takes.
type MoveOptions struct {
	// IncludeUnclassified also moves skipped and errored items into the
	// unknown/undated bucket.
	IncludeUnclassified bool
}

// Params collects the collaborators an Orchestrator needs.
type Params struct {
	Config      *config.Config
	SourceRoot  string
	ArchiveRoot string // optional for scan/classify, required for move
	Log         *logger.ConsoleLogger
	Listener    Listener
	History     *history.Store // optional
}

// Orchestrator drives the scan, classify, and move operations over one
// source/archive root pair.
type Orchestrator struct {
	cfg *config.Config
	log *logger.ConsoleLogger

	sourceRoot  string
	archiveRoot string

	sourceCache  *cache.Store
	archiveCache *cache.Store
	registry     *extract.Registry
	client       *llm.Client
	tax          taxonomy.Taxonomy
	mover        *archive.Mover
	runner       *runner.Runner
	history      *history.Store
	listener     Listener
}

// New builds an Orchestrator and performs the setup that must succeed before
// any batch starts: roots exist, metadata directories are writable, caches
// load, the taxonomy validates. Any failure here is fatal for the whole run.
func New(p Params) (*Orchestrator, error) {
	cfg := p.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	info, err := os.Stat(p.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("source root %s: %w", p.SourceRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source root %s is not a directory", p.SourceRoot)
	}
	if err := os.MkdirAll(filepath.Join(p.SourceRoot, cache.DirName), 0755); err != nil {
		return nil, fmt.Errorf("source metadata directory: %w", err)
	}

	sourceCache := cache.NewStore(p.SourceRoot)
	if err := sourceCache.Load(); err != nil {
		return nil, err
	}

	tax, err := taxonomy.Load(cfg.TaxonomyPath)
	if err != nil {
		return nil, err
	}

	client := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.Timeout)

	extractCfg := extract.Config{}
	if cfg.LLM.VisionModel != "" {
		extractCfg.Captioner = llm.VisionCaptioner{Client: client, Model: cfg.LLM.VisionModel}
	}

	o := &Orchestrator{
		cfg:         cfg,
		log:         p.Log,
		sourceRoot:  p.SourceRoot,
		sourceCache: sourceCache,
		registry:    extract.NewRegistry(extractCfg),
		client:      client,
		tax:         tax,
		runner:      runner.New(),
		history:     p.History,
		listener:    p.Listener,
	}

	if p.ArchiveRoot != "" {
		if err := os.MkdirAll(filepath.Join(p.ArchiveRoot, cache.DirName), 0755); err != nil {
			return nil, fmt.Errorf("archive metadata directory: %w", err)
		}
		archiveCache := cache.NewStore(p.ArchiveRoot)
		if err := archiveCache.Load(); err != nil {
			return nil, err
		}
		o.archiveRoot = p.ArchiveRoot
		o.archiveCache = archiveCache
		o.mover = &archive.Mover{
			ArchiveRoot:  p.ArchiveRoot,
			ArchiveCache: archiveCache,
			UndatedLabel: cfg.Archive.UndatedLabel,
			MaxNameLen:   cfg.Archive.MaxNameLen,
			Suffix:       archive.SuffixMode(cfg.Archive.CollisionSuffix),
		}
	}

	return o, nil
}

// SourceCache exposes the source-side cache for reporting and reset.
func (o *Orchestrator) SourceCache() *cache.Store { return o.sourceCache }

func (o *Orchestrator) notify(it *models.Item) {
	if o.listener != nil {
		o.listener(it.Snapshot())
	}
}

// settle persists an item that reached a terminal status and notifies the
// listener. A cache write failure is logged, not fatal: the work is done and
// a rescan redoes only this item.
func (o *Orchestrator) settle(it *models.Item) error {
	o.notify(it)
	if err := o.sourceCache.Put(cache.FromItem(it)); err != nil {
		o.log.Warnf("cache write failed for %s: %v", it.Identity.RelPath, err)
	}
	return nil
}

// Discover walks the source root, overlays cached results onto the discovered
// items, and reconciles cache entries whose files have disappeared.
func (o *Orchestrator) Discover(ctx context.Context) ([]*models.Item, *ReconcileReport, error) {
	items, err := scanner.Discover(ctx, o.sourceRoot, scanner.Options{
		Recursive:         o.cfg.Recursive,
		IncludeExtensions: o.cfg.IncludeExtensions,
		ExcludeDirNames:   o.cfg.ExcludeDirNames,
	})
	if err != nil {
		return nil, nil, err
	}

	for _, it := range items {
		if entry, ok := o.sourceCache.Get(it.Identity); ok {
			entry.Apply(it)
		}
	}

	report, err := o.reconcile(items)
	if err != nil {
		return nil, nil, err
	}
	return items, report, nil
}

// Scan runs the scan phase over every pending item: extraction, facts prompt,
// strict parsing. Items already satisfied by the cache are counted, not
// re-processed.
func (o *Orchestrator) Scan(ctx context.Context) (*Summary, error) {
	items, _, err := o.Discover(ctx)
	if err != nil {
		return nil, err
	}

	eligible := scanEligible(items)
	summary, err := o.runBatch(ctx, runner.OpScan, eligible, o.scanItem)
	if err != nil {
		return nil, err
	}
	summary.Cached = len(items) - len(eligible)
	o.recordRun(ctx, summary)
	return summary, nil
}

// Classify runs the classify phase over every scanned item.
func (o *Orchestrator) Classify(ctx context.Context) (*Summary, error) {
	items, _, err := o.Discover(ctx)
	if err != nil {
		return nil, err
	}

	eligible := classifyEligible(items)
	summary, err := o.runBatch(ctx, runner.OpClassify, eligible, o.classifyItem)
	if err != nil {
		return nil, err
	}
	summary.Cached = countByStatus(items, models.StatusClassified)
	o.recordRun(ctx, summary)
	return summary, nil
}

// Move relocates classified items (and optionally skipped/errored ones) into
// the archive. Requires an archive root.
func (o *Orchestrator) Move(ctx context.Context, opts MoveOptions) (*Summary, error) {
	if o.mover == nil {
		return nil, fmt.Errorf("archive root not configured")
	}

	items, _, err := o.Discover(ctx)
	if err != nil {
		return nil, err
	}

	statuses := []models.Status{models.StatusClassified}
	if opts.IncludeUnclassified {
		statuses = append(statuses, models.StatusSkipped, models.StatusError)
	}
	eligible := filterByStatus(items, statuses...)

	summary, err := o.runBatch(ctx, runner.OpMove, eligible, o.moveItem)
	if err != nil {
		return nil, err
	}
	o.recordRun(ctx, summary)
	return summary, nil
}

// runBatch drives the runner and folds the outcome stream into a Summary.
func (o *Orchestrator) runBatch(ctx context.Context, op runner.Operation, eligible []*models.Item, work runner.WorkFunc) (*Summary, error) {
	batch, err := o.runner.Run(ctx, op, eligible, o.cfg.Concurrency, work)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		BatchID:   batch.ID,
		Operation: op,
		StartedAt: batch.StartedAt,
		Total:     len(eligible),
	}

	success := successStatus(op)
	seen := 0
	for out := range batch.Outcomes {
		seen++
		switch {
		case out.Err != nil:
			summary.Errored++
		case out.Item.Status == success:
			summary.Succeeded++
		case out.Item.Status == models.StatusSkipped:
			summary.Skipped++
		case out.Item.Status == models.StatusError || out.Item.Error != nil:
			summary.Errored++
		default:
			// Reverted by a cancellation checkpoint.
			summary.Cancelled++
		}
	}
	summary.Cancelled += summary.Total - seen
	summary.Duration = time.Since(batch.StartedAt)
	return summary, nil
}

func (o *Orchestrator) recordRun(ctx context.Context, s *Summary) {
	if o.history == nil {
		return
	}
	run := &history.BatchRun{
		BatchID:   s.BatchID,
		Operation: string(s.Operation),
		StartedAt: s.StartedAt,
		Duration:  s.Duration,
		Total:     s.Total,
		Succeeded: s.Succeeded,
		Skipped:   s.Skipped,
		Errored:   s.Errored,
		Cached:    s.Cached,
		Cancelled: s.Cancelled,
	}
	if err := o.history.RecordRun(ctx, run); err != nil {
		o.log.Warnf("history write failed: %v", err)
	}
}

func successStatus(op runner.Operation) models.Status {
	switch op {
	case runner.OpScan:
		return models.StatusScanned
	case runner.OpClassify:
		return models.StatusClassified
	default:
		return models.StatusMoved
	}
}

// Errored items are retried by re-running the command for the phase they
// failed in: surviving facts mean the scan already succeeded, so classify
// owns the retry. Skips stay excluded until the cache entry is invalidated.
func scanEligible(items []*models.Item) []*models.Item {
	var out []*models.Item
	for _, it := range items {
		if it.Status == models.StatusPending || (it.Status == models.StatusError && it.Facts == nil) {
			out = append(out, it)
		}
	}
	return out
}

func classifyEligible(items []*models.Item) []*models.Item {
	var out []*models.Item
	for _, it := range items {
		if it.Status == models.StatusScanned || (it.Status == models.StatusError && it.Facts != nil) {
			out = append(out, it)
		}
	}
	return out
}

func filterByStatus(items []*models.Item, statuses ...models.Status) []*models.Item {
	var out []*models.Item
	for _, it := range items {
		for _, s := range statuses {
			if it.Status == s {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

func countByStatus(items []*models.Item, status models.Status) int {
	n := 0
	for _, it := range items {
		if it.Status == status {
			n++
		}
	}
	return n
}

// scanItem is the per-item scan work function: extract content, build the
// facts prompt, call the model, parse strictly. Cancellation is observed
// before extraction and before the model call; an aborted item reverts to
// pending untouched.
func (o *Orchestrator) scanItem(ctx context.Context, it *models.Item) error {
	if err := it.BeginScan(); err != nil {
		return err
	}
	o.notify(it)

	if ctx.Err() != nil {
		if err := it.AbortScan(); err != nil {
			return err
		}
		o.notify(it)
		return nil
	}

	if it.Kind == scanner.KindUnsupported {
		if err := it.SkipScan("unsupported file type"); err != nil {
			return err
		}
		return o.settle(it)
	}
	extractor, ok := o.registry.ForKind(it.Kind)
	if !ok {
		if err := it.SkipScan("unsupported file type"); err != nil {
			return err
		}
		return o.settle(it)
	}

	extractStart := time.Now()
	res, err := extractor.Extract(ctx, it.AbsPath)
	it.Timings.ExtractSecs = time.Since(extractStart).Seconds()
	if err != nil {
		if err := it.FailScan(models.ErrorInfo{Kind: failureKindFor(err), Message: err.Error()}); err != nil {
			return err
		}
		return o.settle(it)
	}
	if res.Text == "" {
		reason := res.Note
		if reason == "" {
			reason = "no usable content"
		}
		if err := it.SkipScan(reason); err != nil {
			return err
		}
		return o.settle(it)
	}

	if ctx.Err() != nil {
		if err := it.AbortScan(); err != nil {
			return err
		}
		o.notify(it)
		return nil
	}

	hint := YearHintFromPath(it.Identity.RelPath)
	if hint == "" {
		hint = YearHintFromText(res.Text)
	}

	prompt := llm.BuildFactsPrompt(llm.FactsPromptInput{
		Filename: filepath.Base(it.AbsPath),
		ModTime:  it.Identity.ModTime.UTC().Format(time.RFC3339),
		YearHint: hint,
		Content:  res.Text,
	})

	llmStart := time.Now()
	raw, err := o.client.Generate(ctx, prompt, llm.GenerateOptions{Model: o.cfg.LLM.FactsModel, JSONFormat: true})
	it.Timings.LLMSecs = time.Since(llmStart).Seconds()
	if err != nil {
		if err := it.FailScan(models.ErrorInfo{Kind: models.FailureTransport, Message: err.Error()}); err != nil {
			return err
		}
		return o.settle(it)
	}

	facts, pf := parser.ParseFacts(raw)
	if pf != nil {
		if err := it.SkipScan(pf.Reason); err != nil {
			return err
		}
		return o.settle(it)
	}

	// The model saying "unknown" does not discard a hint we found ourselves.
	if facts.YearHint == models.YearUnknown && hint != "" {
		facts.YearHint = hint
	}
	facts.Method = res.Method
	facts.Model = o.cfg.LLM.FactsModel

	if err := it.CompleteScan(facts); err != nil {
		return err
	}
	return o.settle(it)
}

// classifyItem is the per-item classify work function.
func (o *Orchestrator) classifyItem(ctx context.Context, it *models.Item) error {
	if err := it.BeginClassify(); err != nil {
		return err
	}
	o.notify(it)

	if ctx.Err() != nil {
		if err := it.AbortClassify(); err != nil {
			return err
		}
		o.notify(it)
		return nil
	}

	// A cache entry can come back as scanned with the facts field absent
	// (older cache files, hand-edited state). There is nothing to classify;
	// record the error so the next scan rebuilds the facts.
	if it.Facts == nil {
		if err := it.FailClassify(models.ErrorInfo{Kind: models.FailureIO, Message: "cached result has no facts, rescan required"}); err != nil {
			return err
		}
		return o.settle(it)
	}

	prompt := llm.BuildClassifyPrompt(llm.ClassifyPromptInput{
		Filename:      filepath.Base(it.AbsPath),
		Summary:       it.Facts.Summary,
		YearHint:      it.Facts.YearHint,
		CategoryNames: o.tax.Names(),
		TaxonomyBlock: o.tax.PromptBlock(),
	})

	llmStart := time.Now()
	raw, err := o.client.Generate(ctx, prompt, llm.GenerateOptions{Model: o.cfg.LLM.ClassifyModel, JSONFormat: true})
	it.Timings.LLMSecs += time.Since(llmStart).Seconds()
	if err != nil {
		if err := it.FailClassify(models.ErrorInfo{Kind: models.FailureTransport, Message: err.Error()}); err != nil {
			return err
		}
		return o.settle(it)
	}

	c, pf := parser.ParseClassification(raw, o.tax)
	if pf != nil {
		if err := it.SkipClassify(pf.Reason); err != nil {
			return err
		}
		return o.settle(it)
	}
	if c.Confidence < o.cfg.ConfidenceThreshold {
		reason := fmt.Sprintf("confidence %.2f below threshold %.2f", c.Confidence, o.cfg.ConfidenceThreshold)
		if err := it.SkipClassify(reason); err != nil {
			return err
		}
		return o.settle(it)
	}

	c.Model = o.cfg.LLM.ClassifyModel
	if err := it.CompleteClassify(c); err != nil {
		return err
	}
	return o.settle(it)
}

// moveItem is the per-item move work function. The mover owns the commit
// order rename, log append, archive cache; the source cache update happens
// here, last.
func (o *Orchestrator) moveItem(ctx context.Context, it *models.Item) error {
	if err := it.BeginMove(); err != nil {
		return err
	}
	o.notify(it)

	if ctx.Err() != nil {
		if err := it.AbortMove(); err != nil {
			return err
		}
		o.notify(it)
		return nil
	}

	record, _, err := o.mover.Move(it)
	if err != nil {
		if err := it.FailMove(models.ErrorInfo{Kind: models.FailureIO, Message: err.Error()}); err != nil {
			return err
		}
		return o.settle(it)
	}

	if err := it.CompleteMove(models.MovedInfo{MovedTo: record.ArchivePath, At: record.Timestamp}); err != nil {
		return err
	}
	return o.settle(it)
}

// failureKindFor separates a timed-out external dependency (subprocess
// conversion counts as transport, like a model timeout) from plain I/O.
func failureKindFor(err error) models.FailureKind {
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "timed out") {
		return models.FailureTransport
	}
	return models.FailureIO
}
