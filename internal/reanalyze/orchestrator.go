// Package reanalyze drives bulk re-extraction of audio features across a
// catalog directory. Items are processed one at a time with deliberate
// pacing between items and batches: the remote extractor has limited
// concurrent capacity and a full catalog pass must not overwhelm it.
package reanalyze

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shima-Rai/melixa/internal/core/ingest"
	"github.com/Shima-Rai/melixa/internal/core/ports"
)

// Defaults applied by Config.withDefaults.
const (
	DefaultBatchSize       = 10
	DefaultInterBatchDelay = time.Second
	DefaultInterItemDelay  = 100 * time.Millisecond
)

// Config tunes a re-analysis run.
type Config struct {
	// BatchSize partitions the ordered candidate list; values < 1 mean
	// DefaultBatchSize.
	BatchSize int
	// InterBatchDelay pauses after every batch except the last.
	InterBatchDelay time.Duration
	// InterItemDelay pauses between items within a batch.
	InterItemDelay time.Duration
	// MaxFiles caps the number of candidates; 0 means no cap.
	MaxFiles int
}

func (c Config) withDefaults() Config {
	if c.BatchSize < 1 {
		c.BatchSize = DefaultBatchSize
	}
	if c.InterBatchDelay <= 0 {
		c.InterBatchDelay = DefaultInterBatchDelay
	}
	if c.InterItemDelay <= 0 {
		c.InterItemDelay = DefaultInterItemDelay
	}
	return c
}

// ItemFailure records one asset that could not be re-analyzed.
type ItemFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Snapshot is the running statistics state after one item's outcome is
// known. Snapshots are value copies; consumers cannot mutate the
// orchestrator's accounting through them.
type Snapshot struct {
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	LastItem  string        `json:"lastItem,omitempty"`
	Failures  []ItemFailure `json:"failures,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
}

// Report is the terminal statistics of a run.
type Report struct {
	Snapshot
	FinishedAt time.Time     `json:"finishedAt"`
	Duration   time.Duration `json:"duration"`
	AvgPerItem time.Duration `json:"avgPerItem"`
}

// Orchestrator walks a library directory and re-derives stored features for
// every supported asset. A single item failure never aborts the run; the
// caller inspects the report to judge success.
type Orchestrator struct {
	extractor ports.Extractor
	store     ports.CatalogStore
	library   ports.MediaLibrary
	dir       string
	cfg       Config
	logger    zerolog.Logger

	// Injection points for tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New constructs an Orchestrator over the given collaborators.
func New(extractor ports.Extractor, store ports.CatalogStore, library ports.MediaLibrary, dir string, cfg Config, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		store:     store,
		library:   library,
		dir:       dir,
		cfg:       cfg.withDefaults(),
		logger:    logger.With().Str("component", "reanalyze").Logger(),
		sleep:     sleepWithContext,
		now:       time.Now,
	}
}

// Stream starts a run and returns a lazy sequence of statistics snapshots:
// one before the first item and one after every item's outcome. The channel
// closes when the run completes or the context is cancelled. Listing
// failures surface immediately instead of through the stream.
func (o *Orchestrator) Stream(ctx context.Context) (<-chan Snapshot, error) {
	names, err := o.library.List(o.dir)
	if err != nil {
		return nil, err
	}

	items := orderCandidates(names)
	if o.cfg.MaxFiles > 0 && len(items) > o.cfg.MaxFiles {
		items = items[:o.cfg.MaxFiles]
	}

	out := make(chan Snapshot)
	go func() {
		defer close(out)
		o.run(ctx, items, out)
	}()
	return out, nil
}

// Run executes a full pass and returns the terminal report. The returned
// error is non-nil only for listing failures or cancellation; per-item
// failures live in the report.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	stream, err := o.Stream(ctx)
	if err != nil {
		return Report{}, err
	}

	var last Snapshot
	for snap := range stream {
		last = snap
	}

	report := o.buildReport(last)
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("re-analysis interrupted: %w", err)
	}
	return report, nil
}

func (o *Orchestrator) buildReport(last Snapshot) Report {
	finished := o.now()
	duration := finished.Sub(last.StartedAt)
	var avg time.Duration
	if last.Processed > 0 {
		avg = duration / time.Duration(last.Processed)
	}
	return Report{
		Snapshot:   last,
		FinishedAt: finished,
		Duration:   duration,
		AvgPerItem: avg,
	}
}

func (o *Orchestrator) run(ctx context.Context, items []string, out chan<- Snapshot) {
	stats := Snapshot{Total: len(items), StartedAt: o.now()}
	o.logger.Info().Int("candidates", stats.Total).Int("batch_size", o.cfg.BatchSize).Msg("re-analysis started")

	if !emit(ctx, out, stats) {
		return
	}

	batches := partition(items, o.cfg.BatchSize)
	for bi, batch := range batches {
		for ii, name := range batch {
			if ctx.Err() != nil {
				return
			}

			if err := o.processItem(ctx, name); err != nil {
				stats.Failed++
				stats.Failures = append(stats.Failures, ItemFailure{Name: name, Reason: err.Error()})
				o.logger.Warn().Str("asset", name).Err(err).Msg("re-analysis item failed")
			} else {
				stats.Succeeded++
			}
			stats.Processed++
			stats.LastItem = name

			if !emit(ctx, out, stats) {
				return
			}

			if ii < len(batch)-1 {
				if err := o.sleep(ctx, o.cfg.InterItemDelay); err != nil {
					return
				}
			}
		}

		if bi < len(batches)-1 {
			if err := o.sleep(ctx, o.cfg.InterBatchDelay); err != nil {
				return
			}
		}
	}

	o.logger.Info().
		Int("processed", stats.Processed).
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Msg("re-analysis completed")
}

// processItem runs one asset through extract -> normalize -> upsert.
func (o *Orchestrator) processItem(ctx context.Context, name string) error {
	path := filepath.Join(o.dir, name)

	pred, err := o.extractor.Extract(ctx, path)
	if err != nil {
		return err
	}

	analysis := ingest.Normalize(pred)
	rec := analysis.Record
	rec.SourcePath = path

	if _, err := o.store.Upsert(ctx, path, rec); err != nil {
		return err
	}
	return nil
}

// emit sends a defensive copy of the statistics.
func emit(ctx context.Context, out chan<- Snapshot, stats Snapshot) bool {
	snap := stats
	snap.Failures = append([]ItemFailure(nil), stats.Failures...)
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

func partition(items []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

// sleepWithContext pauses cooperatively, waking early on cancellation.
func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
