package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/order-tracker/internal/common"
	"github.com/joseph-ayodele/order-tracker/internal/entity"
	"github.com/joseph-ayodele/order-tracker/internal/ingest"
	"github.com/joseph-ayodele/order-tracker/internal/metrics"
)

// RecordStore persists extracted records.
type RecordStore interface {
	Append(ctx context.Context, records []entity.OrderLineRecord) (int, error)
	Path() string
}

// BatchConfig controls a batch run.
type BatchConfig struct {
	DocumentDir     string
	Recursive       bool
	Workers         int
	MetricsTextfile string
}

// Summary counts what a batch run did.
type Summary struct {
	RunID     string
	Documents int
	Succeeded int
	Failed    int // includes documents that could not be read during the scan
	Skipped   int
	Records   int
	StoreRows int // data rows in the store after the append
	Elapsed   time.Duration
}

// Batch processes a directory of documents and appends every extracted
// record to the store in one write.
type Batch struct {
	cfg     BatchConfig
	proc    *Processor
	store   RecordStore
	metrics *metrics.Registry
	logger  *slog.Logger
}

func NewBatch(cfg BatchConfig, proc *Processor, st RecordStore, m *metrics.Registry, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewRegistry()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Batch{cfg: cfg, proc: proc, store: st, metrics: m, logger: logger}
}

// Run scans the document directory and processes what it finds.
func (b *Batch) Run(ctx context.Context) (Summary, error) {
	files, stats, err := ingest.ScanDirectory(ctx, b.cfg.DocumentDir, ingest.ScanOptions{
		Recursive:  b.cfg.Recursive,
		SkipHidden: true,
	}, b.logger)
	if err != nil {
		return Summary{}, fmt.Errorf("scan %s: %w", b.cfg.DocumentDir, err)
	}
	b.logger.Info("documents discovered",
		"dir", b.cfg.DocumentDir,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"failed", stats.Failed,
	)
	return b.runFiles(ctx, files, int(stats.Failed))
}

// RunFiles processes files and appends the records of the successful ones.
// Records keep input order regardless of the worker count. Only a store
// failure is returned as an error.
func (b *Batch) RunFiles(ctx context.Context, files []ingest.DocumentFile) (Summary, error) {
	return b.runFiles(ctx, files, 0)
}

// runFiles is RunFiles with unreadable documents found by the scan counted
// as failures.
func (b *Batch) runFiles(ctx context.Context, files []ingest.DocumentFile, unreadable int) (Summary, error) {
	start := time.Now()
	sum := Summary{RunID: uuid.NewString(), Documents: len(files) + unreadable, Failed: unreadable}
	b.metrics.DocumentsFailed.Add(float64(unreadable))
	ctx = common.WithRunID(ctx, sum.RunID)
	b.logger.Info("batch started", "run_id", sum.RunID, "documents", len(files), "workers", b.cfg.Workers)

	var records []entity.OrderLineRecord
	results := b.processAll(ctx, files)
	for _, res := range results {
		switch {
		case res.Skipped:
			sum.Skipped++
		case res.Err != nil:
			sum.Failed++
		default:
			sum.Succeeded++
			records = append(records, res.Records...)
		}
	}
	sum.Records = len(records)

	defer b.flushMetrics(start)

	if len(records) == 0 {
		b.logger.Warn("no records extracted, store left unchanged", "run_id", sum.RunID, "store", b.store.Path())
		sum.Elapsed = time.Since(start)
		return sum, nil
	}

	rows, err := b.store.Append(ctx, records)
	if err != nil {
		b.logger.Error("store write failed", "run_id", sum.RunID, "store", b.store.Path(), "error", err)
		perr := common.PersistenceError(b.store.Path(), err)
		b.finishAll(ctx, results, perr)
		sum.Elapsed = time.Since(start)
		return sum, perr
	}
	b.finishAll(ctx, results, nil)
	sum.StoreRows = rows
	sum.Elapsed = time.Since(start)

	b.logger.Info("batch finished",
		"run_id", sum.RunID,
		"documents", sum.Documents,
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
		"records", sum.Records,
		"store_rows", sum.StoreRows,
		"elapsed_ms", sum.Elapsed.Milliseconds(),
	)
	return sum, nil
}

func (b *Batch) finishAll(ctx context.Context, results []DocumentResult, persistErr error) {
	for _, res := range results {
		b.proc.FinishDocument(ctx, res, persistErr)
	}
}

func (b *Batch) processAll(ctx context.Context, files []ingest.DocumentFile) []DocumentResult {
	results := make([]DocumentResult, len(files))
	if b.cfg.Workers == 1 {
		for i, f := range files {
			if err := ctx.Err(); err != nil {
				results[i] = DocumentResult{File: f, Err: err}
				continue
			}
			results[i] = b.proc.ProcessDocument(ctx, f)
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = DocumentResult{File: f, Err: err}
				return nil
			}
			results[i] = b.proc.ProcessDocument(gctx, f)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (b *Batch) flushMetrics(start time.Time) {
	b.metrics.BatchSeconds.Set(time.Since(start).Seconds())
	if err := b.metrics.WriteTextfile(b.cfg.MetricsTextfile); err != nil {
		b.logger.Warn("metrics textfile not written", "path", b.cfg.MetricsTextfile, "error", err)
	}
}
