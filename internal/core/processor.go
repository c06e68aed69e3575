// Package core runs extraction over a directory of order documents and
// persists the aggregated records.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/order-tracker/internal/common"
	"github.com/joseph-ayodele/order-tracker/internal/entity"
	"github.com/joseph-ayodele/order-tracker/internal/extract"
	"github.com/joseph-ayodele/order-tracker/internal/ingest"
	"github.com/joseph-ayodele/order-tracker/internal/ledger"
	"github.com/joseph-ayodele/order-tracker/internal/metrics"
)

// PageSource reads the first page of a document.
type PageSource interface {
	ExtractFirstPage(ctx context.Context, path string) (entity.Page, error)
}

// DocumentResult is the outcome of processing one document. Err is set
// for read failures, panics, and documents that yield no records. JobID is
// the ledger job left running until FinishDocument records the outcome.
type DocumentResult struct {
	File       ingest.DocumentFile
	JobID      uuid.UUID
	DocumentID string
	Records    []entity.OrderLineRecord
	Stats      extract.TableStats
	Skipped    bool
	Err        error
	Elapsed    time.Duration
}

// ProcessorConfig holds per-document behavior.
type ProcessorConfig struct {
	Timeout       time.Duration
	SkipProcessed bool
}

// Processor extracts order lines from a single document and records the
// attempt in the ledger.
type Processor struct {
	logger    *slog.Logger
	pages     PageSource
	extractor *extract.Extractor
	jobs      ledger.JobRepository
	metrics   *metrics.Registry
	cfg       ProcessorConfig
}

func NewProcessor(
	cfg ProcessorConfig,
	pages PageSource,
	extractor *extract.Extractor,
	jobs ledger.JobRepository,
	m *metrics.Registry,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = extract.NewExtractor(nil, logger)
	}
	if jobs == nil {
		jobs = (*ledger.DB)(nil).Jobs()
	}
	if m == nil {
		m = metrics.NewRegistry()
	}
	return &Processor{
		logger:    logger,
		pages:     pages,
		extractor: extractor,
		jobs:      jobs,
		metrics:   m,
		cfg:       cfg,
	}
}

// ProcessDocument never fails past its boundary: every fault ends up in
// the returned result. Failed and empty documents are finished in the
// ledger here; a document with records stays running until its records are
// persisted and FinishDocument is called.
func (p *Processor) ProcessDocument(ctx context.Context, file ingest.DocumentFile) DocumentResult {
	start := time.Now()
	ctx = common.WithDocument(ctx, file.Path)
	res := DocumentResult{File: file}

	if p.cfg.SkipProcessed && file.HashHex != "" {
		done, err := p.jobs.HasSucceeded(ctx, file.HashHex)
		if err != nil {
			p.logger.Warn("ledger lookup failed, processing anyway", "path", file.Path, "error", err)
		} else if done {
			p.logger.Info("document already processed, skipping", "path", file.Path)
			p.metrics.DocumentsSkipped.Inc()
			res.Skipped = true
			return res
		}
	}

	jobID, err := p.jobs.Start(ctx, common.RunIDFromContext(ctx), file.Path, file.HashHex)
	if err != nil {
		p.logger.Warn("ledger start failed", "path", file.Path, "error", err)
	}

	out, err := p.extract(ctx, file)
	res.DocumentID = out.DocumentID
	res.Records = out.Records
	res.Stats = out.Stats
	res.Err = err
	res.Elapsed = time.Since(start)

	if res.Err != nil {
		p.finish(ctx, jobID, res, nil)
	} else {
		res.JobID = jobID
	}
	p.observe(res)
	return res
}

func (p *Processor) extract(ctx context.Context, file ingest.DocumentFile) (out extract.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while extracting: %v", r)
		}
	}()

	ctx, cancel := common.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	page, err := p.pages.ExtractFirstPage(ctx, file.Path)
	if err != nil {
		return out, fmt.Errorf("read first page: %w", err)
	}
	if page.PageCount > 1 {
		p.logger.Debug("only the first page is extracted", "path", file.Path, "pages", page.PageCount)
	}

	out = p.extractor.Extract(page, file.Name)
	if len(out.Records) == 0 {
		return out, common.ErrNoRecords
	}
	return out, nil
}

// FinishDocument records the outcome of a document whose records were
// handed to the store. A non-nil persistErr marks the job failed so the
// document is not skipped by a later run.
func (p *Processor) FinishDocument(ctx context.Context, res DocumentResult, persistErr error) {
	if res.Skipped || res.Err != nil {
		return
	}
	p.finish(ctx, res.JobID, res, persistErr)
}

func (p *Processor) finish(ctx context.Context, jobID uuid.UUID, res DocumentResult, persistErr error) {
	if jobID == uuid.Nil {
		return
	}
	var err error
	switch {
	case persistErr != nil:
		err = p.jobs.FinishFailure(ctx, jobID, persistErr.Error())
	case res.Err == nil, errors.Is(res.Err, common.ErrNoRecords):
		err = p.jobs.FinishSuccess(ctx, jobID, res.DocumentID, len(res.Records))
	default:
		err = p.jobs.FinishFailure(ctx, jobID, res.Err.Error())
	}
	if err != nil {
		p.logger.Warn("ledger finish failed", "job_id", jobID, "path", res.File.Path, "error", err)
	}
}

func (p *Processor) observe(res DocumentResult) {
	p.metrics.DocumentSeconds.Observe(res.Elapsed.Seconds())
	for reason, n := range res.Stats.Rejected {
		p.metrics.RowsRejected.WithLabelValues(reason).Add(float64(n))
	}
	if res.Err != nil {
		p.metrics.DocumentsFailed.Inc()
		p.logger.Error("document failed",
			"path", res.File.Path,
			"document_id", res.DocumentID,
			"error", res.Err,
			"elapsed_ms", res.Elapsed.Milliseconds(),
		)
		return
	}
	p.metrics.DocumentsProcessed.Inc()
	p.metrics.RecordsExtracted.Add(float64(len(res.Records)))
	p.logger.Info("document processed",
		"path", res.File.Path,
		"document_id", res.DocumentID,
		"records", len(res.Records),
		"elapsed_ms", res.Elapsed.Milliseconds(),
	)
}
