package ledger

import (
	"context"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/order-tracker/constants"
)

// JobRepository tracks one extraction attempt per document.
type JobRepository interface {
	Start(ctx context.Context, runID, sourcePath, contentHash string) (uuid.UUID, error)
	FinishSuccess(ctx context.Context, jobID uuid.UUID, documentID string, records int) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	// HasSucceeded reports whether a document with this content hash was
	// already extracted with at least one record.
	HasSucceeded(ctx context.Context, contentHash string) (bool, error)
}

// Jobs returns the job repository; a disabled ledger records nothing.
func (d *DB) Jobs() JobRepository {
	if d == nil {
		return nopJobs{}
	}
	return &jobRepo{db: d, log: d.logger}
}

type jobRepo struct {
	db  *DB
	log *slog.Logger
}

func (r *jobRepo) Start(ctx context.Context, runID, sourcePath, contentHash string) (uuid.UUID, error) {
	id := uuid.New()
	q := r.db.builder().Insert("extract_job").
		Columns("id", "run_id", "source_path", "content_hash", "status", "started_at").
		Values(id.String(), runID, sourcePath, contentHash, string(constants.JobStatusRunning), time.Now().UTC())
	if err := r.db.exec(ctx, q); err != nil {
		r.log.Error("extract_job start failed", "source_path", sourcePath, "err", err)
		return uuid.Nil, err
	}
	r.log.Debug("extract_job started", "job_id", id, "source_path", sourcePath)
	return id, nil
}

func (r *jobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, documentID string, records int) error {
	status := constants.JobStatusSucceeded
	if records == 0 {
		status = constants.JobStatusEmpty
	}
	q := r.db.builder().Update("extract_job").
		Set("status", string(status)).
		Set("document_id", documentID).
		Set("record_count", records).
		Set("finished_at", time.Now().UTC()).
		Where(entsql.EQ("id", jobID.String()))
	if err := r.db.exec(ctx, q); err != nil {
		r.log.Error("extract_job finish failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Debug("extract_job finished", "job_id", jobID, "status", status, "records", records)
	return nil
}

func (r *jobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	q := r.db.builder().Update("extract_job").
		Set("status", string(constants.JobStatusFailed)).
		Set("error_message", message).
		Set("finished_at", time.Now().UTC()).
		Where(entsql.EQ("id", jobID.String()))
	if err := r.db.exec(ctx, q); err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *jobRepo) HasSucceeded(ctx context.Context, contentHash string) (bool, error) {
	query, args := r.db.builder().
		Select(entsql.Count("*")).
		From(entsql.Table("extract_job")).
		Where(entsql.And(
			entsql.EQ("content_hash", contentHash),
			entsql.EQ("status", string(constants.JobStatusSucceeded)),
		)).
		Query()
	var n int
	if err := r.db.drv.DB().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

type nopJobs struct{}

func (nopJobs) Start(context.Context, string, string, string) (uuid.UUID, error) {
	return uuid.Nil, nil
}
func (nopJobs) FinishSuccess(context.Context, uuid.UUID, string, int) error { return nil }
func (nopJobs) FinishFailure(context.Context, uuid.UUID, string) error      { return nil }
func (nopJobs) HasSucceeded(context.Context, string) (bool, error)          { return false, nil }
