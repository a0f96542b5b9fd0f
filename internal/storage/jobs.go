package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"cv-status/internal/apperr"
)

// CreateSyncJob records a queued folder sync and returns its ID.
func (q *queries) CreateSyncJob(ctx context.Context, folderRef string, force bool) (*SyncJob, error) {
	job := &SyncJob{
		ID:           uuid.NewString(),
		FolderRef:    folderRef,
		ForceReparse: force,
		Status:       JobPending,
	}
	now := q.nowMillis()
	_, err := q.exec(ctx, `INSERT INTO sync_jobs (id, folder_ref, force_reparse, status, created_at)
		VALUES (?, ?, ?, ?, ?)`, job.ID, folderRef, force, JobPending, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync job: %w", err)
	}
	job.CreatedAt = fromMillis(now)
	return job, nil
}

// UpdateJobStatus moves a job through pending -> processing -> completed|failed.
// report and errMsg are only stored on completion.
func (q *queries) UpdateJobStatus(ctx context.Context, jobID, jobStatus, report, errMsg string) error {
	now := q.nowMillis()
	var query string
	var args []any
	switch jobStatus {
	case JobProcessing:
		query = `UPDATE sync_jobs SET status = ?, started_at = ? WHERE id = ?`
		args = []any{jobStatus, now, jobID}
	case JobCompleted, JobFailed:
		query = `UPDATE sync_jobs SET status = ?, report_json = ?, error_message = ?, completed_at = ? WHERE id = ?`
		args = []any{jobStatus, report, errMsg, now, jobID}
	default:
		query = `UPDATE sync_jobs SET status = ? WHERE id = ?`
		args = []any{jobStatus, jobID}
	}
	res, err := q.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("sync job", jobID)
	}
	return nil
}

func (q *queries) GetSyncJob(ctx context.Context, jobID string) (*SyncJob, error) {
	var job SyncJob
	var createdAt int64
	var startedAt, completedAt sql.NullInt64
	err := q.queryRow(ctx, `SELECT id, folder_ref, force_reparse, status, report_json, error_message,
			created_at, started_at, completed_at
		FROM sync_jobs WHERE id = ?`, jobID).Scan(&job.ID, &job.FolderRef, &job.ForceReparse, &job.Status,
		&job.ReportJSON, &job.ErrorMessage, &createdAt, &startedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("sync job", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync job: %w", err)
	}
	job.CreatedAt = fromMillis(createdAt)
	job.StartedAt = fromNullMillis(startedAt)
	job.CompletedAt = fromNullMillis(completedAt)
	return &job, nil
}

// FailStaleJobs marks jobs left pending or processing by a previous process as failed.
func (q *queries) FailStaleJobs(ctx context.Context) (int64, error) {
	res, err := q.exec(ctx, `UPDATE sync_jobs SET status = ?, error_message = ?, completed_at = ?
		WHERE status IN (?, ?)`, JobFailed, "interrupted by restart", q.nowMillis(), JobPending, JobProcessing)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
