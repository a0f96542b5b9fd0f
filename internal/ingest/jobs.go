package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"cv-status/internal/storage"
)

// SyncJob is a queued asynchronous sync.
type SyncJob struct {
	JobID        string
	FolderRef    string
	ForceReparse bool
	Timestamp    time.Time
}

// JobRunner executes sync jobs on a background worker and records progress in sync_jobs.
type JobRunner struct {
	db     *storage.DB
	orch   *Orchestrator
	queue  chan SyncJob
	logger *slog.Logger
	done   chan struct{}
}

func NewJobRunner(db *storage.DB, orch *Orchestrator, queueSize int, logger *slog.Logger) *JobRunner {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &JobRunner{
		db:     db,
		orch:   orch,
		queue:  make(chan SyncJob, queueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start marks jobs left over from a previous process as failed and starts the worker.
// The worker exits when ctx is cancelled.
func (r *JobRunner) Start(ctx context.Context) {
	if n, err := r.db.FailStaleJobs(ctx); err != nil {
		r.logger.Error("failed to reset stale sync jobs", "error", err)
	} else if n > 0 {
		r.logger.Warn("marked interrupted sync jobs as failed", "count", n)
	}
	go r.worker(ctx)
	r.logger.Info("sync worker started")
}

// Done is closed once the worker has exited.
func (r *JobRunner) Done() <-chan struct{} { return r.done }

// Enqueue creates the job row and queues it. A full queue fails the job immediately.
func (r *JobRunner) Enqueue(ctx context.Context, folderRef string, force bool) (*storage.SyncJob, error) {
	job, err := r.db.CreateSyncJob(ctx, folderRef, force)
	if err != nil {
		return nil, err
	}

	select {
	case r.queue <- SyncJob{JobID: job.ID, FolderRef: folderRef, ForceReparse: force, Timestamp: time.Now()}:
		r.logger.Info("queued sync job", "job_id", job.ID, "folder", folderRef)
	default:
		r.logger.Warn("sync queue full, dropping job", "job_id", job.ID)
		if err := r.db.UpdateJobStatus(ctx, job.ID, storage.JobFailed, "", "queue full, job dropped"); err != nil {
			return nil, err
		}
		return r.db.GetSyncJob(ctx, job.ID)
	}
	return job, nil
}

func (r *JobRunner) worker(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-r.queue:
			r.run(ctx, job)
		}
	}
}

func (r *JobRunner) run(ctx context.Context, job SyncJob) {
	// Status writes must land even when the run itself was cancelled.
	bg := context.WithoutCancel(ctx)

	if err := r.db.UpdateJobStatus(bg, job.JobID, storage.JobProcessing, "", ""); err != nil {
		r.logger.Error("failed to update sync job", "job_id", job.JobID, "error", err)
		return
	}

	report, err := r.orch.Sync(ctx, job.FolderRef, job.ForceReparse)
	var encoded string
	if report != nil {
		if b, mErr := json.Marshal(report); mErr == nil {
			encoded = string(b)
		}
	}
	if err != nil {
		r.logger.Error("sync job failed", "job_id", job.JobID, "error", err)
		_ = r.db.UpdateJobStatus(bg, job.JobID, storage.JobFailed, encoded, err.Error())
		return
	}
	if err := r.db.UpdateJobStatus(bg, job.JobID, storage.JobCompleted, encoded, ""); err != nil {
		r.logger.Error("failed to mark sync job completed", "job_id", job.JobID, "error", err)
		return
	}
	r.logger.Info("sync job completed", "job_id", job.JobID, "took", time.Since(job.Timestamp))
}
