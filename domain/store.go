package domain

import (
	"context"
	"errors"
)

// ErrJobNotFound is returned by JobStore lookups for unknown job IDs.
var ErrJobNotFound = errors.New("job not found")

// JobStore persists job and scan records. The pipeline writes progress and
// logs through it after every phase; writes for phase N are durably
// recorded before phase N+1 begins.
type JobStore interface {
	// CreateJob inserts a new pending job record.
	CreateJob(ctx context.Context, job *UpdateJob) error

	// StartJob marks a pending job as running and stamps StartedAt.
	StartJob(ctx context.Context, jobID string) error

	// SetProgress overwrites the job's progress fields.
	SetProgress(ctx context.Context, jobID string, progress JobProgress) error

	// AppendLog appends one line to the job's append-only log text.
	AppendLog(ctx context.Context, jobID string, line string) error

	// CompleteJob terminates the job as completed with the given result.
	CompleteJob(ctx context.Context, jobID string, result *JobResult) error

	// FailJob terminates the job as failed with the given result.
	FailJob(ctx context.Context, jobID string, result *JobResult) error

	// GetJob returns a job record by ID.
	GetJob(ctx context.Context, jobID string) (*UpdateJob, error)

	// ListJobs returns the most recent job records, newest first.
	ListJobs(ctx context.Context, limit int) ([]*UpdateJob, error)

	// SaveScan persists a scan result for a repository.
	SaveScan(ctx context.Context, repositoryID string, result *ScanResult) error

	// GetScan returns the most recent scan result for a repository,
	// or nil when the repository has never been scanned.
	GetScan(ctx context.Context, repositoryID string) (*ScanResult, error)
}
