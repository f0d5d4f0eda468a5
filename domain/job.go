package domain

import "time"

// JobType identifies the kind of background job.
type JobType string

const (
	JobTypeScan   JobType = "scan"
	JobTypeUpdate JobType = "update"
)

// JobStatus is the lifecycle state of a job. A job is created pending,
// moves to running on its first phase, and terminates in exactly one of
// completed or failed, after which it is never mutated again.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// JobProgress reports which phase a job is in and how far along it is.
type JobProgress struct {
	Phase      string `json:"phase"`
	Step       int    `json:"step"`
	TotalSteps int    `json:"totalSteps"`
	Percent    int    `json:"percent"`
}

// JobResult is the terminal payload of an update job: either the list of
// changed packages (possibly empty, with the PR fields set only when a
// change request was published) or an error message.
type JobResult struct {
	ChangedPackages []PackageChange `json:"changedPackages,omitempty"`
	PRURL           string          `json:"prUrl,omitempty"`
	PRNumber        int             `json:"prNumber,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// UpdateJob is one pipeline run's record in the job store.
type UpdateJob struct {
	ID           string
	RepositoryID string
	Type         JobType
	Status       JobStatus
	Progress     JobProgress
	Logs         string
	Result       *JobResult
	StartedAt    time.Time
	CompletedAt  time.Time
}
