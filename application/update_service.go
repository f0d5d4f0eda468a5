package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/cmccoy02/bridge-engine/domain"
)

// ErrJobAlreadyRunning is returned when a repository already has an active
// job of the requested type; the caller gets the running job's ID in the
// wrapping message instead of a second concurrent run.
var ErrJobAlreadyRunning = errors.New("job already running")

// UpdateExecutor runs one update job to a terminal state.
// Satisfied by the pipeline.
type UpdateExecutor interface {
	Execute(ctx context.Context, job *domain.UpdateJob, repo domain.Repository) error
}

type jobKey struct {
	repositoryID string
	jobType      domain.JobType
}

// UpdateService creates and launches update jobs, enforcing at most one
// active job per repository and job type.
type UpdateService struct {
	store    domain.JobStore
	executor UpdateExecutor

	mu     sync.Mutex
	active map[jobKey]string
}

// NewUpdateService creates an update service.
func NewUpdateService(store domain.JobStore, executor UpdateExecutor) *UpdateService {
	return &UpdateService{
		store:    store,
		executor: executor,
		active:   make(map[jobKey]string),
	}
}

// Run executes an update job for the repository synchronously and returns
// its terminal record.
func (s *UpdateService) Run(ctx context.Context, repo domain.Repository) (*domain.UpdateJob, error) {
	job, err := s.acquire(ctx, repo)
	if err != nil {
		return nil, err
	}
	defer s.release(repo, domain.JobTypeUpdate)

	if execErr := s.executor.Execute(ctx, job, repo); execErr != nil {
		logger.Errorf("Update job %s failed: %v", job.ID, execErr)
	}
	return s.store.GetJob(ctx, job.ID)
}

// Start launches an update job for the repository in the background and
// returns the pending job record immediately. The caller's process must
// outlive the job; one-shot callers should use Run instead.
func (s *UpdateService) Start(ctx context.Context, repo domain.Repository) (*domain.UpdateJob, error) {
	job, err := s.acquire(ctx, repo)
	if err != nil {
		return nil, err
	}

	// The job outlives the request that started it.
	jobCtx := context.WithoutCancel(ctx)
	go func() {
		defer s.release(repo, domain.JobTypeUpdate)
		if execErr := s.executor.Execute(jobCtx, job, repo); execErr != nil {
			logger.Errorf("Update job %s failed: %v", job.ID, execErr)
		}
	}()
	return job, nil
}

// GetJob returns a job record by ID.
func (s *UpdateService) GetJob(ctx context.Context, jobID string) (*domain.UpdateJob, error) {
	return s.store.GetJob(ctx, jobID)
}

// ListJobs returns the most recent job records, newest first.
func (s *UpdateService) ListJobs(ctx context.Context, limit int) ([]*domain.UpdateJob, error) {
	return s.store.ListJobs(ctx, limit)
}

// acquire registers the (repository, type) slot and creates the pending
// job record, failing when the slot is taken.
func (s *UpdateService) acquire(ctx context.Context, repo domain.Repository) (*domain.UpdateJob, error) {
	key := jobKey{repositoryID: repo.ID, jobType: domain.JobTypeUpdate}

	s.mu.Lock()
	if runningID, taken := s.active[key]; taken {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w for %s (job %s)", ErrJobAlreadyRunning, repo.FullName(), runningID)
	}

	job := &domain.UpdateJob{
		ID:           newJobID(),
		RepositoryID: repo.ID,
		Type:         domain.JobTypeUpdate,
		Status:       domain.JobPending,
	}
	s.active[key] = job.ID
	s.mu.Unlock()

	if err := s.store.CreateJob(ctx, job); err != nil {
		s.release(repo, domain.JobTypeUpdate)
		return nil, err
	}
	return job, nil
}

func (s *UpdateService) release(repo domain.Repository, jobType domain.JobType) {
	s.mu.Lock()
	delete(s.active, jobKey{repositoryID: repo.ID, jobType: jobType})
	s.mu.Unlock()
}

func newJobID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}
