// Package testdoubles provides test doubles (spies, stubs, fakes) for domain
// interfaces. These are hand-crafted implementations — no mock frameworks.
package testdoubles

import (
	"context"
	"sync"

	"github.com/cmccoy02/bridge-engine/domain"
)

// ---------------------------------------------------------------------------
// StubMetadataSource
// ---------------------------------------------------------------------------

// StubMetadataSource implements domain.MetadataSource from a fixed map.
// Packages absent from the map get zero metadata, mirroring the real
// source's graceful degradation.
type StubMetadataSource struct {
	Metadata map[string]domain.PackageMetadata

	// spy: names fetched
	FetchedNames []string
}

func (s *StubMetadataSource) Fetch(_ context.Context, name string) domain.PackageMetadata {
	s.FetchedNames = append(s.FetchedNames, name)
	return s.Metadata[name]
}

func (s *StubMetadataSource) FetchAll(ctx context.Context, names []string) map[string]domain.PackageMetadata {
	result := make(map[string]domain.PackageMetadata, len(names))
	for _, name := range names {
		result[name] = s.Fetch(ctx, name)
	}
	return result
}

// ---------------------------------------------------------------------------
// SpyProvider
// ---------------------------------------------------------------------------

// SpyProvider implements domain.Provider as a configurable spy.
// Configure the response fields for the methods your test exercises,
// then inspect the call-tracking fields to verify behavior.
type SpyProvider struct {
	// --- identity ---
	ProviderName string
	Token        string

	// --- ValidateCredential ---
	ValidateErr error
	// spy: number of validation calls
	ValidateCalls int

	// --- CloneURL ---
	URL string

	// --- CreatePullRequest ---
	CreatedPR   *domain.PullRequest
	CreatePRErr error
	// spy: inputs received
	PRInputs []domain.PullRequestInput

	// --- FindOpenPullRequest ---
	OpenPR      *domain.PullRequest
	FindOpenErr error
	// spy: branch names looked up
	FindOpenBranches []string
}

func (s *SpyProvider) Name() string {
	if s.ProviderName == "" {
		return "spy"
	}
	return s.ProviderName
}

func (s *SpyProvider) ValidateCredential(_ context.Context) error {
	s.ValidateCalls++
	return s.ValidateErr
}

func (s *SpyProvider) CloneURL(repo domain.Repository) string {
	if s.URL != "" {
		return s.URL
	}
	return "https://example.com/" + repo.FullName() + ".git"
}

func (s *SpyProvider) CreatePullRequest(
	_ context.Context, _ domain.Repository, input domain.PullRequestInput,
) (*domain.PullRequest, error) {
	s.PRInputs = append(s.PRInputs, input)
	if s.CreatePRErr != nil {
		return nil, s.CreatePRErr
	}
	return s.CreatedPR, nil
}

func (s *SpyProvider) FindOpenPullRequest(
	_ context.Context, _ domain.Repository, sourceBranch string,
) (*domain.PullRequest, error) {
	s.FindOpenBranches = append(s.FindOpenBranches, sourceBranch)
	return s.OpenPR, s.FindOpenErr
}

func (s *SpyProvider) AuthToken() string { return s.Token }

// ---------------------------------------------------------------------------
// SpyJobStore
// ---------------------------------------------------------------------------

// SpyJobStore implements domain.JobStore in memory, recording every
// mutation so tests can assert on the job's lifecycle.
type SpyJobStore struct {
	mu sync.Mutex

	Jobs  map[string]*domain.UpdateJob
	Scans map[string]*domain.ScanResult

	// spy: phase progress writes in order
	ProgressWrites []domain.JobProgress
	// spy: appended log lines in order
	LogLines []string

	// error injection, applied to the matching method when set
	CreateErr   error
	StartErr    error
	CompleteErr error
	FailErr     error
}

func NewSpyJobStore() *SpyJobStore {
	return &SpyJobStore{
		Jobs:  make(map[string]*domain.UpdateJob),
		Scans: make(map[string]*domain.ScanResult),
	}
}

func (s *SpyJobStore) CreateJob(_ context.Context, job *domain.UpdateJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	stored := *job
	s.Jobs[job.ID] = &stored
	return nil
}

func (s *SpyJobStore) StartJob(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StartErr != nil {
		return s.StartErr
	}
	job, err := s.lookup(jobID)
	if err != nil {
		return err
	}
	job.Status = domain.JobRunning
	return nil
}

func (s *SpyJobStore) SetProgress(_ context.Context, jobID string, progress domain.JobProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.lookup(jobID)
	if err != nil {
		return err
	}
	job.Progress = progress
	s.ProgressWrites = append(s.ProgressWrites, progress)
	return nil
}

func (s *SpyJobStore) AppendLog(_ context.Context, jobID string, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.lookup(jobID)
	if err != nil {
		return err
	}
	job.Logs += line + "\n"
	s.LogLines = append(s.LogLines, line)
	return nil
}

func (s *SpyJobStore) CompleteJob(_ context.Context, jobID string, result *domain.JobResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CompleteErr != nil {
		return s.CompleteErr
	}
	return s.terminate(jobID, domain.JobCompleted, result)
}

func (s *SpyJobStore) FailJob(_ context.Context, jobID string, result *domain.JobResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailErr != nil {
		return s.FailErr
	}
	return s.terminate(jobID, domain.JobFailed, result)
}

func (s *SpyJobStore) GetJob(_ context.Context, jobID string) (*domain.UpdateJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.lookup(jobID)
	if err != nil {
		return nil, err
	}
	copied := *job
	return &copied, nil
}

func (s *SpyJobStore) ListJobs(_ context.Context, limit int) ([]*domain.UpdateJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := make([]*domain.UpdateJob, 0, len(s.Jobs))
	for _, job := range s.Jobs {
		copied := *job
		jobs = append(jobs, &copied)
		if len(jobs) == limit {
			break
		}
	}
	return jobs, nil
}

func (s *SpyJobStore) SaveScan(_ context.Context, repositoryID string, result *domain.ScanResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Scans[repositoryID] = result
	return nil
}

func (s *SpyJobStore) GetScan(_ context.Context, repositoryID string) (*domain.ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Scans[repositoryID], nil
}

func (s *SpyJobStore) lookup(jobID string) (*domain.UpdateJob, error) {
	job, found := s.Jobs[jobID]
	if !found {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

func (s *SpyJobStore) terminate(jobID string, status domain.JobStatus, result *domain.JobResult) error {
	job, err := s.lookup(jobID)
	if err != nil {
		return err
	}
	job.Status = status
	job.Result = result
	return nil
}
