package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmccoy02/bridge-engine/domain"
	"github.com/cmccoy02/bridge-engine/infrastructure/pipeline"
	testdoubles "github.com/cmccoy02/bridge-engine/test"
)

const testManifest = `{
  "name": "app",
  "version": "1.0.0",
  "dependencies": { "lodash": "^4.17.20" },
  "scripts": { "build": "tsc", "test": "jest" }
}`

const lockfileBefore = `{
  "lockfileVersion": 3,
  "packages": {
    "": { "name": "app" },
    "node_modules/lodash": { "version": "4.17.20" }
  }
}`

const lockfileAfter = `{
  "lockfileVersion": 3,
  "packages": {
    "": { "name": "app" },
    "node_modules/lodash": { "version": "4.17.21" }
  }
}`

// fakeGit implements pipeline.GitClient. Clone materializes the configured
// files into the target directory so the later phases have a tree to work on.
type fakeGit struct {
	files map[string]string

	ClonedURLs     []string
	ForcedBranches []string
	CommittedPaths []string
	CommitMessage  string
	PushedBranches []string
}

func (g *fakeGit) Clone(_ context.Context, url, _, dir, _ string) error {
	g.ClonedURLs = append(g.ClonedURLs, url)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, content := range g.files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (g *fakeGit) ForceBranch(_, name string) error {
	g.ForcedBranches = append(g.ForcedBranches, name)
	return nil
}

func (g *fakeGit) CommitPaths(_ string, paths []string, message string) error {
	g.CommittedPaths = append(g.CommittedPaths, paths...)
	g.CommitMessage = message
	return nil
}

func (g *fakeGit) Push(_ context.Context, _, branch, _ string) error {
	g.PushedBranches = append(g.PushedBranches, branch)
	return nil
}

// fakeRunner implements pipeline.Runner. Each "install" writes the next
// configured lockfile so the before/after snapshots differ when the test
// wants them to; the configured hook fails with a tool error.
type fakeRunner struct {
	lockfiles []string
	failHook  string

	installs int
	Commands [][]string
}

func (r *fakeRunner) Run(_ context.Context, dir, name string, args ...string) (string, error) {
	r.Commands = append(r.Commands, append([]string{name}, args...))

	if len(args) > 0 && args[0] == "install" {
		index := r.installs
		if index >= len(r.lockfiles) {
			index = len(r.lockfiles) - 1
		}
		r.installs++
		lockPath := filepath.Join(dir, "package-lock.json")
		if err := os.WriteFile(lockPath, []byte(r.lockfiles[index]), 0o644); err != nil {
			return "", err
		}
	}

	if len(args) > 1 && args[0] == "run" && args[1] == r.failHook {
		return "Error: 3 tests failed", &pipeline.ToolError{
			Command:    name + " run " + args[1],
			ExitCode:   1,
			StderrTail: "3 tests failed",
		}
	}
	return "", nil
}

func (r *fakeRunner) ran(args ...string) bool {
	for _, command := range r.Commands {
		if len(command) != len(args) {
			continue
		}
		match := true
		for i := range args {
			if command[i] != args[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

type harness struct {
	store    *testdoubles.SpyJobStore
	provider *testdoubles.SpyProvider
	git      *fakeGit
	runner   *fakeRunner
	pipeline *pipeline.Pipeline
	job      *domain.UpdateJob
	repo     domain.Repository
}

func newHarness(t *testing.T, git *fakeGit, runner *fakeRunner) *harness {
	t.Helper()

	store := testdoubles.NewSpyJobStore()
	provider := &testdoubles.SpyProvider{
		Token:     "test-token",
		CreatedPR: &domain.PullRequest{Number: 42, URL: "https://example.com/pr/42"},
	}
	job := &domain.UpdateJob{ID: "job-1", RepositoryID: "repo-1", Type: domain.JobTypeUpdate, Status: domain.JobPending}
	require.NoError(t, store.CreateJob(context.Background(), job))

	return &harness{
		store:    store,
		provider: provider,
		git:      git,
		runner:   runner,
		pipeline: pipeline.New(store, provider, pipeline.Options{
			Runner:   runner,
			Git:      git,
			WorkRoot: t.TempDir(),
		}),
		job: job,
		repo: domain.Repository{
			ID:            "repo-1",
			Name:          "web-app",
			Organization:  "acme",
			DefaultBranch: "main",
		},
	}
}

func TestPipeline_Execute(t *testing.T) {
	t.Parallel()

	t.Run("should publish a pull request when updates change the lockfile and checks pass", func(t *testing.T) {
		t.Parallel()

		// given
		git := &fakeGit{files: map[string]string{"package.json": testManifest}}
		runner := &fakeRunner{lockfiles: []string{lockfileBefore, lockfileAfter}}
		h := newHarness(t, git, runner)

		// when
		err := h.pipeline.Execute(context.Background(), h.job, h.repo)

		// then
		require.NoError(t, err)
		job, err := h.store.GetJob(context.Background(), "job-1")
		require.NoError(t, err)
		assert.Equal(t, domain.JobCompleted, job.Status)
		require.NotNil(t, job.Result)
		assert.Equal(t, []domain.PackageChange{
			{Name: "lodash", From: "4.17.20", To: "4.17.21"},
		}, job.Result.ChangedPackages)
		assert.Equal(t, "https://example.com/pr/42", job.Result.PRURL)
		assert.Equal(t, 42, job.Result.PRNumber)

		assert.True(t, runner.ran("npm", "update", "--save"))
		assert.True(t, runner.ran("npm", "run", "build"))
		assert.True(t, runner.ran("npm", "run", "test"))
		assert.Equal(t, []string{pipeline.DefaultBranchName}, git.PushedBranches)
		assert.ElementsMatch(t, []string{"package.json", "package-lock.json"}, git.CommittedPaths)

		require.Len(t, h.provider.PRInputs, 1)
		assert.Equal(t, pipeline.DefaultBranchName, h.provider.PRInputs[0].SourceBranch)
		assert.Equal(t, "main", h.provider.PRInputs[0].TargetBranch)
		assert.Contains(t, h.provider.PRInputs[0].Description, "`lodash` 4.17.20 → 4.17.21")
	})

	t.Run("should complete without pushing when the lockfile is unchanged", func(t *testing.T) {
		t.Parallel()

		// given
		git := &fakeGit{files: map[string]string{"package.json": testManifest}}
		runner := &fakeRunner{lockfiles: []string{lockfileBefore, lockfileBefore}}
		h := newHarness(t, git, runner)

		// when
		err := h.pipeline.Execute(context.Background(), h.job, h.repo)

		// then
		require.NoError(t, err)
		job, err := h.store.GetJob(context.Background(), "job-1")
		require.NoError(t, err)
		assert.Equal(t, domain.JobCompleted, job.Status)
		require.NotNil(t, job.Result)
		assert.Empty(t, job.Result.ChangedPackages)
		assert.Empty(t, job.Result.PRURL)

		assert.Empty(t, git.PushedBranches)
		assert.Empty(t, git.CommittedPaths)
		assert.Empty(t, h.provider.PRInputs)
		assert.False(t, runner.ran("npm", "run", "build"), "checks should be skipped with no changes")
	})

	t.Run("should stay quiet across repeated runs with nothing to update", func(t *testing.T) {
		t.Parallel()

		// given
		git := &fakeGit{files: map[string]string{"package.json": testManifest}}
		runner := &fakeRunner{lockfiles: []string{lockfileBefore}}
		h := newHarness(t, git, runner)
		secondJob := &domain.UpdateJob{ID: "job-2", RepositoryID: "repo-1", Type: domain.JobTypeUpdate, Status: domain.JobPending}
		require.NoError(t, h.store.CreateJob(context.Background(), secondJob))

		// when
		require.NoError(t, h.pipeline.Execute(context.Background(), h.job, h.repo))
		require.NoError(t, h.pipeline.Execute(context.Background(), secondJob, h.repo))

		// then
		for _, jobID := range []string{"job-1", "job-2"} {
			job, err := h.store.GetJob(context.Background(), jobID)
			require.NoError(t, err)
			assert.Equal(t, domain.JobCompleted, job.Status)
			require.NotNil(t, job.Result)
			assert.Empty(t, job.Result.ChangedPackages)
			assert.Empty(t, job.Result.PRURL)
		}
		assert.Empty(t, git.PushedBranches)
		assert.Empty(t, git.CommittedPaths)
		assert.Empty(t, h.provider.PRInputs)
	})

	t.Run("should fail the job and skip publishing when a check fails", func(t *testing.T) {
		t.Parallel()

		// given
		git := &fakeGit{files: map[string]string{"package.json": testManifest}}
		runner := &fakeRunner{lockfiles: []string{lockfileBefore, lockfileAfter}, failHook: "test"}
		h := newHarness(t, git, runner)

		// when
		err := h.pipeline.Execute(context.Background(), h.job, h.repo)

		// then
		require.ErrorIs(t, err, pipeline.ErrValidationFailed)
		job, getErr := h.store.GetJob(context.Background(), "job-1")
		require.NoError(t, getErr)
		assert.Equal(t, domain.JobFailed, job.Status)
		require.NotNil(t, job.Result)
		assert.Contains(t, job.Result.Error, `validation check "test" failed`)
		assert.Contains(t, job.Result.Error, "3 tests failed")

		assert.True(t, runner.ran("npm", "run", "build"), "build runs before the failing test check")
		assert.Empty(t, git.PushedBranches)
		assert.Empty(t, h.provider.PRInputs)
	})

	t.Run("should fail before mutating anything when the repository has no manifest", func(t *testing.T) {
		t.Parallel()

		// given
		git := &fakeGit{files: map[string]string{}}
		runner := &fakeRunner{lockfiles: []string{lockfileBefore}}
		h := newHarness(t, git, runner)

		// when
		err := h.pipeline.Execute(context.Background(), h.job, h.repo)

		// then
		require.ErrorIs(t, err, pipeline.ErrManifestMissing)
		job, getErr := h.store.GetJob(context.Background(), "job-1")
		require.NoError(t, getErr)
		assert.Equal(t, domain.JobFailed, job.Status)
		assert.Empty(t, git.ForcedBranches)
		assert.Empty(t, runner.Commands)
	})

	t.Run("should fail before cloning when the credential is invalid", func(t *testing.T) {
		t.Parallel()

		// given
		git := &fakeGit{files: map[string]string{"package.json": testManifest}}
		runner := &fakeRunner{lockfiles: []string{lockfileBefore}}
		h := newHarness(t, git, runner)
		credentialErr := errors.New("bad credentials")
		h.provider.ValidateErr = credentialErr

		// when
		err := h.pipeline.Execute(context.Background(), h.job, h.repo)

		// then
		require.ErrorIs(t, err, credentialErr)
		job, getErr := h.store.GetJob(context.Background(), "job-1")
		require.NoError(t, getErr)
		assert.Equal(t, domain.JobFailed, job.Status)
		assert.Empty(t, git.ClonedURLs)
	})

	t.Run("should record progress for every phase up to completion", func(t *testing.T) {
		t.Parallel()

		// given
		git := &fakeGit{files: map[string]string{"package.json": testManifest}}
		runner := &fakeRunner{lockfiles: []string{lockfileBefore, lockfileAfter}}
		h := newHarness(t, git, runner)

		// when
		err := h.pipeline.Execute(context.Background(), h.job, h.repo)

		// then
		require.NoError(t, err)
		require.Len(t, h.store.ProgressWrites, 9)
		for i, progress := range h.store.ProgressWrites {
			assert.Equal(t, i+1, progress.Step)
			assert.Equal(t, 9, progress.TotalSteps)
		}
		assert.Equal(t, "initialize", h.store.ProgressWrites[0].Phase)
		assert.Equal(t, "pull-request", h.store.ProgressWrites[8].Phase)
		assert.Equal(t, 100, h.store.ProgressWrites[8].Percent)
	})

	t.Run("should remove the scratch directory on success and on failure", func(t *testing.T) {
		t.Parallel()

		// given
		workRoot := t.TempDir()
		git := &fakeGit{files: map[string]string{}}
		runner := &fakeRunner{lockfiles: []string{lockfileBefore}}
		store := testdoubles.NewSpyJobStore()
		provider := &testdoubles.SpyProvider{Token: "test-token"}
		job := &domain.UpdateJob{ID: "job-2", Status: domain.JobPending}
		require.NoError(t, store.CreateJob(context.Background(), job))
		p := pipeline.New(store, provider, pipeline.Options{Runner: runner, Git: git, WorkRoot: workRoot})

		// when
		err := p.Execute(context.Background(), job, domain.Repository{Name: "web-app", Organization: "acme", DefaultBranch: "main"})

		// then
		require.Error(t, err)
		entries, readErr := os.ReadDir(workRoot)
		require.NoError(t, readErr)
		assert.Empty(t, entries, "scratch directory should be removed even when the run fails")
	})
}
