// Package pipeline drives a repository through the full dependency-update
// workflow: clone, branch, resolve, validate, and publish. A change request
// is only ever created when every declared check passes, and the scratch
// working directory is removed on every exit path.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/cmccoy02/bridge-engine/domain"
	"github.com/cmccoy02/bridge-engine/internal/npmfile"
)

const (
	// DefaultBranchName is the single well-known branch every run
	// force-creates from the default branch tip.
	DefaultBranchName = "bridge/dependency-updates"

	// DefaultCommandTimeout bounds each validation command. Long-running
	// checks that exceed it are treated as failures, not hangs.
	DefaultCommandTimeout = 10 * time.Minute

	defaultNPMBin = "npm"

	workDirMode = 0o755
)

// The nine ordered phases. Progress is persisted before each phase's work
// begins, so a crashed run leaves the phase it died in on the job record.
const (
	phaseInitialize = iota + 1
	phaseClone
	phaseBranch
	phaseInstallBefore
	phaseUpdate
	phaseInstallAfter
	phaseValidate
	phaseCommitPush
	phasePullRequest

	totalSteps = phasePullRequest
)

var phaseNames = [...]string{
	"initialize",
	"clone",
	"branch",
	"install",
	"update",
	"reinstall",
	"validate",
	"commit-and-push",
	"pull-request",
}

// validationHooks are the script hooks run before any commit, in fixed
// priority order. Only hooks the manifest declares are executed.
var validationHooks = []string{"build", "lint", "test"}

// ErrManifestMissing indicates the cloned repository has no package
// manifest; fatal before any mutation beyond the clone itself.
var ErrManifestMissing = errors.New("package.json not found")

// ErrValidationFailed indicates a declared check failed; the mutated
// working tree is discarded and nothing is pushed.
var ErrValidationFailed = errors.New("validation failed")

// Pipeline executes update jobs against a provider and records progress
// in the job store.
type Pipeline struct {
	store          domain.JobStore
	provider       domain.Provider
	runner         Runner
	git            GitClient
	workRoot       string
	branchName     string
	npmBin         string
	commandTimeout time.Duration
}

// Options customize a Pipeline; zero values fall back to defaults.
type Options struct {
	Runner         Runner
	Git            GitClient
	WorkRoot       string
	BranchName     string
	NPMBin         string
	CommandTimeout time.Duration
}

// New creates a pipeline writing through the given store and talking to
// the given provider.
func New(store domain.JobStore, provider domain.Provider, opts Options) *Pipeline {
	p := &Pipeline{
		store:          store,
		provider:       provider,
		runner:         opts.Runner,
		git:            opts.Git,
		workRoot:       opts.WorkRoot,
		branchName:     opts.BranchName,
		npmBin:         opts.NPMBin,
		commandTimeout: opts.CommandTimeout,
	}
	if p.runner == nil {
		p.runner = NewExecRunner()
	}
	if p.git == nil {
		p.git = NewGitClient()
	}
	if p.workRoot == "" {
		p.workRoot = filepath.Join(os.TempDir(), "bridge-jobs")
	}
	if p.branchName == "" {
		p.branchName = DefaultBranchName
	}
	if p.npmBin == "" {
		p.npmBin = defaultNPMBin
	}
	if p.commandTimeout == 0 {
		p.commandTimeout = DefaultCommandTimeout
	}
	return p
}

// Execute runs one update job to a terminal state. The job record ends as
// exactly one of completed or failed; the error return exists for the
// caller's logging only.
func (p *Pipeline) Execute(ctx context.Context, job *domain.UpdateJob, repo domain.Repository) error {
	if err := p.store.StartJob(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to start job %s: %w", job.ID, err)
	}

	result, runErr := p.run(ctx, job.ID, repo)
	if runErr != nil {
		if result == nil {
			result = &domain.JobResult{Error: runErr.Error()}
		}
		if storeErr := p.store.FailJob(ctx, job.ID, result); storeErr != nil {
			logger.Errorf("Failed to record job %s failure: %v", job.ID, storeErr)
		}
		return runErr
	}

	if storeErr := p.store.CompleteJob(ctx, job.ID, result); storeErr != nil {
		logger.Errorf("Failed to record job %s completion: %v", job.ID, storeErr)
		return storeErr
	}
	return nil
}

// run performs the nine phases and returns the terminal result. The
// scratch directory is created fresh (removing any stale directory from a
// prior interrupted run) and removed again on every exit path.
func (p *Pipeline) run(ctx context.Context, jobID string, repo domain.Repository) (*domain.JobResult, error) {
	workDir := filepath.Join(p.workRoot, "update-"+jobID)
	_ = os.RemoveAll(workDir)
	if err := os.MkdirAll(workDir, workDirMode); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warnf("Failed to remove scratch directory %s: %v", workDir, err)
		}
	}()

	// --- initialize ---
	p.enterPhase(ctx, jobID, phaseInitialize)
	p.log(ctx, jobID, fmt.Sprintf("Validating credentials for %s", repo.FullName()))
	if err := p.provider.ValidateCredential(ctx); err != nil {
		return nil, err
	}

	// --- clone ---
	p.enterPhase(ctx, jobID, phaseClone)
	repoDir := filepath.Join(workDir, "repo")
	defaultBranch := strings.TrimPrefix(repo.DefaultBranch, "refs/heads/")
	p.log(ctx, jobID, fmt.Sprintf("Cloning %s (branch %s)", repo.FullName(), defaultBranch))
	if err := p.git.Clone(ctx, p.provider.CloneURL(repo), defaultBranch, repoDir, p.provider.AuthToken()); err != nil {
		return nil, err
	}

	// --- branch ---
	p.enterPhase(ctx, jobID, phaseBranch)
	manifestPath := filepath.Join(repoDir, npmfile.ManifestName)
	if _, err := os.Stat(manifestPath); err != nil {
		return nil, fmt.Errorf("%w in %s", ErrManifestMissing, repo.FullName())
	}
	p.log(ctx, jobID, fmt.Sprintf("Resetting branch %s to %s tip", p.branchName, defaultBranch))
	if err := p.git.ForceBranch(repoDir, p.branchName); err != nil {
		return nil, err
	}

	// --- install: before snapshot ---
	p.enterPhase(ctx, jobID, phaseInstallBefore)
	lockPath := filepath.Join(repoDir, npmfile.LockfileName)
	p.discardResolutionArtifacts(repoDir, true)
	p.log(ctx, jobID, "Installing dependencies from the declared manifest")
	if err := p.npm(ctx, repoDir, "install"); err != nil {
		return nil, err
	}
	before, err := npmfile.LoadSnapshot(lockPath)
	if err != nil {
		return nil, err
	}

	// --- update ---
	p.enterPhase(ctx, jobID, phaseUpdate)
	p.log(ctx, jobID, "Applying available minor and patch updates")
	if err := p.npm(ctx, repoDir, "update", "--save"); err != nil {
		return nil, err
	}

	// --- reinstall: after snapshot ---
	p.enterPhase(ctx, jobID, phaseInstallAfter)
	p.log(ctx, jobID, "Reinstalling from scratch for a consistent resolution")
	p.discardResolutionArtifacts(repoDir, false)
	if err := p.npm(ctx, repoDir, "install"); err != nil {
		return nil, err
	}
	after, err := npmfile.LoadSnapshot(lockPath)
	if err != nil {
		return nil, err
	}

	// --- validate ---
	p.enterPhase(ctx, jobID, phaseValidate)
	changes := domain.DiffSnapshots(before, after)
	if len(changes) == 0 {
		// No available update is success, not failure.
		p.log(ctx, jobID, "All dependencies already up to date, nothing to publish")
		return &domain.JobResult{}, nil
	}
	p.log(ctx, jobID, fmt.Sprintf("%d package(s) changed, running validation checks", len(changes)))

	manifest, err := npmfile.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	if result, validateErr := p.validate(ctx, jobID, repoDir, manifest); validateErr != nil {
		return result, validateErr
	}

	// --- commit and push ---
	p.enterPhase(ctx, jobID, phaseCommitPush)
	p.log(ctx, jobID, "Committing manifest and lockfile")
	commitPaths := []string{npmfile.ManifestName, npmfile.LockfileName}
	if err = p.git.CommitPaths(repoDir, commitPaths, commitMessage(changes)); err != nil {
		return nil, err
	}
	p.log(ctx, jobID, fmt.Sprintf("Pushing branch %s", p.branchName))
	if err = p.git.Push(ctx, repoDir, p.branchName, p.provider.AuthToken()); err != nil {
		return nil, err
	}

	// --- pull request ---
	p.enterPhase(ctx, jobID, phasePullRequest)
	pr, err := p.provider.CreatePullRequest(ctx, repo, domain.PullRequestInput{
		SourceBranch: p.branchName,
		TargetBranch: defaultBranch,
		Title:        "chore(deps): update npm dependencies",
		Description:  GeneratePRDescription(changes),
	})
	if err != nil {
		return nil, err
	}
	p.log(ctx, jobID, fmt.Sprintf("Opened pull request #%d: %s", pr.Number, pr.URL))

	return &domain.JobResult{
		ChangedPackages: changes,
		PRURL:           pr.URL,
		PRNumber:        pr.Number,
	}, nil
}

// validate runs the declared check hooks in priority order, stopping at
// the first failure. On failure it returns a structured result naming the
// check and carrying a truncated output tail.
func (p *Pipeline) validate(
	ctx context.Context,
	jobID, repoDir string,
	manifest *npmfile.Manifest,
) (*domain.JobResult, error) {
	for _, hook := range validationHooks {
		if !manifest.HasScript(hook) {
			continue
		}

		p.log(ctx, jobID, fmt.Sprintf("Running %s check", hook))
		hookCtx, cancel := context.WithTimeout(ctx, p.commandTimeout)
		output, err := p.runner.Run(hookCtx, repoDir, p.npmBin, "run", hook)
		cancel()

		if err != nil {
			outputTail := tail(output, stderrTailLimit)
			p.log(ctx, jobID, fmt.Sprintf("%s check failed, discarding working tree", hook))
			result := &domain.JobResult{
				Error: fmt.Sprintf("validation check %q failed:\n%s", hook, outputTail),
			}
			return result, fmt.Errorf("%w: %s check: %v", ErrValidationFailed, hook, err)
		}
		p.log(ctx, jobID, fmt.Sprintf("%s check passed", hook))
	}
	return nil, nil
}

// npm runs the package manager in the repository directory.
func (p *Pipeline) npm(ctx context.Context, repoDir string, args ...string) error {
	output, err := p.runner.Run(ctx, repoDir, p.npmBin, args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", p.npmBin, strings.Join(args, " "), err)
	}
	logger.Debugf("[pipeline] %s %s:\n%s", p.npmBin, strings.Join(args, " "), output)
	return nil
}

// discardResolutionArtifacts removes node_modules and, for the before
// snapshot, the lockfile too, so resolution reflects the declared manifest
// rather than leftover state.
func (p *Pipeline) discardResolutionArtifacts(repoDir string, includeLockfile bool) {
	_ = os.RemoveAll(filepath.Join(repoDir, "node_modules"))
	if includeLockfile {
		_ = os.Remove(filepath.Join(repoDir, npmfile.LockfileName))
	}
}

// enterPhase persists phase progress before the phase's work begins.
func (p *Pipeline) enterPhase(ctx context.Context, jobID string, step int) {
	percent := int(math.Round(float64(step) / float64(totalSteps) * 100))
	progress := domain.JobProgress{
		Phase:      phaseNames[step-1],
		Step:       step,
		TotalSteps: totalSteps,
		Percent:    percent,
	}
	if err := p.store.SetProgress(ctx, jobID, progress); err != nil {
		logger.Warnf("Failed to persist progress for job %s: %v", jobID, err)
	}
}

// log appends one line to the job's append-only log.
func (p *Pipeline) log(ctx context.Context, jobID, line string) {
	logger.Debugf("[pipeline] %s: %s", jobID, line)
	if err := p.store.AppendLog(ctx, jobID, line); err != nil {
		logger.Warnf("Failed to append log for job %s: %v", jobID, err)
	}
}

func commitMessage(changes []domain.PackageChange) string {
	return fmt.Sprintf("chore(deps): update %d npm dependencies", len(changes))
}

// GeneratePRDescription builds the markdown body for the change request.
func GeneratePRDescription(changes []domain.PackageChange) string {
	var sb strings.Builder
	sb.WriteString("## Summary\n\n")
	sb.WriteString("This PR applies the available minor and patch dependency updates.\n\n")
	sb.WriteString("### Changes\n\n")
	for _, change := range changes {
		sb.WriteString(fmt.Sprintf("- `%s` %s → %s\n", change.Name, change.From, change.To))
	}
	sb.WriteString("\n### Review Checklist\n\n")
	sb.WriteString("- [ ] Verify build passes\n")
	sb.WriteString("- [ ] Verify tests pass\n")
	sb.WriteString("- [ ] Review dependency changes in lockfile\n")
	return sb.String()
}
