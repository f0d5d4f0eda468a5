package pipeline

import (
	"context"
	"fmt"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

const (
	commitAuthorName  = "bridge-bot"
	commitAuthorEmail = "bridge-bot@users.noreply.github.com"

	// Username accompanying a token over HTTPS basic auth; GitHub ignores
	// it as long as the password carries the token.
	tokenUsername = "x-access-token"
)

// GitClient covers the repository operations the pipeline needs. go-git
// performs them in-process, so no credential prompt can ever be issued.
type GitClient interface {
	// Clone clones branch from url into dir.
	Clone(ctx context.Context, url, branch, dir, token string) error

	// ForceBranch creates (or resets) a branch at the current default
	// branch tip and checks it out.
	ForceBranch(dir, name string) error

	// CommitPaths stages exactly the given paths and commits them.
	CommitPaths(dir string, paths []string, message string) error

	// Push force-pushes the branch to origin, overwriting any stale
	// branch left by a prior failed run.
	Push(ctx context.Context, dir, branch, token string) error
}

type goGitClient struct{}

// NewGitClient returns the go-git backed client.
func NewGitClient() GitClient { return goGitClient{} }

func (goGitClient) Clone(ctx context.Context, url, branch, dir, token string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           url,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Depth:         1,
		Auth:          basicAuth(token),
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", url, err)
	}
	return nil
}

// ForceBranch points the branch ref at the current HEAD and checks it out,
// so a re-run never accumulates commits from a prior failed attempt.
func (goGitClient) ForceBranch(dir, name string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(name)
	if setErr := repo.Storer.SetReference(plumbing.NewHashReference(branchRef, head.Hash())); setErr != nil {
		return fmt.Errorf("failed to create branch %q: %w", name, setErr)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	if checkoutErr := worktree.Checkout(&git.CheckoutOptions{Branch: branchRef}); checkoutErr != nil {
		return fmt.Errorf("failed to checkout branch %q: %w", name, checkoutErr)
	}
	return nil
}

func (goGitClient) CommitPaths(dir string, paths []string, message string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	for _, path := range paths {
		if _, addErr := worktree.Add(path); addErr != nil {
			return fmt.Errorf("failed to stage %q: %w", path, addErr)
		}
	}

	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  commitAuthorName,
			Email: commitAuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (goGitClient) Push(ctx context.Context, dir, branch, token string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	refSpec := config.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/heads/%s", branch, branch))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       basicAuth(token),
		Force:      true,
	})
	if err != nil {
		return fmt.Errorf("failed to push branch %q: %w", branch, err)
	}
	return nil
}

func basicAuth(token string) *githttp.BasicAuth {
	if token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: tokenUsername, Password: token}
}
