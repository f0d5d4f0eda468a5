package domain

import "context"

// Provider abstracts a Git hosting service (GitHub, GitLab, ...).
// Each implementation handles credential validation, authenticated clone
// URLs, and pull request management for its platform.
type Provider interface {
	// Name returns the provider identifier (e.g. "github").
	Name() string

	// ValidateCredential checks the configured token against the host's
	// identity endpoint. It must be called before any mutation; an invalid
	// or expired credential fails the job before a clone is attempted.
	ValidateCredential(ctx context.Context) error

	// CloneURL returns the HTTPS clone URL for the repository.
	CloneURL(repo Repository) string

	// CreatePullRequest creates a pull request on the hosting service.
	// When an open pull request already exists for the same source and
	// target branches the existing one is returned instead of an error.
	CreatePullRequest(ctx context.Context, repo Repository, input PullRequestInput) (*PullRequest, error)

	// FindOpenPullRequest returns the open pull request for the given
	// source branch, or nil when none exists.
	FindOpenPullRequest(ctx context.Context, repo Repository, sourceBranch string) (*PullRequest, error)

	// AuthToken returns the authentication token configured for this provider.
	AuthToken() string
}
