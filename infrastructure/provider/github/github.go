package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v66/github"

	"github.com/cmccoy02/bridge-engine/domain"
)

const (
	providerName = "github"
	perPage      = 30
)

// ErrAuthenticationFailed indicates the configured token was rejected by
// the GitHub identity endpoint.
var ErrAuthenticationFailed = errors.New("github authentication failed")

// Provider implements domain.Provider for GitHub.
type Provider struct {
	token  string
	client *gh.Client
}

// New creates a new GitHub provider with the given token.
func New(token string) domain.Provider {
	return newWithClient(token, gh.NewClient(nil).WithAuthToken(token))
}

func newWithClient(token string, client *gh.Client) *Provider {
	return &Provider{token: token, client: client}
}

func (p *Provider) Name() string      { return providerName }
func (p *Provider) AuthToken() string { return p.token }

// ValidateCredential checks the token against the authenticated-user
// endpoint. Called before any clone so an expired credential fails the job
// without wasted clone cost.
func (p *Provider) ValidateCredential(ctx context.Context) error {
	if _, _, err := p.client.Users.Get(ctx, ""); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	return nil
}

// CloneURL returns the HTTPS clone URL for the repository.
func (p *Provider) CloneURL(repo domain.Repository) string {
	if repo.RemoteURL != "" {
		return repo.RemoteURL
	}
	return fmt.Sprintf("https://github.com/%s/%s.git", repo.Organization, repo.Name)
}

// CreatePullRequest opens a pull request. A 422 "already exists" response
// is normalized into success by looking up and reusing the open pull
// request for the same head/base pair.
func (p *Provider) CreatePullRequest(
	ctx context.Context,
	repo domain.Repository,
	input domain.PullRequestInput,
) (*domain.PullRequest, error) {
	head := shortBranch(input.SourceBranch)
	base := shortBranch(input.TargetBranch)

	created, resp, err := p.client.PullRequests.Create(ctx, repo.Organization, repo.Name, &gh.NewPullRequest{
		Title: gh.String(input.Title),
		Body:  gh.String(input.Description),
		Head:  gh.String(head),
		Base:  gh.String(base),
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			existing, findErr := p.FindOpenPullRequest(ctx, repo, input.SourceBranch)
			if findErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}

	return toPullRequest(created), nil
}

// FindOpenPullRequest returns the open pull request from sourceBranch into
// the repository's default branch, or nil when none exists.
func (p *Provider) FindOpenPullRequest(
	ctx context.Context,
	repo domain.Repository,
	sourceBranch string,
) (*domain.PullRequest, error) {
	opts := &gh.PullRequestListOptions{
		State:       "open",
		Head:        repo.Organization + ":" + shortBranch(sourceBranch),
		Base:        shortBranch(repo.DefaultBranch),
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	prs, _, err := p.client.PullRequests.List(ctx, repo.Organization, repo.Name, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests: %w", err)
	}
	if len(prs) == 0 {
		return nil, nil
	}
	return toPullRequest(prs[0]), nil
}

func toPullRequest(pr *gh.PullRequest) *domain.PullRequest {
	return &domain.PullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		URL:    pr.GetHTMLURL(),
	}
}

// shortBranch strips the refs/heads/ prefix when present.
func shortBranch(branch string) string {
	return strings.TrimPrefix(branch, "refs/heads/")
}
