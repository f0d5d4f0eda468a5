package github //nolint:testpackage // tests unexported constructor wiring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	gh "github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmccoy02/bridge-engine/domain"
)

func newTestProvider(t *testing.T, handler http.Handler) (*Provider, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := gh.NewClient(nil)
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = baseURL

	return newWithClient("test-token", client), server
}

func TestProvider_ValidateCredential(t *testing.T) {
	t.Parallel()

	t.Run("should accept a valid credential", func(t *testing.T) {
		t.Parallel()

		// given
		provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/user", r.URL.Path)
			_, _ = w.Write([]byte(`{"login": "bridge-bot"}`))
		}))

		// when
		err := provider.ValidateCredential(context.Background())

		// then
		require.NoError(t, err)
	})

	t.Run("should reject an expired credential before any clone", func(t *testing.T) {
		t.Parallel()

		// given
		provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		// when
		err := provider.ValidateCredential(context.Background())

		// then
		require.ErrorIs(t, err, ErrAuthenticationFailed)
	})
}

func TestProvider_CloneURL(t *testing.T) {
	t.Parallel()

	t.Run("should prefer the repository remote URL", func(t *testing.T) {
		t.Parallel()

		provider := New("token")
		repo := domain.Repository{RemoteURL: "https://github.com/acme/widgets.git"}

		assert.Equal(t, "https://github.com/acme/widgets.git", provider.CloneURL(repo))
	})

	t.Run("should derive a URL from org and name", func(t *testing.T) {
		t.Parallel()

		provider := New("token")
		repo := domain.Repository{Organization: "acme", Name: "widgets"}

		assert.Equal(t, "https://github.com/acme/widgets.git", provider.CloneURL(repo))
	})
}

func TestProvider_CreatePullRequest(t *testing.T) {
	t.Parallel()

	repo := domain.Repository{
		Organization:  "acme",
		Name:          "widgets",
		DefaultBranch: "main",
	}
	input := domain.PullRequestInput{
		SourceBranch: "refs/heads/bridge/dependency-updates",
		TargetBranch: "main",
		Title:        "chore(deps): update npm dependencies",
		Description:  "body",
	}

	t.Run("should create a pull request", func(t *testing.T) {
		t.Parallel()

		// given
		provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/repos/acme/widgets/pulls", r.URL.Path)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"number": 7, "title": "chore(deps): update npm dependencies",
				"html_url": "https://github.com/acme/widgets/pull/7"}`))
		}))

		// when
		pr, err := provider.CreatePullRequest(context.Background(), repo, input)

		// then
		require.NoError(t, err)
		assert.Equal(t, 7, pr.Number)
		assert.Equal(t, "https://github.com/acme/widgets/pull/7", pr.URL)
	})

	t.Run("should reuse the existing pull request on a 422 conflict", func(t *testing.T) {
		t.Parallel()

		// given
		provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(`{"message": "Validation Failed",
					"errors": [{"message": "A pull request already exists"}]}`))
				return
			}
			assert.Equal(t, "acme:bridge/dependency-updates", r.URL.Query().Get("head"))
			assert.Equal(t, "main", r.URL.Query().Get("base"))
			_, _ = w.Write([]byte(`[{"number": 3, "html_url": "https://github.com/acme/widgets/pull/3"}]`))
		}))

		// when
		pr, err := provider.CreatePullRequest(context.Background(), repo, input)

		// then
		require.NoError(t, err)
		assert.Equal(t, 3, pr.Number)
	})

	t.Run("should surface other API errors", func(t *testing.T) {
		t.Parallel()

		// given
		provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))

		// when
		_, err := provider.CreatePullRequest(context.Background(), repo, input)

		// then
		require.Error(t, err)
	})
}

func TestProvider_FindOpenPullRequest(t *testing.T) {
	t.Parallel()

	t.Run("should return nil when no open pull request exists", func(t *testing.T) {
		t.Parallel()

		// given
		provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}))
		repo := domain.Repository{Organization: "acme", Name: "widgets", DefaultBranch: "main"}

		// when
		pr, err := provider.FindOpenPullRequest(context.Background(), repo, "bridge/dependency-updates")

		// then
		require.NoError(t, err)
		assert.Nil(t, pr)
	})
}
