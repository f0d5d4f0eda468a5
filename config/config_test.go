package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmccoy02/bridge-engine/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

//nolint:tparallel // some subtests use t.Setenv which is incompatible with t.Parallel on parent
func TestLoad(t *testing.T) {
	t.Run("should load a full configuration", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, `
provider:
  type: github
  token: ghp_abc123
repositories:
  - organization: acme
    name: web-app
    default_branch: develop
registry:
  timeout: 3s
  batch_size: 10
pipeline:
  branch: bridge/dependency-updates
  command_timeout: 5m
store:
  path: /tmp/bridge-test.db
`)

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "github", cfg.Provider.Type)
		assert.Equal(t, "ghp_abc123", cfg.Provider.Token)
		assert.Equal(t, 3*time.Second, cfg.Registry.Timeout.Std())
		assert.Equal(t, 10, cfg.Registry.BatchSize)
		assert.Equal(t, 5*time.Minute, cfg.Pipeline.CommandTimeout.Std())
		assert.Equal(t, "/tmp/bridge-test.db", cfg.Store.Path)

		repo, err := cfg.Repository("acme/web-app")
		require.NoError(t, err)
		assert.Equal(t, "develop", repo.DefaultBranch)
		assert.Equal(t, "github", repo.ProviderName)
	})

	t.Run("should expand an environment variable token", func(t *testing.T) {
		// NOTE: cannot use t.Parallel() with t.Setenv()

		// given
		t.Setenv("BRIDGE_TEST_TOKEN", "my-secret-token")
		path := writeConfig(t, `
provider:
  type: github
  token: ${BRIDGE_TEST_TOKEN}
`)

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "my-secret-token", cfg.Provider.Token)
	})

	t.Run("should read the token from a file path", func(t *testing.T) {
		t.Parallel()

		// given
		tokenPath := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(tokenPath, []byte("file-token\n"), 0o600))
		path := writeConfig(t, `
provider:
  type: github
  token: `+tokenPath+`
`)

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "file-token", cfg.Provider.Token)
	})

	t.Run("should default the repository branch to main", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, `
provider:
  type: github
  token: tok
repositories:
  - organization: acme
    name: api
`)

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		repo, err := cfg.Repository("acme/api")
		require.NoError(t, err)
		assert.Equal(t, "main", repo.DefaultBranch)
	})

	t.Run("should fail without a provider type", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, `
provider:
  token: tok
`)

		// when
		_, err := config.Load(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "provider.type")
	})

	t.Run("should fail without a token", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, `
provider:
  type: github
`)

		// when
		_, err := config.Load(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "provider.token")
	})

	t.Run("should fail for a repository without a name", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, `
provider:
  type: github
  token: tok
repositories:
  - organization: acme
`)

		// when
		_, err := config.Load(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "repositories[0].name")
	})

	t.Run("should fail for an unknown repository lookup", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, `
provider:
  type: github
  token: tok
`)
		cfg, err := config.Load(path)
		require.NoError(t, err)

		// when
		_, err = cfg.Repository("acme/missing")

		// then
		require.Error(t, err)
	})
}
