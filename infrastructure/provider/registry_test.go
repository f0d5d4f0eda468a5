package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmccoy02/bridge-engine/domain"
	"github.com/cmccoy02/bridge-engine/infrastructure/provider"
	testdoubles "github.com/cmccoy02/bridge-engine/test"
)

func spyFactory(token string) domain.Provider {
	return &testdoubles.SpyProvider{Token: token}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("should build a registered provider with the given token", func(t *testing.T) {
		t.Parallel()

		// given
		reg := provider.NewRegistry()
		reg.Register("github", spyFactory)

		// when
		prov, err := reg.Get("github", "tok-123")

		// then
		require.NoError(t, err)
		assert.Equal(t, "tok-123", prov.AuthToken())
	})

	t.Run("should list the available types in the unknown-type error", func(t *testing.T) {
		t.Parallel()

		// given
		reg := provider.NewRegistry()
		reg.Register("github", spyFactory)
		reg.Register("gitea", spyFactory)

		// when
		_, err := reg.Get("bitbucket", "tok")

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown provider type "bitbucket"`)
		assert.Contains(t, err.Error(), "gitea, github")
	})

	t.Run("should return sorted names", func(t *testing.T) {
		t.Parallel()

		// given
		reg := provider.NewRegistry()
		reg.Register("gitlab", spyFactory)
		reg.Register("github", spyFactory)

		// then
		assert.Equal(t, []string{"github", "gitlab"}, reg.Names())
	})
}
