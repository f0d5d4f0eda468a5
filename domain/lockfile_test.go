package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmccoy02/bridge-engine/domain"
)

func TestDiffSnapshots(t *testing.T) {
	t.Parallel()

	t.Run("should report only version bumps", func(t *testing.T) {
		t.Parallel()

		// given
		before := domain.LockfileSnapshot{
			"a": {Version: "1.0.0"},
			"b": {Version: "2.1.0"},
		}
		after := domain.LockfileSnapshot{
			"a": {Version: "1.0.0"},
			"b": {Version: "2.2.0"},
		}

		// when
		changes := domain.DiffSnapshots(before, after)

		// then
		require.Len(t, changes, 1)
		assert.Equal(t, domain.PackageChange{Name: "b", From: "2.1.0", To: "2.2.0"}, changes[0])
	})

	t.Run("should exclude additions and removals", func(t *testing.T) {
		t.Parallel()

		// given
		before := domain.LockfileSnapshot{
			"removed": {Version: "1.0.0"},
			"kept":    {Version: "3.0.0"},
		}
		after := domain.LockfileSnapshot{
			"added": {Version: "0.1.0"},
			"kept":  {Version: "3.0.0"},
		}

		// when
		changes := domain.DiffSnapshots(before, after)

		// then
		assert.Empty(t, changes)
	})

	t.Run("should carry the dev flag from the after snapshot", func(t *testing.T) {
		t.Parallel()

		// given
		before := domain.LockfileSnapshot{"jest": {Version: "29.0.0", IsDev: true}}
		after := domain.LockfileSnapshot{"jest": {Version: "29.7.0", IsDev: true}}

		// when
		changes := domain.DiffSnapshots(before, after)

		// then
		require.Len(t, changes, 1)
		assert.True(t, changes[0].IsDev)
	})

	t.Run("should sort changes by package name", func(t *testing.T) {
		t.Parallel()

		// given
		before := domain.LockfileSnapshot{
			"zulu":  {Version: "1.0.0"},
			"alpha": {Version: "1.0.0"},
		}
		after := domain.LockfileSnapshot{
			"zulu":  {Version: "1.1.0"},
			"alpha": {Version: "1.1.0"},
		}

		// when
		changes := domain.DiffSnapshots(before, after)

		// then
		require.Len(t, changes, 2)
		assert.Equal(t, "alpha", changes[0].Name)
		assert.Equal(t, "zulu", changes[1].Name)
	})

	t.Run("should return nothing for empty snapshots", func(t *testing.T) {
		t.Parallel()

		// when
		changes := domain.DiffSnapshots(domain.LockfileSnapshot{}, domain.LockfileSnapshot{})

		// then
		assert.Empty(t, changes)
	})
}
