package uptodate

import (
	"testing"

	"rivet/internal/changes"
	"rivet/internal/fingerprint"
	"rivet/internal/history"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupChecker(t *testing.T) *Checker {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := history.NewStore(db)
	require.NoError(t, err)

	return NewChecker(store, zap.NewNop())
}

func inputs(entries map[string]string) Property {
	set := fingerprint.NewSnapshotSet()
	for path, hash := range entries {
		set.Put(path, fingerprint.FileSnapshot{
			NormalizedPath: path,
			Hash:           fingerprint.Hash(hash),
		})
	}
	return Property{
		Label:    "inputs",
		Current:  set,
		Detector: changes.NewOrderInsensitive(true),
	}
}

func TestChecker(t *testing.T) {
	t.Run("FirstRunIsNotUpToDate", func(t *testing.T) {
		c := setupChecker(t)
		props := []Property{inputs(map[string]string{"/x/a": "h1"})}

		result, err := c.Check("compile", props, false)
		require.NoError(t, err)
		assert.False(t, result.UpToDate)
		require.Len(t, result.Changes, 1)
		assert.Equal(t, changes.Added, result.Changes[0].Kind)
	})

	t.Run("CommittedRunIsUpToDate", func(t *testing.T) {
		c := setupChecker(t)
		props := []Property{inputs(map[string]string{"/x/a": "h1", "/x/b": "h2"})}

		first, err := c.Check("compile", props, false)
		require.NoError(t, err)
		require.NoError(t, c.Commit(first, props))

		second, err := c.Check("compile", props, false)
		require.NoError(t, err)
		assert.True(t, second.UpToDate)
		assert.Empty(t, second.Changes)
		assert.Equal(t, first.CacheKey, second.CacheKey)
	})

	t.Run("ModificationIsDetected", func(t *testing.T) {
		c := setupChecker(t)
		props := []Property{inputs(map[string]string{"/x/a": "h1"})}

		first, err := c.Check("compile", props, false)
		require.NoError(t, err)
		require.NoError(t, c.Commit(first, props))

		modified := []Property{inputs(map[string]string{"/x/a": "h2"})}
		result, err := c.Check("compile", modified, false)
		require.NoError(t, err)
		assert.False(t, result.UpToDate)
		require.Len(t, result.Changes, 1)
		assert.Equal(t, changes.Modified, result.Changes[0].Kind)
		assert.NotEqual(t, first.CacheKey, result.CacheKey)
	})

	t.Run("ShortCircuitStopsAtFirstChange", func(t *testing.T) {
		c := setupChecker(t)
		props := []Property{inputs(map[string]string{
			"/x/a": "h1",
			"/x/b": "h2",
			"/x/c": "h3",
		})}

		result, err := c.Check("compile", props, true)
		require.NoError(t, err)
		assert.False(t, result.UpToDate)
		assert.Len(t, result.Changes, 1)
	})

	t.Run("PropertiesAreIndependent", func(t *testing.T) {
		c := setupChecker(t)

		sources := inputs(map[string]string{"/x/a.go": "h1"})
		res := inputs(map[string]string{"/x/logo.png": "h2"})
		res.Label = "resources"
		props := []Property{sources, res}

		first, err := c.Check("compile", props, false)
		require.NoError(t, err)
		require.NoError(t, c.Commit(first, props))

		res.Current.Put("/x/logo.png", fingerprint.FileSnapshot{
			NormalizedPath: "/x/logo.png",
			Hash:           "h9",
		})
		result, err := c.Check("compile", props, false)
		require.NoError(t, err)
		require.Len(t, result.Changes, 1)
		assert.Equal(t, "resources", result.Changes[0].Property)
	})
}

func TestCacheKey(t *testing.T) {
	t.Run("IndependentOfPropertyListingOrder", func(t *testing.T) {
		a := inputs(map[string]string{"/x/a": "h1"})
		b := inputs(map[string]string{"/x/b": "h2"})
		b.Label = "resources"

		assert.Equal(t, CacheKey([]Property{a, b}), CacheKey([]Property{b, a}))
	})

	t.Run("LabelContributes", func(t *testing.T) {
		a := inputs(map[string]string{"/x/a": "h1"})
		renamed := inputs(map[string]string{"/x/a": "h1"})
		renamed.Label = "other"

		assert.NotEqual(t, CacheKey([]Property{a}), CacheKey([]Property{renamed}))
	})
}
