package fingerprint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	a := FileSnapshot{NormalizedPath: "a.txt", Hash: "h1"}
	b := FileSnapshot{NormalizedPath: "b.txt", Hash: "h1"}

	t.Run("OrdersByNormalizedPath", func(t *testing.T) {
		assert.Negative(t, Compare(a, b))
		assert.Positive(t, Compare(b, a))
	})

	t.Run("BreaksTiesByHash", func(t *testing.T) {
		a2 := FileSnapshot{NormalizedPath: "a.txt", Hash: "h2"}
		assert.Negative(t, Compare(a, a2))
		assert.Positive(t, Compare(a2, a))
	})

	t.Run("EqualSnapshotsCompareEqual", func(t *testing.T) {
		assert.Zero(t, Compare(a, FileSnapshot{NormalizedPath: "a.txt", Hash: "h1"}))
	})
}

func TestSnapshotSet(t *testing.T) {
	t.Run("PreservesInsertionOrder", func(t *testing.T) {
		set := NewSnapshotSet()
		set.Put("/x/c", FileSnapshot{NormalizedPath: "c", Hash: "h3"})
		set.Put("/x/a", FileSnapshot{NormalizedPath: "a", Hash: "h1"})
		set.Put("/x/b", FileSnapshot{NormalizedPath: "b", Hash: "h2"})

		assert.Equal(t, []string{"/x/c", "/x/a", "/x/b"}, set.Paths())

		var walked []string
		set.Walk(func(absPath string, _ FileSnapshot) {
			walked = append(walked, absPath)
		})
		assert.Equal(t, []string{"/x/c", "/x/a", "/x/b"}, walked)
	})

	t.Run("DuplicatePutKeepsPositionAndReplacesValue", func(t *testing.T) {
		set := NewSnapshotSet()
		set.Put("/x/a", FileSnapshot{NormalizedPath: "a", Hash: "h1"})
		set.Put("/x/b", FileSnapshot{NormalizedPath: "b", Hash: "h2"})
		set.Put("/x/a", FileSnapshot{NormalizedPath: "a", Hash: "h9"})

		assert.Equal(t, 2, set.Len())
		assert.Equal(t, []string{"/x/a", "/x/b"}, set.Paths())
		snap, ok := set.Get("/x/a")
		require.True(t, ok)
		assert.Equal(t, Hash("h9"), snap.Hash)
	})

	t.Run("GetMissing", func(t *testing.T) {
		set := NewSnapshotSet()
		_, ok := set.Get("/nope")
		assert.False(t, ok)
	})

	t.Run("SnapshotsFollowsInsertionOrder", func(t *testing.T) {
		set := NewSnapshotSet()
		set.Put("/x/b", FileSnapshot{NormalizedPath: "b", Hash: "h2"})
		set.Put("/x/a", FileSnapshot{NormalizedPath: "a", Hash: "h1"})

		snaps := set.Snapshots()
		require.Len(t, snaps, 2)
		assert.Equal(t, "b", snaps[0].NormalizedPath)
		assert.Equal(t, "a", snaps[1].NormalizedPath)
	})
}

func TestNormalizers(t *testing.T) {
	t.Run("Absolute", func(t *testing.T) {
		assert.Equal(t, "/x/y/a.txt", AbsolutePathNormalizer{}.Normalize("/x/y/a.txt"))
	})

	t.Run("NameOnly", func(t *testing.T) {
		assert.Equal(t, "a.txt", NameOnlyNormalizer{}.Normalize("/x/y/a.txt"))
	})

	t.Run("Relative", func(t *testing.T) {
		n := RelativePathNormalizer{Root: "/x"}
		assert.Equal(t, "y/a.txt", n.Normalize("/x/y/a.txt"))
	})

	t.Run("RelativeOutsideRootFallsBackToAbsolute", func(t *testing.T) {
		n := RelativePathNormalizer{Root: "/x"}
		assert.Equal(t, "/other/a.txt", n.Normalize("/other/a.txt"))
	})
}

func TestHashing(t *testing.T) {
	t.Run("ContentHashIsStable", func(t *testing.T) {
		assert.Equal(t, HashContent([]byte("hello")), HashContent([]byte("hello")))
		assert.NotEqual(t, HashContent([]byte("hello")), HashContent([]byte("world")))
	})

	t.Run("FileHashMatchesContentHash", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "a.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

		got, err := HashFile(path)
		require.NoError(t, err)
		assert.Equal(t, HashContent([]byte("hello")), got)
	})

	t.Run("FileHashMissingFile", func(t *testing.T) {
		_, err := HashFile(filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, err)
	})
}
