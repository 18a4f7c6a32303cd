// internal/snapshot/capture.go
package snapshot

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"rivet/internal/fingerprint"

	"github.com/bmatcuk/doublestar/v4"
)

// Options configures a capture of one property's file collection.
type Options struct {
	// Root directory to walk.
	Root string
	// Include patterns (doublestar globs, matched against the path relative
	// to Root). Empty means every file.
	Include []string
	// Exclude patterns, applied after Include.
	Exclude []string
	// Normalizer producing the cross-run identity for each file. Defaults to
	// the absolute path.
	Normalizer fingerprint.Normalizer
	// Cache for content hashes, validated by file metadata. Optional.
	Cache *HashCache
}

// Capture walks the file collection and returns its snapshot set, keyed by
// absolute path in walk order. Directories and irregular files are skipped;
// only regular file content contributes.
func Capture(opts Options) (*fingerprint.SnapshotSet, error) {
	normalizer := opts.Normalizer
	if normalizer == nil {
		normalizer = fingerprint.AbsolutePathNormalizer{}
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	set := fingerprint.NewSnapshotSet()
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		ok, err := matches(filepath.ToSlash(rel), opts.Include, opts.Exclude)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		var hash fingerprint.Hash
		if opts.Cache != nil {
			info, err := d.Info()
			if err != nil {
				return err
			}
			hash, err = opts.Cache.Hash(path, info)
			if err != nil {
				return err
			}
		} else {
			hash, err = fingerprint.HashFile(path)
			if err != nil {
				return err
			}
		}

		set.Put(path, fingerprint.FileSnapshot{
			NormalizedPath: normalizer.Normalize(path),
			Hash:           hash,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return set, nil
}

func matches(rel string, include, exclude []string) (bool, error) {
	matched := len(include) == 0
	for _, pattern := range include {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, fmt.Errorf("include pattern %q: %w", pattern, err)
		}
		if ok {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	for _, pattern := range exclude {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		if ok {
			return false, nil
		}
	}
	return true, nil
}
