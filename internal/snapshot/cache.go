package snapshot

import (
	"fmt"
	"io/fs"
	"time"

	"rivet/internal/fingerprint"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheEntry struct {
	hash    fingerprint.Hash
	size    int64
	modTime time.Time
}

// HashCache caches content hashes keyed by absolute path, validated by file
// size and modification time. A file whose metadata moved is rehashed.
type HashCache struct {
	entries *lru.Cache[string, cacheEntry]
}

// NewHashCache creates a cache holding at most size entries.
func NewHashCache(size int) (*HashCache, error) {
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}
	return &HashCache{entries: entries}, nil
}

// Hash returns the content hash for path, reusing a cached value when the
// file's size and mtime still match.
func (c *HashCache) Hash(path string, info fs.FileInfo) (fingerprint.Hash, error) {
	if entry, ok := c.entries.Get(path); ok {
		if entry.size == info.Size() && entry.modTime.Equal(info.ModTime()) {
			return entry.hash, nil
		}
	}

	hash, err := fingerprint.HashFile(path)
	if err != nil {
		return "", err
	}
	c.entries.Add(path, cacheEntry{
		hash:    hash,
		size:    info.Size(),
		modTime: info.ModTime(),
	})
	return hash, nil
}

// Invalidate drops the cached hash for path.
func (c *HashCache) Invalidate(path string) {
	c.entries.Remove(path)
}

// Len reports the number of cached entries.
func (c *HashCache) Len() int {
	return c.entries.Len()
}
