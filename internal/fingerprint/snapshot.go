// internal/fingerprint/snapshot.go
package fingerprint

import "strings"

// FileSnapshot is the identity of a file within a property: the normalized
// path used to match the file across executions, and its content hash.
type FileSnapshot struct {
	NormalizedPath string `json:"normalized_path"`
	Hash           Hash   `json:"hash"`
}

// Compare is the total order over snapshots: normalized path first, content
// hash as tie-break. Everything that needs deterministic snapshot ordering
// (leftover resolution, cache-key emission) goes through this one function so
// both agree on the order.
func Compare(a, b FileSnapshot) int {
	if c := strings.Compare(a.NormalizedPath, b.NormalizedPath); c != 0 {
		return c
	}
	return strings.Compare(string(a.Hash), string(b.Hash))
}

// SnapshotSet maps absolute paths to their snapshots, remembering insertion
// order. Order only affects the traversal order of change detection and has
// no bearing on cache keys.
type SnapshotSet struct {
	order   []string
	entries map[string]FileSnapshot
}

func NewSnapshotSet() *SnapshotSet {
	return &SnapshotSet{entries: make(map[string]FileSnapshot)}
}

// Put records the snapshot for an absolute path. Putting a path twice
// replaces the snapshot but keeps the path's original position.
func (s *SnapshotSet) Put(absPath string, snap FileSnapshot) {
	if _, ok := s.entries[absPath]; !ok {
		s.order = append(s.order, absPath)
	}
	s.entries[absPath] = snap
}

func (s *SnapshotSet) Get(absPath string) (FileSnapshot, bool) {
	snap, ok := s.entries[absPath]
	return snap, ok
}

func (s *SnapshotSet) Len() int {
	return len(s.order)
}

// Paths returns the absolute paths in insertion order.
func (s *SnapshotSet) Paths() []string {
	paths := make([]string, len(s.order))
	copy(paths, s.order)
	return paths
}

// Snapshots returns the snapshot values in insertion order.
func (s *SnapshotSet) Snapshots() []FileSnapshot {
	snaps := make([]FileSnapshot, 0, len(s.order))
	for _, path := range s.order {
		snaps = append(snaps, s.entries[path])
	}
	return snaps
}

// Walk visits each entry in insertion order.
func (s *SnapshotSet) Walk(fn func(absPath string, snap FileSnapshot)) {
	for _, path := range s.order {
		fn(path, s.entries[path])
	}
}
