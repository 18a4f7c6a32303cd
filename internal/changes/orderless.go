// internal/changes/orderless.go
package changes

import (
	"sort"

	"rivet/internal/cachekey"
	"rivet/internal/fingerprint"
)

// OrderInsensitive detects changes between two snapshot sets of a property
// without regard to entry order. Files are matched across executions by their
// normalized path, so a file may move between absolute paths without
// registering as a removal plus an addition: same identity and same content
// is silent, same identity with different content (or a different absolute
// path) is a modification.
//
// Normalized paths are allowed to collide. Previous entries sharing an
// identity are kept in one bucket and consumed oldest-first, so N previous
// and M current files with the same identity pair up min(N, M) times and the
// leftovers fall through to removal/addition resolution.
type OrderInsensitive struct {
	includeAdded bool
	compare      func(a, b fingerprint.FileSnapshot) int
}

// NewOrderInsensitive returns a detector for one property kind. includeAdded
// controls whether genuinely new files are reported at all; some property
// kinds only care about modifications and removals.
func NewOrderInsensitive(includeAdded bool) *OrderInsensitive {
	return &OrderInsensitive{
		includeAdded: includeAdded,
		compare:      fingerprint.Compare,
	}
}

// IncludeAdded reports whether this detector emits events for new files.
func (d *OrderInsensitive) IncludeAdded() bool {
	return d.includeAdded
}

type fileRecord struct {
	absPath string
	snap    fingerprint.FileSnapshot
}

// addedRecord keeps its position in overall insertion order even after being
// claimed as the surviving half of a modification, so unclaimed records can
// still be emitted in insertion order.
type addedRecord struct {
	fileRecord
	claimed bool
}

type phase int

const (
	scanningCurrent phase = iota
	resolvingLeftovers
	emittingAdded
	finished
)

// Iterator yields the changes between two snapshot sets lazily, one per Next
// call. It is single-pass over internal index state and cannot be rewound;
// callers may stop consuming early, a yielded change is never retracted.
type Iterator struct {
	property     string
	includeAdded bool
	compare      func(a, b fingerprint.FileSnapshot) int

	phase phase

	// Current entries still to scan, in the set's insertion order.
	pending []fileRecord

	// Previous entries not yet matched to a current entry, bucketed by
	// normalized path. Buckets preserve the previous set's order and are
	// consumed head-first.
	unaccounted map[string][]fileRecord

	// Current entries whose identity had no previous bucket, in insertion
	// order, with a per-identity index for leftover pairing.
	added      []*addedRecord
	addedIndex map[string][]*addedRecord
	addedAt    int

	// Unmatched previous entries, materialized and sorted by identity when
	// scanning finishes.
	leftovers  []fileRecord
	leftoverAt int

	change Change
}

// Changes returns an iterator over the differences between the current and
// previous snapshot sets. property is carried through onto every emitted
// change unchanged.
//
// The previous set is indexed up front; everything else happens lazily as the
// iterator is consumed.
func (d *OrderInsensitive) Changes(current, previous *fingerprint.SnapshotSet, property string) *Iterator {
	unaccounted := make(map[string][]fileRecord, previous.Len())
	previous.Walk(func(absPath string, snap fingerprint.FileSnapshot) {
		key := snap.NormalizedPath
		unaccounted[key] = append(unaccounted[key], fileRecord{absPath: absPath, snap: snap})
	})

	pending := make([]fileRecord, 0, current.Len())
	current.Walk(func(absPath string, snap fingerprint.FileSnapshot) {
		pending = append(pending, fileRecord{absPath: absPath, snap: snap})
	})

	return &Iterator{
		property:     property,
		includeAdded: d.includeAdded,
		compare:      d.compare,
		phase:        scanningCurrent,
		pending:      pending,
		unaccounted:  unaccounted,
		addedIndex:   make(map[string][]*addedRecord),
	}
}

// Next advances to the next change. It returns false once the iterator is
// exhausted; afterwards it keeps returning false.
func (it *Iterator) Next() bool {
	for {
		switch it.phase {
		case scanningCurrent:
			if len(it.pending) == 0 {
				it.collectLeftovers()
				it.phase = resolvingLeftovers
				continue
			}
			rec := it.pending[0]
			it.pending = it.pending[1:]

			key := rec.snap.NormalizedPath
			bucket := it.unaccounted[key]
			if len(bucket) == 0 {
				// Identity never seen previously, or already exhausted.
				// Deferred: a later leftover may claim it as a modification.
				added := &addedRecord{fileRecord: rec}
				it.added = append(it.added, added)
				it.addedIndex[key] = append(it.addedIndex[key], added)
				continue
			}

			prev := bucket[0]
			if len(bucket) == 1 {
				delete(it.unaccounted, key)
			} else {
				it.unaccounted[key] = bucket[1:]
			}
			if prev.snap.Hash != rec.snap.Hash {
				it.change = Change{Path: rec.absPath, Kind: Modified, Property: it.property}
				return true
			}

		case resolvingLeftovers:
			if it.leftoverAt >= len(it.leftovers) {
				it.phase = emittingAdded
				continue
			}
			prev := it.leftovers[it.leftoverAt]
			it.leftoverAt++

			key := prev.snap.NormalizedPath
			if candidates := it.addedIndex[key]; len(candidates) > 0 {
				// The identity survived under a different absolute path
				// and/or content. Several candidates may share it; the first
				// inserted one is claimed.
				claimed := candidates[0]
				if len(candidates) == 1 {
					delete(it.addedIndex, key)
				} else {
					it.addedIndex[key] = candidates[1:]
				}
				claimed.claimed = true
				it.change = Change{Path: claimed.absPath, Kind: Modified, Property: it.property}
			} else {
				it.change = Change{Path: prev.absPath, Kind: Removed, Property: it.property}
			}
			return true

		case emittingAdded:
			if !it.includeAdded {
				it.phase = finished
				continue
			}
			for it.addedAt < len(it.added) {
				rec := it.added[it.addedAt]
				it.addedAt++
				if rec.claimed {
					continue
				}
				it.change = Change{Path: rec.absPath, Kind: Added, Property: it.property}
				return true
			}
			it.phase = finished

		default:
			return false
		}
	}
}

// Change returns the change Next positioned on. Only valid after Next
// returned true.
func (it *Iterator) Change() Change {
	return it.change
}

// collectLeftovers flattens the remaining unaccounted buckets and sorts them
// by snapshot identity. Bucket order inside an identity is preserved by the
// stable sort, so equal identities resolve in the previous set's order; the
// sort itself makes the result independent of map iteration order.
func (it *Iterator) collectLeftovers() {
	for _, bucket := range it.unaccounted {
		it.leftovers = append(it.leftovers, bucket...)
	}
	sort.SliceStable(it.leftovers, func(i, j int) bool {
		return it.compare(it.leftovers[i].snap, it.leftovers[j].snap) < 0
	})
	it.unaccounted = nil
}

// AppendToCacheKey feeds the current set's snapshots into the builder sorted
// by identity, discarding absolute paths. Two sets holding the same snapshots
// in any insertion order contribute identical bytes, which is what keeps
// cache keys stable for reordered-but-unchanged file sets.
func (d *OrderInsensitive) AppendToCacheKey(b cachekey.Builder, current *fingerprint.SnapshotSet) {
	snaps := current.Snapshots()
	sort.Slice(snaps, func(i, j int) bool {
		return d.compare(snaps[i], snaps[j]) < 0
	})
	for _, snap := range snaps {
		b.PutString(snap.NormalizedPath)
		b.PutHash(snap.Hash)
	}
}
