// internal/uptodate/checker.go
package uptodate

import (
	"fmt"
	"sort"

	"rivet/internal/cachekey"
	"rivet/internal/changes"
	"rivet/internal/fingerprint"
	"rivet/internal/history"

	"go.uber.org/zap"
)

// Property is one snapshotted file property of a task: its label, the freshly
// captured snapshot set, and the detector configured for its kind.
type Property struct {
	Label    string
	Current  *fingerprint.SnapshotSet
	Detector *changes.OrderInsensitive
}

// Result is the outcome of one up-to-date check.
type Result struct {
	Task     string
	UpToDate bool
	Changes  []changes.Change
	CacheKey fingerprint.Hash
}

// Checker decides whether a task must re-execute by comparing its current
// property snapshots against the last committed ones.
type Checker struct {
	store  *history.Store
	logger *zap.Logger
}

func NewChecker(store *history.Store, logger *zap.Logger) *Checker {
	return &Checker{store: store, logger: logger}
}

// Check runs change detection over every property. With shortCircuit set it
// stops at the first change; a yielded change is definitive, so the partial
// result is still a valid "not up to date" verdict. The cache key is computed
// either way, from the current snapshots alone.
func (c *Checker) Check(task string, props []Property, shortCircuit bool) (*Result, error) {
	result := &Result{
		Task:     task,
		UpToDate: true,
		CacheKey: CacheKey(props),
	}

	for _, prop := range props {
		previous, err := c.store.GetSnapshots(task, prop.Label)
		if err != nil {
			return nil, fmt.Errorf("loading snapshots for %s.%s: %w", task, prop.Label, err)
		}

		it := prop.Detector.Changes(prop.Current, previous, prop.Label)
		for it.Next() {
			ch := it.Change()
			result.UpToDate = false
			result.Changes = append(result.Changes, ch)
			c.logger.Info("file changed",
				zap.String("task", task),
				zap.String("property", ch.Property),
				zap.String("path", ch.Path),
				zap.Stringer("kind", ch.Kind))
			if shortCircuit {
				return result, nil
			}
		}
	}
	return result, nil
}

// Commit persists the current snapshots and the execution record so the next
// check compares against this run.
func (c *Checker) Commit(result *Result, props []Property) error {
	for _, prop := range props {
		if err := c.store.PutSnapshots(result.Task, prop.Label, prop.Current); err != nil {
			return fmt.Errorf("storing snapshots for %s.%s: %w", result.Task, prop.Label, err)
		}
	}
	return c.store.RecordExecution(&history.Execution{
		Task:        result.Task,
		CacheKey:    result.CacheKey,
		UpToDate:    result.UpToDate,
		ChangeCount: len(result.Changes),
	})
}

// CacheKey derives the task's cache key from the current snapshot sets.
// Properties contribute in sorted label order, each prefixed with its label,
// so the key does not depend on how the caller listed them.
func CacheKey(props []Property) fingerprint.Hash {
	sorted := make([]Property, len(props))
	copy(sorted, props)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Label < sorted[j].Label })

	b := cachekey.NewSHA256Builder()
	for _, prop := range sorted {
		b.PutString(prop.Label)
		prop.Detector.AppendToCacheKey(b, prop.Current)
	}
	return b.Sum()
}
