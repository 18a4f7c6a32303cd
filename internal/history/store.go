// internal/history/store.go
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rivet/internal/fingerprint"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

var ErrNoExecutions = errors.New("no executions recorded")

// Execution records one up-to-date check for a task.
type Execution struct {
	ID          string           `json:"id"`
	Task        string           `json:"task"`
	CacheKey    fingerprint.Hash `json:"cache_key"`
	UpToDate    bool             `json:"up_to_date"`
	ChangeCount int              `json:"change_count"`
	StartedAt   time.Time        `json:"started_at"`
}

// snapshotEntry is the persisted form of one snapshot-set entry, order
// preserved so the next run's reconciliation sees the same traversal order.
type snapshotEntry struct {
	Path           string           `json:"path"`
	NormalizedPath string           `json:"normalized_path"`
	Hash           fingerprint.Hash `json:"hash"`
}

type snapshotBlob struct {
	Compressed bool   `json:"compressed"`
	Data       []byte `json:"data"`
}

// Store persists per-property snapshot sets and execution records between
// runs.
type Store struct {
	db       *badger.DB
	compress *compressor
}

func NewStore(db *badger.DB) (*Store, error) {
	c, err := newCompressor()
	if err != nil {
		return nil, err
	}
	return &Store{db: db, compress: c}, nil
}

func snapshotKey(task, property string) []byte {
	return []byte(fmt.Sprintf("snapshots:%s:%s", task, property))
}

func executionKey(task string, startedAt time.Time, id string) []byte {
	// Timestamp first so lexicographic key order is chronological.
	return []byte(fmt.Sprintf("execution:%s:%s:%s", task, startedAt.UTC().Format(time.RFC3339Nano), id))
}

func executionPrefix(task string) []byte {
	return []byte(fmt.Sprintf("execution:%s:", task))
}

// PutSnapshots stores a property's snapshot set, replacing any earlier one.
func (s *Store) PutSnapshots(task, property string, set *fingerprint.SnapshotSet) error {
	entries := make([]snapshotEntry, 0, set.Len())
	set.Walk(func(absPath string, snap fingerprint.FileSnapshot) {
		entries = append(entries, snapshotEntry{
			Path:           absPath,
			NormalizedPath: snap.NormalizedPath,
			Hash:           snap.Hash,
		})
	})

	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling snapshots: %w", err)
	}
	compressed, wasCompressed := s.compress.compress(payload)

	data, err := json.Marshal(snapshotBlob{Compressed: wasCompressed, Data: compressed})
	if err != nil {
		return fmt.Errorf("marshaling blob: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(task, property), data)
	})
}

// GetSnapshots loads a property's previous snapshot set. A property that was
// never stored yields an empty set, so first runs need no special casing.
func (s *Store) GetSnapshots(task, property string) (*fingerprint.SnapshotSet, error) {
	set := fingerprint.NewSnapshotSet()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(task, property))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var blob snapshotBlob
			if err := json.Unmarshal(val, &blob); err != nil {
				return fmt.Errorf("unmarshaling blob: %w", err)
			}
			payload, err := s.compress.decompress(blob.Data, blob.Compressed)
			if err != nil {
				return err
			}
			var entries []snapshotEntry
			if err := json.Unmarshal(payload, &entries); err != nil {
				return fmt.Errorf("unmarshaling snapshots: %w", err)
			}
			for _, e := range entries {
				set.Put(e.Path, fingerprint.FileSnapshot{
					NormalizedPath: e.NormalizedPath,
					Hash:           e.Hash,
				})
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// RecordExecution persists an execution record, assigning an ID and start
// time when missing.
func (s *Store) RecordExecution(e *Execution) error {
	if e.Task == "" {
		return fmt.Errorf("execution task cannot be empty")
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling execution: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(executionKey(e.Task, e.StartedAt, e.ID), data)
	})
}

// Executions returns a task's executions, oldest first.
func (s *Store) Executions(task string) ([]Execution, error) {
	var executions []Execution

	prefix := executionPrefix(task)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e Execution
				if err := json.Unmarshal(val, &e); err != nil {
					return err
				}
				executions = append(executions, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return executions, err
}

// LastExecution returns the most recent execution for a task.
func (s *Store) LastExecution(task string) (*Execution, error) {
	executions, err := s.Executions(task)
	if err != nil {
		return nil, err
	}
	if len(executions) == 0 {
		return nil, ErrNoExecutions
	}
	return &executions[len(executions)-1], nil
}

// Prune drops all but the newest keep execution records for a task.
func (s *Store) Prune(task string, keep int) error {
	executions, err := s.Executions(task)
	if err != nil {
		return err
	}
	if len(executions) <= keep {
		return nil
	}

	stale := executions[:len(executions)-keep]
	return s.db.Update(func(txn *badger.Txn) error {
		for _, e := range stale {
			if err := txn.Delete(executionKey(e.Task, e.StartedAt, e.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}
