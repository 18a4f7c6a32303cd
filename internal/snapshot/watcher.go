// internal/snapshot/watcher.go
package snapshot

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher invalidates hash cache entries for files that change between
// captures, so long-running processes never serve a stale hash even when a
// file's mtime granularity hides an in-place edit.
type Watcher struct {
	fsw    *fsnotify.Watcher
	cache  *HashCache
	logger *zap.Logger
	done   chan struct{}
}

func NewWatcher(cache *HashCache, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{
		fsw:    fsw,
		cache:  cache,
		logger: logger,
		done:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Add starts watching a directory. Watches are non-recursive; add each
// directory of interest.
func (w *Watcher) Add(dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	return nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.cache.Invalidate(event.Name)
				w.logger.Debug("invalidated cached hash",
					zap.String("path", event.Name),
					zap.String("op", event.Op.String()))
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}
