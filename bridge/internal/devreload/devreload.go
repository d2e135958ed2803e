// CLAUDE:SUMMARY Watches the editor bundle directory and triggers a debounced page reload on change.
// Package devreload reloads the embedded editor when its bundle changes on disk.
package devreload

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches the burst of writes a bundler emits per rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Watcher calls reload once per burst of changes under dir.
type Watcher struct {
	dir      string
	debounce time.Duration
	reload   func()
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu      sync.Mutex
	running bool
}

// New creates a Watcher. A zero debounce uses DefaultDebounce.
func New(dir string, debounce time.Duration, reload func(), logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("devreload: new watcher: %w", err)
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		reload:   reload,
		logger:   logger,
		watcher:  fw,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start watches dir and its subdirectories. Non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	err := filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		w.watcher.Close()
		close(w.doneCh)
		return fmt.Errorf("devreload: watch %s: %w", w.dir, err)
	}

	w.logger.Info("devreload: watching", "dir", w.dir)
	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine. Idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("devreload: change", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("devreload: watcher error", "error", err)

		case <-timer.C:
			w.logger.Info("devreload: bundle changed, reloading")
			w.reload()
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".tmp") {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(ev.Name); err != nil {
				w.logger.Warn("devreload: watch new dir", "path", ev.Name, "error", err)
			}
		}
	}
	return true
}
