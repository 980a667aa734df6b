// Package watch keeps an output directory in sync with its source directory
// by re-running the sync whenever the source changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/schaermu/mojiman/internal/config"
	"github.com/schaermu/mojiman/internal/fsutil"
)

// SyncFunc performs one complete sync run.
type SyncFunc func(ctx context.Context) error

// Watcher triggers syncs on filesystem events
type Watcher struct {
	sourceDir   string
	icon        string
	run         SyncFunc
	logger      *slog.Logger
	syncMu      sync.Mutex // guards syncRunning and syncPending
	syncRunning bool       // whether a sync is currently in progress
	syncPending bool       // whether another sync is needed after the current one
	debounce    *debouncer
}

// New creates a watcher for the source directory of cfg and, when set, the
// repository icon.
func New(cfg *config.Config, run SyncFunc, logger *slog.Logger) *Watcher {
	w := &Watcher{
		sourceDir: filepath.Clean(cfg.Paths.SourceDir),
		run:       run,
		logger:    logger,
		debounce:  &debouncer{delay: cfg.Watch.Debounce},
	}
	if cfg.HasIcon() {
		w.icon = filepath.Clean(cfg.Repo.Icon)
	}
	return w
}

// Dirs returns the directories to watch, without duplicates.
func (w *Watcher) Dirs() []string {
	dirs := []string{w.sourceDir}
	if w.icon != "" {
		if iconDir := filepath.Dir(w.icon); iconDir != w.sourceDir {
			dirs = append(dirs, iconDir)
		}
	}
	return dirs
}

// Start performs an initial sync and then re-syncs on every relevant change
// until ctx is cancelled. It returns once any in-flight sync has finished.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("performing initial sync before watching")
	w.performSync(ctx)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	defer func() {
		_ = fsw.Close()
	}()

	for _, dir := range w.Dirs() {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.logger.Info("watching directory", "path", dir)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping watcher")
			w.debounce.stop()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				w.debounce.stop()
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			w.debounce.trigger(func() {
				w.performSync(ctx)
			})
		case err, ok := <-fsw.Errors:
			if !ok {
				w.debounce.stop()
				return nil
			}
			w.logger.Warn("filesystem watcher error", "error", err)
		}
	}
}

// relevant reports whether event can change the sync result.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(event.Name)
	if fsutil.IsTemp(name) {
		return false
	}
	if filepath.Dir(name) == w.sourceDir {
		return true
	}
	return w.icon != "" && name == w.icon
}

// performSync executes the sync operation with single-flight semantics.
// If a sync is already in progress, at most one additional run is queued;
// further concurrent requests are dropped.
func (w *Watcher) performSync(ctx context.Context) {
	w.syncMu.Lock()
	if w.syncRunning {
		w.syncPending = true
		w.syncMu.Unlock()
		w.logger.Info("sync already in progress, queuing pending re-run")
		return
	}
	w.syncRunning = true
	w.syncMu.Unlock()

	for {
		if err := w.run(ctx); err != nil {
			w.logger.Error("sync failed", "error", err)
		}

		w.syncMu.Lock()
		if !w.syncPending || ctx.Err() != nil {
			w.syncPending = false
			w.syncRunning = false
			w.syncMu.Unlock()
			break
		}
		w.syncPending = false
		w.syncMu.Unlock()

		w.logger.Info("re-running sync due to pending request")
	}
}

// debouncer coalesces bursts of triggers into one callback
type debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	delay    time.Duration
	callback func()
	stopped  bool
	inflight sync.WaitGroup
}

// trigger schedules the callback to run after the debounce delay
func (d *debouncer) trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback

	if d.timer != nil && d.timer.Stop() {
		d.inflight.Done()
	}

	d.inflight.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.inflight.Done()

		d.mu.Lock()
		cb := d.callback
		d.mu.Unlock()

		if cb != nil {
			cb()
		}
	})
}

// stop cancels a scheduled callback and waits for a running one.
func (d *debouncer) stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil && d.timer.Stop() {
		d.inflight.Done()
	}
	d.timer = nil
	d.mu.Unlock()

	d.inflight.Wait()
}
