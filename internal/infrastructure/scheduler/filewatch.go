package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"TabSorter/internal/ports"
)

// FileWatchScheduler runs the job once at start and again whenever the
// watched file changes. Bursts of events are coalesced by the debounce delay.
type FileWatchScheduler struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stop    chan struct{}
	done    chan struct{}
}

var _ ports.Scheduler = (*FileWatchScheduler)(nil)

// NewFileWatchScheduler watches path.
func NewFileWatchScheduler(path string, debounce time.Duration, logger *slog.Logger) *FileWatchScheduler {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileWatchScheduler{path: filepath.Clean(path), debounce: debounce, logger: logger}
}

// Start begins watching. The parent directory is watched so that editors
// replacing the file atomically are still seen.
func (w *FileWatchScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.watcher = watcher
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.run(ctx, watcher, w.stop, w.done, job)
	return nil
}

func (w *FileWatchScheduler) run(ctx context.Context, watcher *fsnotify.Watcher, stop, done chan struct{}, job func(time.Time)) {
	defer close(done)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	job(time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("tab file changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		case t := <-timer.C:
			job(t)
		}
	}
}

func (w *FileWatchScheduler) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

// Stop halts the watcher and waits for a running job to return.
func (w *FileWatchScheduler) Stop(ctx context.Context) error {
	w.mu.Lock()
	watcher, stop, done := w.watcher, w.stop, w.done
	w.watcher, w.stop, w.done = nil, nil, nil
	w.mu.Unlock()

	if watcher == nil {
		return nil
	}
	close(stop)
	select {
	case <-done:
	case <-ctx.Done():
		_ = watcher.Close()
		return ctx.Err()
	}
	if err := watcher.Close(); err != nil {
		return fmt.Errorf("close file watcher: %w", err)
	}
	return nil
}
