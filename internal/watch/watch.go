// Package watch rebuilds decks when their markdown inputs change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 300 * time.Millisecond

// minTick bounds how often pending changes are checked.
const minTick = 10 * time.Millisecond

// ChangeFunc receives the changed files, sorted, once they have settled.
// It runs on the watcher goroutine; events arriving meanwhile are queued.
type ChangeFunc func(ctx context.Context, files []string)

// Watcher reports changes to a fixed set of files.
// Parent directories are watched so that editors replacing a file by
// rename are still seen.
type Watcher struct {
	files    map[string]bool
	dirs     []string
	debounce time.Duration
	onChange ChangeFunc
	logger   *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a Watcher for files.
func New(files []string, onChange ChangeFunc, opts ...Option) (*Watcher, error) {
	if len(files) == 0 {
		return nil, errors.New("watch: no files to watch")
	}
	if onChange == nil {
		return nil, errors.New("watch: change callback cannot be nil")
	}

	w := &Watcher{
		files:    make(map[string]bool, len(files)),
		debounce: DefaultDebounce,
		onChange: onChange,
		logger:   zap.NewNop(),
	}
	seen := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("watch: %w", err)
		}
		w.files[abs] = true
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	sort.Strings(w.dirs)
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is done. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer func() {
		if err := fw.Close(); err != nil {
			w.logger.Warn("closing file watcher", zap.Error(err))
		}
	}()

	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.logger.Info("watching for changes", zap.Int("files", len(w.files)), zap.Strings("dirs", w.dirs))

	tick := w.debounce / 5
	if tick < minTick {
		tick = minTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	pending := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				w.logger.Debug("file event", zap.String("file", event.Name), zap.Stringer("op", event.Op))
				pending[filepath.Clean(event.Name)] = time.Now()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case now := <-ticker.C:
			if settled := settle(pending, now, w.debounce); len(settled) > 0 {
				w.onChange(ctx, settled)
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !w.files[filepath.Clean(event.Name)] {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// settle removes and returns the files quiet for at least debounce.
func settle(pending map[string]time.Time, now time.Time, debounce time.Duration) []string {
	var ready []string
	for file, last := range pending {
		if now.Sub(last) >= debounce {
			ready = append(ready, file)
			delete(pending, file)
		}
	}
	sort.Strings(ready)
	return ready
}
