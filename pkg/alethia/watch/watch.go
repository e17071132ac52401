// Package watch re-runs programs when their source files change.
package watch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long changes must settle before a re-run
const DefaultDebounce = 100 * time.Millisecond

// Watcher monitors a set of files and calls OnChange for each one that is
// written. Rapid bursts of events, as editors produce when saving, are
// collapsed into one call per file.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool // absolute paths of watched files
	onChange func(path string)
	debounce time.Duration
	stdout   io.Writer
	stderr   io.Writer

	mu   sync.Mutex
	runs uint64
}

// New starts watching paths. The containing directories are watched rather
// than the files, so a save that replaces the file is still seen.
func New(paths []string, onChange func(path string), stdout, stderr io.Writer) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fsWatcher,
		files:    make(map[string]bool),
		onChange: onChange,
		debounce: DefaultDebounce,
		stdout:   stdout,
		stderr:   stderr,
	}

	dirs := make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("resolving %s: %w", path, err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	for _, path := range paths {
		w.logInfo("watching %s", path)
	}

	return w, nil
}

// SetDebounce changes the settle time. Call before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run processes events until ctx is cancelled or the watcher is closed
func (w *Watcher) Run(ctx context.Context) error {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]bool)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Clean(event.Name)
			if !w.files[name] {
				continue
			}

			pending[name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			clear(pending)

			for _, name := range changed {
				w.logInfo("changed: %s", name)
				w.mu.Lock()
				w.runs++
				w.mu.Unlock()
				w.onChange(name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logError("watcher error: %v", err)
		}
	}
}

// Runs returns how many times OnChange has been called
func (w *Watcher) Runs() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) logInfo(format string, args ...interface{}) {
	fmt.Fprintf(w.stdout, "[WATCH] "+format+"\n", args...)
}

func (w *Watcher) logError(format string, args ...interface{}) {
	fmt.Fprintf(w.stderr, "[WATCH ERROR] "+format+"\n", args...)
}
