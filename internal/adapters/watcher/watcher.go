// Package watcher reports changes to a repository's refs, index and
// top-level working tree, coalescing bursts of filesystem events into one
// change notification.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the quiet period that ends a burst of events.
const DefaultDebounce = 300 * time.Millisecond

// Change is one coalesced burst of filesystem events.
type Change struct {
	Paths []string
	At    time.Time
}

// Watcher watches one repository.
type Watcher struct {
	root     string
	gitDir   string
	debounce time.Duration
	logger   zerolog.Logger
}

// New creates a watcher for the repository at root whose git directory is
// gitDir. A non-positive debounce means DefaultDebounce.
func New(root, gitDir string, debounce time.Duration, logger zerolog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{root: root, gitDir: gitDir, debounce: debounce, logger: logger}
}

// Start begins watching. The returned channel yields one Change per burst
// and is closed when ctx ends.
func (w *Watcher) Start(ctx context.Context) (<-chan Change, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	for _, dir := range w.dirs() {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	changes := make(chan Change, 1)
	go w.loop(ctx, fsw, changes)

	w.logger.Debug().Str("git_dir", w.gitDir).Dur("debounce", w.debounce).Msg("watching repository")
	return changes, nil
}

// dirs lists the directories to watch; missing optional ones are skipped.
func (w *Watcher) dirs() []string {
	dirs := []string{w.gitDir}
	for _, dir := range []string{
		filepath.Join(w.gitDir, "refs", "heads"),
		filepath.Join(w.gitDir, "refs", "remotes"),
		w.root,
	} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, changes chan<- Change) {
	defer close(changes)
	defer func() { _ = fsw.Close() }()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if w.shouldIgnore(event) {
				continue
			}
			w.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("change detected")
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			change := Change{Paths: make([]string, 0, len(pending)), At: time.Now()}
			for p := range pending {
				change.Paths = append(change.Paths, p)
			}
			sort.Strings(change.Paths)
			pending = map[string]bool{}

			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) shouldIgnore(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return true
	}
	base := filepath.Base(event.Name)
	switch {
	case strings.HasSuffix(base, ".lock"):
		return true
	case strings.Contains(filepath.ToSlash(event.Name), "/logs/"):
		return true
	case base == "config" || base == "FETCH_HEAD":
		return true
	case event.Name == w.gitDir:
		// The .git entry itself, seen from the working tree watch
		return true
	}
	return false
}
