// Package watcher implements ChronoLog's recursive filesystem watcher
// (C7): a debounced event source that commits files through the
// Repository API once they have settled, per spec.md §4.7.
package watcher

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chronolog/chronolog/internal/ignore"
)

// debounceWindow is how long a path must sit untouched before it is
// committed.
const debounceWindow = 500 * time.Millisecond

// sweepInterval is how often the pending-path map is checked for paths
// that have cleared the debounce window.
const sweepInterval = 100 * time.Millisecond

// Committer is the subset of the Repository API the watcher needs. It is
// an interface, not a concrete dependency, so internal/watcher never
// imports internal/repo (which imports internal/watcher to start it).
// The watcher reads file bytes itself (per spec.md §2's data flow) and
// hands them to Commit so the Repository API never re-touches the disk
// for a path whose content may have already moved on again.
type Committer interface {
	CommitFile(relPath string, data []byte) error
}

// Watcher recursively watches a root directory, debounces rapid
// successive writes to the same path, and commits each settled path
// through a Committer.
type Watcher struct {
	root      string
	commit    Committer
	log       *slog.Logger
	fsw       *fsnotify.Watcher
	matcher   *ignore.Matcher
	matcherMu sync.RWMutex

	pendingMu sync.Mutex
	pending   map[string]time.Time

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a Watcher rooted at root. The initial ignore matcher is
// loaded from root's .chronologignore (or defaults, if absent).
func New(root string, commit Committer, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	matcher, err := ignore.Load(filepath.Join(root, ignore.IgnoreFileName))
	if err != nil {
		_ = fsw.Close()
		return nil, err
	}

	if log == nil {
		log = slog.Default()
	}

	w := &Watcher{
		root:    root,
		commit:  commit,
		log:     log,
		fsw:     fsw,
		matcher: matcher,
		pending: make(map[string]time.Time),
		done:    make(chan struct{}),
	}

	if err := w.addRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return w, nil
}

// addRecursive adds root and every non-ignored subdirectory beneath it to
// the fsnotify watch set, since fsnotify does not watch recursively on
// its own on Linux or Windows.
func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		rel := w.relPath(path)
		if rel != "." && w.currentMatcher().ShouldIgnore(rel, true) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) relPath(abs string) string {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) currentMatcher() *ignore.Matcher {
	w.matcherMu.RLock()
	defer w.matcherMu.RUnlock()
	return w.matcher
}

// Start launches the event loop and the debounce sweeper. It returns
// immediately; call Stop to shut down.
func (w *Watcher) Start() {
	w.wg.Add(2)
	go w.runEventLoop()
	go w.runSweeper()
}

// Stop halts both goroutines and releases the fsnotify handle.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fsw.Close()
	w.wg.Wait()
}

func (w *Watcher) runEventLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher.fsnotify_error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			if err := w.addRecursive(event.Name); err != nil {
				w.log.Warn("watcher.add_dir_failed", "path", event.Name, "error", err)
			}
		}
		return
	}

	rel := w.relPath(event.Name)

	if filepath.Base(event.Name) == ignore.IgnoreFileName {
		w.reloadIgnore()
		return
	}

	if w.currentMatcher().ShouldIgnore(rel, false) {
		return
	}

	if looksBinaryFile(event.Name) {
		return
	}

	w.pendingMu.Lock()
	w.pending[rel] = time.Now()
	w.pendingMu.Unlock()
}

// looksBinaryFile sniffs the first 1 KiB of path to decide whether the
// event should admit it to the pending map at all, mirroring
// should_ignore's gating of on_modified in the original watcher: a path
// that cannot be opened, or whose leading bytes look binary, is excluded
// here rather than discovered later at commit time.
func looksBinaryFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, 1024)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return true
	}
	return ignore.LooksBinary(buf[:n])
}

func (w *Watcher) reloadIgnore() {
	matcher, err := ignore.Load(filepath.Join(w.root, ignore.IgnoreFileName))
	if err != nil {
		w.log.Warn("watcher.ignore_reload_failed", "error", err)
		return
	}
	w.matcherMu.Lock()
	w.matcher = matcher
	w.matcherMu.Unlock()
	w.log.Info("watcher.ignore_reloaded")
}

func (w *Watcher) runSweeper() {
	defer w.wg.Done()
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *Watcher) sweep() {
	now := time.Now()
	var settled []string

	w.pendingMu.Lock()
	for rel, last := range w.pending {
		if now.Sub(last) >= debounceWindow {
			settled = append(settled, rel)
			delete(w.pending, rel)
		}
	}
	w.pendingMu.Unlock()

	for _, rel := range settled {
		w.commitPath(rel)
	}
}

func (w *Watcher) commitPath(rel string) {
	abs := filepath.Join(w.root, filepath.FromSlash(rel))
	data, err := os.ReadFile(abs)
	if err != nil {
		// File vanished (deleted/moved) between the event firing and the
		// debounce window elapsing: nothing to commit.
		return
	}
	if ignore.LooksBinary(data) {
		// Defensive re-check: handleEvent already sniffed this path before
		// admitting it to pending, but its content can change again during
		// the debounce window.
		return
	}
	if err := w.commit.CommitFile(rel, data); err != nil {
		w.log.Warn("watcher.commit_failed", "path", rel, "error", err)
	}
}
