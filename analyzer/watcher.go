package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/YoungY620/codeflow/internal"
	"github.com/fsnotify/fsnotify"
)

// Watcher batches source file changes under a root and hands them to
// onChange once the tree has been quiet for the debounce interval, or
// once maxWait has passed since the first pending change.
type Watcher struct {
	debounce, maxWait time.Duration
	ignorePatterns    []string
	onChange          func(ctx context.Context, files []string)
	watcher           *fsnotify.Watcher
	rootPath          string

	mu                  sync.Mutex
	ctx                 context.Context
	pending             map[string]struct{}
	debounceT, maxWaitT *time.Timer
	closed              bool
	sem                 chan struct{} // capacity 1: one analysis at a time
}

func NewWatcher(root string, ignore []string, debounceMs, maxWaitMs int, onChange func(context.Context, []string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		rootPath:       root,
		ignorePatterns: ignore,
		debounce:       time.Duration(debounceMs) * time.Millisecond,
		maxWait:        time.Duration(maxWaitMs) * time.Millisecond,
		onChange:       onChange,
		watcher:        fsw,
		ctx:            context.Background(),
		pending:        make(map[string]struct{}),
		sem:            make(chan struct{}, 1),
	}
	if err := w.watchAll(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) watchAll(dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		if p != w.rootPath && w.ignored(p) {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
}

// ScanAll marks every analyzable file under the root as pending, which
// schedules the initial analysis.
func (w *Watcher) ScanAll() {
	count := 0
	filepath.WalkDir(w.rootPath, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != w.rootPath && w.ignored(p) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.relevant(p) {
			w.add(p)
			count++
		}
		return nil
	})
	internal.LogDebug("ScanAll: added %d files to pending", count)
}

func (w *Watcher) ignored(path string) bool {
	return Ignored(relPath(w.rootPath, path), w.ignorePatterns)
}

// relevant reports whether a change to path can alter the analysis.
func (w *Watcher) relevant(path string) bool {
	if w.ignored(path) {
		return false
	}
	_, ok := LanguageFor(path)
	return ok
}

// Run dispatches filesystem events until ctx is done or the watcher is
// closed. Pending changes left at cancellation are dropped.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(e)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				internal.LogError("Watcher error: %v", err)
			}
		}
	}
}

func (w *Watcher) handle(e fsnotify.Event) {
	if w.ignored(e.Name) {
		return
	}
	internal.LogDebug("Event: %s %s", e.Op, e.Name)
	if e.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
			internal.LogDebug("Watching new directory: %s", e.Name)
			if err := w.watchAll(e.Name); err != nil {
				internal.LogError("Failed to watch %s: %v", e.Name, err)
			}
			// files created together with the directory produce no events
			w.add(e.Name)
			return
		}
	}
	if e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	gone := e.Op&(fsnotify.Remove|fsnotify.Rename) != 0
	// a removed directory shows up as a single extensionless path
	if w.relevant(e.Name) || (gone && filepath.Ext(e.Name) == "") {
		w.add(e.Name)
	}
}

func (w *Watcher) add(file string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	first := len(w.pending) == 0
	w.pending[relPath(w.rootPath, file)] = struct{}{}

	if w.debounceT != nil {
		w.debounceT.Stop()
	}
	w.debounceT = time.AfterFunc(w.debounce, w.Flush)

	if first {
		w.maxWaitT = time.AfterFunc(w.maxWait, w.Flush)
	}
}

// Pending returns the sorted relative paths waiting for the next flush.
func (w *Watcher) Pending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return sortedKeys(w.pending)
}

// Flush hands pending changes to onChange. It returns at once, leaving
// the changes pending, when an earlier flush is still running; that flush
// schedules them once it finishes.
func (w *Watcher) Flush() {
	select {
	case w.sem <- struct{}{}:
	default:
		internal.LogDebug("Analysis in progress, skipping flush (files remain in pending)")
		return
	}
	defer func() {
		<-w.sem
		w.rearm()
	}()

	w.mu.Lock()
	if w.debounceT != nil {
		w.debounceT.Stop()
		w.debounceT = nil
	}
	if w.maxWaitT != nil {
		w.maxWaitT.Stop()
		w.maxWaitT = nil
	}
	files := sortedKeys(w.pending)
	w.pending = make(map[string]struct{})
	ctx := w.ctx
	w.mu.Unlock()

	if len(files) > 0 && w.onChange != nil && ctx.Err() == nil {
		w.onChange(ctx, files)
	}
}

// rearm restarts the debounce timer for changes that arrived while
// onChange was running. Their own timers fired into the busy semaphore.
func (w *Watcher) rearm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || len(w.pending) == 0 || w.ctx.Err() != nil {
		return
	}
	internal.LogDebug("Rescheduling %d file(s) changed during analysis", len(w.pending))
	for _, t := range []*time.Timer{w.debounceT, w.maxWaitT} {
		if t != nil {
			t.Stop()
		}
	}
	w.debounceT = time.AfterFunc(w.debounce, w.Flush)
	w.maxWaitT = time.AfterFunc(w.maxWait, w.Flush)
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	if w.debounceT != nil {
		w.debounceT.Stop()
	}
	if w.maxWaitT != nil {
		w.maxWaitT.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
