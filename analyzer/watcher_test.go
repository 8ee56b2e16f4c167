package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeRecorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *changeRecorder) onChange(_ context.Context, files []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, files)
}

func (r *changeRecorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

func TestWatcher_ScanAllFiltersUnsupportedAndIgnored(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.go":             "package main\n",
		"notes.txt":           "not code",
		"lib/util.py":         "pass\n",
		".git/hooks/x.sh":     "exit 0\n",
		"node_modules/dep.js": "dep()\n",
		"app.log":             "log",
	})
	rec := &changeRecorder{}

	w, err := NewWatcher(root, []string{".git", "node_modules", "*.log"}, 50, 1000, rec.onChange)
	require.NoError(t, err)
	defer w.Close()

	w.ScanAll()
	assert.Equal(t, []string{"lib/util.py", "main.go"}, toSlash(w.Pending()))

	w.Flush()
	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"lib/util.py", "main.go"}, toSlash(batches[0]))
	assert.Empty(t, w.Pending())
}

func TestWatcher_FlushWithNothingPending(t *testing.T) {
	rec := &changeRecorder{}
	w, err := NewWatcher(t.TempDir(), nil, 50, 1000, rec.onChange)
	require.NoError(t, err)
	defer w.Close()

	w.Flush()
	assert.Empty(t, rec.snapshot())
}

func TestWatcher_FlushSkippedWhileRunning(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.py": "pass\n"})

	release := make(chan struct{})
	started := make(chan struct{})
	var calls int
	var mu sync.Mutex
	onChange := func(_ context.Context, files []string) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-release
	}

	w, err := NewWatcher(root, nil, 10_000, 10_000, onChange)
	require.NoError(t, err)
	defer w.Close()

	w.ScanAll()
	done := make(chan struct{})
	go func() {
		w.Flush()
		close(done)
	}()
	<-started

	// a second change arrives while the first analysis runs
	w.add(filepath.Join(root, "a.py"))
	w.Flush()
	assert.Equal(t, []string{"a.py"}, w.Pending())

	close(release)
	<-done
	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
}

func TestWatcher_ChangeDuringAnalysisIsRerun(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.py": "pass\n", "b.py": "pass\n"})

	started := make(chan struct{}, 1)
	var mu sync.Mutex
	var batches [][]string
	onChange := func(_ context.Context, files []string) {
		mu.Lock()
		batches = append(batches, files)
		n := len(batches)
		mu.Unlock()
		if n == 1 {
			started <- struct{}{}
			time.Sleep(300 * time.Millisecond)
		}
	}

	w, err := NewWatcher(root, nil, 20, 60, onChange)
	require.NoError(t, err)
	defer w.Close()

	w.ScanAll()
	<-started

	// both timers fire while the first analysis still holds the semaphore
	w.add(filepath.Join(root, "a.py"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"a.py"}, toSlash(batches[1]))
	mu.Unlock()
	assert.Empty(t, w.Pending())
}

func TestWatcher_DebouncesEvents(t *testing.T) {
	root := t.TempDir()
	rec := &changeRecorder{}

	w, err := NewWatcher(root, []string{".codeflow"}, 100, 5000, rec.onChange)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeFiles(t, root, map[string]string{
		"a.go":                "package a\n",
		"b.rs":                "fn b() {}\n",
		"readme.md":           "# docs",
		".codeflow/state.txt": "x",
	})

	seen := func() []string {
		var all []string
		for _, b := range rec.snapshot() {
			all = append(all, toSlash(b)...)
		}
		return all
	}
	require.Eventually(t, func() bool {
		all := seen()
		return contains(all, "a.go") && contains(all, "b.rs")
	}, 3*time.Second, 20*time.Millisecond)

	assert.NotContains(t, seen(), "readme.md")
	assert.NotContains(t, seen(), ".codeflow/state.txt")
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	rec := &changeRecorder{}

	w, err := NewWatcher(root, nil, 100, 5000, rec.onChange)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.Mkdir(filepath.Join(root, "pkg"), 0755))
	require.Eventually(t, func() bool { return len(rec.snapshot()) > 0 }, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "x.go"), []byte("package pkg\n"), 0644))
	require.Eventually(t, func() bool {
		for _, b := range rec.snapshot() {
			if contains(toSlash(b), "pkg/x.go") {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil, 100, 1000, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func toSlash(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.ToSlash(p)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
