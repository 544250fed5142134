package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeCommitter struct {
	mu       sync.Mutex
	commits  map[string][]byte
}

func newFakeCommitter() *fakeCommitter {
	return &fakeCommitter{commits: make(map[string][]byte)}
}

func (f *fakeCommitter) CommitFile(relPath string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits[relPath] = data
	return nil
}

func (f *fakeCommitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.commits)
}

func (f *fakeCommitter) get(relPath string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.commits[relPath]
	return data, ok
}

func TestWatcherCommitsSettledFile(t *testing.T) {
	dir := t.TempDir()
	committer := newFakeCommitter()

	w, err := New(dir, committer, nil)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	require.Eventually(t, func() bool {
		return committer.count() == 1
	}, 3*time.Second, 20*time.Millisecond)

	data, ok := committer.get("hello.txt")
	require.True(t, ok)
	require.Equal(t, []byte("hello"), data)
}

func TestWatcherIgnoresMetaDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".chronolog"), 0o755))
	committer := newFakeCommitter()

	w, err := New(dir, committer, nil)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".chronolog", "history.db"), []byte("x"), 0o644))

	time.Sleep(700 * time.Millisecond)
	require.Equal(t, 0, committer.count())
}

func TestWatcherSkipsBinaryFiles(t *testing.T) {
	dir := t.TempDir()
	committer := newFakeCommitter()

	w, err := New(dir, committer, nil)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte("ab\x00cd"), 0o644))

	time.Sleep(700 * time.Millisecond)
	require.Equal(t, 0, committer.count())
}

func TestWatcherExcludesBinaryPathFromPendingBeforeDebounce(t *testing.T) {
	dir := t.TempDir()
	committer := newFakeCommitter()

	w, err := New(dir, committer, nil)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	path := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte("ab\x00cd"), 0o644))

	// Give the event loop time to process the write, then assert the
	// path never entered the pending map at all (rather than entering it
	// and only being dropped later at commit time).
	time.Sleep(50 * time.Millisecond)
	w.pendingMu.Lock()
	_, pending := w.pending["blob.bin"]
	w.pendingMu.Unlock()
	require.False(t, pending)
}

func TestWatcherReloadsIgnoreFileOnWrite(t *testing.T) {
	dir := t.TempDir()
	committer := newFakeCommitter()

	w, err := New(dir, committer, nil)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".chronologignore"), []byte("*.secret\n"), 0o644))
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "key.secret"), []byte("shh"), 0o644))

	time.Sleep(700 * time.Millisecond)
	_, ok := committer.get("key.secret")
	require.False(t, ok)
}
