package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoDirs(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	gitDir := filepath.Join(root, ".git")
	require.NoError(t, os.MkdirAll(filepath.Join(gitDir, "refs", "heads"), 0o755))
	return root, gitDir
}

func waitChange(t *testing.T, changes <-chan Change) Change {
	t.Helper()
	select {
	case change, ok := <-changes:
		require.True(t, ok, "channel closed")
		return change
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}
	return Change{}
}

func TestWatcher_CoalescesBurst(t *testing.T) {
	root, gitDir := newRepoDirs(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := New(root, gitDir, 50*time.Millisecond, zerolog.Nop()).Start(ctx)
	require.NoError(t, err)

	ref := filepath.Join(gitDir, "refs", "heads", "main")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(ref, []byte{byte('a' + i)}, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))

	change := waitChange(t, changes)
	assert.Contains(t, change.Paths, ref)
	assert.Contains(t, change.Paths, filepath.Join(gitDir, "HEAD"))

	select {
	case extra := <-changes:
		t.Fatalf("unexpected second change: %v", extra.Paths)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_WorkingTreeFile(t *testing.T) {
	root, gitDir := newRepoDirs(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := New(root, gitDir, 20*time.Millisecond, zerolog.Nop()).Start(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("hi"), 0o644))

	change := waitChange(t, changes)
	assert.Equal(t, []string{filepath.Join(root, "README.md")}, change.Paths)
}

func TestWatcher_ClosesOnCancel(t *testing.T) {
	root, gitDir := newRepoDirs(t)
	ctx, cancel := context.WithCancel(context.Background())

	changes, err := New(root, gitDir, 0, zerolog.Nop()).Start(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-changes:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWatcher_MissingGitDir(t *testing.T) {
	root := t.TempDir()
	_, err := New(root, filepath.Join(root, ".git"), 0, zerolog.Nop()).Start(context.Background())
	assert.Error(t, err)
}

func TestShouldIgnore(t *testing.T) {
	w := New("/repo", "/repo/.git", 0, zerolog.Nop())

	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "/repo/.git/index.lock", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/repo/.git/index", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "/repo/.git/logs/HEAD", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/repo/.git/config", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/repo/.git/HEAD", Op: fsnotify.Chmod}, true},
		{fsnotify.Event{Name: "/repo/.git", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/repo/main.go", Op: fsnotify.Remove}, false},
	}
	for _, tt := range tests {
		t.Run(tt.event.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, w.shouldIgnore(tt.event))
		})
	}
}
