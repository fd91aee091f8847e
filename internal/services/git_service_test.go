package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvierd/gitlanes/internal/adapters/storage"
	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/ports"
)

func setupTestStorage(t *testing.T) ports.Storage {
	t.Helper()
	store, err := storage.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGitService_RefreshStatus(t *testing.T) {
	client := newFakeGitClient()
	client.status = &domain.StatusReport{Staged: []domain.FileEntry{{Code: "M ", Path: "a.go"}}}
	service := NewGitService(client)
	ctx := context.Background()

	report, follow, err := service.RefreshStatus(ctx, true)
	require.NoError(t, err)
	assert.True(t, report.HasStaged())
	assert.Equal(t, domain.FollowUp{RefreshHistory: true}, follow, "initial load chains history")

	_, follow, err = service.RefreshStatus(ctx, false)
	require.NoError(t, err)
	assert.False(t, follow.Any())
}

func TestGitService_SingleInFlight(t *testing.T) {
	client := newFakeGitClient()
	client.block = make(chan struct{})
	client.entered = make(chan struct{}, 1)
	service := NewGitService(client)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, _, err := service.RefreshStatus(ctx, false)
		done <- err
	}()
	<-client.entered

	running, busy := service.Running()
	assert.True(t, busy)
	assert.Equal(t, domain.OpStatus, running)

	_, err := service.Stage(ctx, []string{"a.go"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOperationInProgress)
	assert.Equal(t, "cannot stage files: Status is already running", err.Error())

	var inProgress *domain.OperationInProgressError
	require.True(t, errors.As(err, &inProgress))
	assert.Equal(t, domain.OpStage, inProgress.Requested)

	close(client.block)
	require.NoError(t, <-done)

	_, busy = service.Running()
	assert.False(t, busy)

	client.entered = nil
	_, err = service.Stage(ctx, []string{"a.go"})
	assert.NoError(t, err, "slot is released after the operation")
}

func TestGitService_SlotReleasedOnFailure(t *testing.T) {
	client := newFakeGitClient()
	client.opErr = domain.ErrGitCommand
	service := NewGitService(client)
	ctx := context.Background()

	_, err := service.Discard(ctx, []string{"a.go"})
	assert.ErrorIs(t, err, domain.ErrGitCommand)

	_, busy := service.Running()
	assert.False(t, busy)
}

func TestGitService_PathOperationsFollowUps(t *testing.T) {
	client := newFakeGitClient()
	service := NewGitService(client)
	ctx := context.Background()

	ops := map[string]func(context.Context, []string) (domain.FollowUp, error){
		"stage":   service.Stage,
		"unstage": service.Unstage,
		"discard": service.Discard,
		"clean":   service.Clean,
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			follow, err := op(ctx, []string{"file.txt"})
			require.NoError(t, err)
			assert.Equal(t, domain.FollowUp{RefreshStatus: true}, follow)
			assert.Contains(t, client.Calls(), name)
		})
	}
}

func TestGitService_EmptyPathsAreNoop(t *testing.T) {
	client := newFakeGitClient()
	service := NewGitService(client)

	follow, err := service.Stage(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, follow.Any())
	assert.Empty(t, client.Calls())
}

func TestGitService_Commit(t *testing.T) {
	ctx := context.Background()

	t.Run("empty message", func(t *testing.T) {
		client := newFakeGitClient()
		_, _, err := NewGitService(client).Commit(ctx, "   \n")
		assert.ErrorIs(t, err, domain.ErrEmptyCommitMessage)
		assert.Empty(t, client.Calls())
	})

	t.Run("nothing staged", func(t *testing.T) {
		client := newFakeGitClient()
		client.status = &domain.StatusReport{Unstaged: []domain.FileEntry{{Code: " M", Path: "a.go"}}}
		_, _, err := NewGitService(client).Commit(ctx, "msg")
		assert.ErrorIs(t, err, domain.ErrNothingStaged)
		assert.NotContains(t, client.Calls(), "commit")
	})

	t.Run("success refreshes status and history", func(t *testing.T) {
		client := newFakeGitClient()
		client.status = &domain.StatusReport{Staged: []domain.FileEntry{{Code: "A ", Path: "a.go"}}}
		out, follow, err := NewGitService(client).Commit(ctx, "  add a  ")
		require.NoError(t, err)
		assert.Equal(t, "[main abc1234] add a", out)
		assert.Equal(t, domain.FollowUp{RefreshStatus: true, RefreshHistory: true}, follow)
	})
}

func TestGitService_Journal(t *testing.T) {
	store := setupTestStorage(t)
	client := newFakeGitClient()
	client.status = &domain.StatusReport{Staged: []domain.FileEntry{{Code: "A ", Path: "a.go"}}}
	service := NewGitService(client, WithJournal(store.Operations()))
	ctx := context.Background()

	_, _, err := service.RefreshStatus(ctx, false)
	require.NoError(t, err)
	_, err = service.Stage(ctx, []string{"a.go"})
	require.NoError(t, err)
	_, _, err = service.Commit(ctx, "first")
	require.NoError(t, err)

	ops, err := store.Operations().Recent(ctx, "/repo", 0)
	require.NoError(t, err)
	require.Len(t, ops, 2, "status refreshes are not journaled")

	kinds := []domain.OperationKind{ops[0].Kind, ops[1].Kind}
	assert.ElementsMatch(t, []domain.OperationKind{domain.OpStage, domain.OpCommit}, kinds)
	for _, op := range ops {
		assert.True(t, op.Success)
		assert.Equal(t, "/repo", op.Repository)
	}
}

func TestGitService_Notifications(t *testing.T) {
	client := newFakeGitClient()
	client.status = &domain.StatusReport{Staged: []domain.FileEntry{{Code: "A ", Path: "a.go"}}}
	notifier := &fakeNotifier{}
	service := NewGitService(client, WithNotifier(notifier))
	ctx := context.Background()

	_, _, err := service.Commit(ctx, "msg")
	require.NoError(t, err)

	client.opErr = errors.New("boom")
	_, err = service.Clean(ctx, []string{"junk"})
	require.Error(t, err)

	_, err = service.Show(ctx, "abc")
	require.Error(t, err)

	require.Len(t, notifier.titles, 2, "reads do not notify")
	assert.Contains(t, notifier.messages[0], "/repo")
	assert.Contains(t, notifier.titles[1], "clean files failed")
	assert.Equal(t, "boom", notifier.messages[1])
}

func TestGitService_ShowAndDiff(t *testing.T) {
	client := newFakeGitClient()
	service := NewGitService(client)
	ctx := context.Background()

	out, err := service.Show(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "commit abc123", out)

	diff, err := service.Diff(ctx, "a.go", true)
	require.NoError(t, err)
	assert.Equal(t, "diff --git a/a.go", diff)
}
