package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/ports"
)

// Workspace is one open repository with the services working on it. Reads
// go straight to the client so viewers never contend for the operation
// slot; writes go through the GitService. A Workspace is shared by the
// web viewer and MCP handlers, so its fields are fixed after open.
type Workspace struct {
	// Info is the repository as it was when opened. Use Repository for
	// the current HEAD and branches.
	Info    *domain.RepositoryInfo
	Git     *GitService
	History *HistoryService
	Repos   *RepositoryService
}

// Ensure Workspace implements the read and write ports.
var (
	_ ports.RepositoryView    = (*Workspace)(nil)
	_ ports.RepositoryActions = (*Workspace)(nil)
)

// Snapshot is the status and graph of a repository read together.
type Snapshot struct {
	Graph   domain.GraphView
	Status  *domain.StatusReport
	TakenAt time.Time
}

// Root returns the repository root.
func (w *Workspace) Root() string {
	return w.Git.Client().Dir()
}

// Graph lays out the current history.
func (w *Workspace) Graph(ctx context.Context) domain.GraphView {
	return w.History.Load(ctx, w.Git.Client())
}

// Status returns the working tree status.
func (w *Workspace) Status(ctx context.Context) (*domain.StatusReport, error) {
	return w.Git.Client().Status(ctx)
}

// Show returns the details of one commit.
func (w *Workspace) Show(ctx context.Context, hash string) (string, error) {
	return w.Git.Client().Show(ctx, hash)
}

// Repository re-reads HEAD and branches. Info is left untouched.
func (w *Workspace) Repository(ctx context.Context) (*domain.RepositoryInfo, error) {
	return w.Repos.Describe(ctx, w.Root())
}

// Stage adds paths to the index.
func (w *Workspace) Stage(ctx context.Context, paths []string) (domain.FollowUp, error) {
	return w.Git.Stage(ctx, paths)
}

// Commit records the index with message.
func (w *Workspace) Commit(ctx context.Context, message string) (string, domain.FollowUp, error) {
	return w.Git.Commit(ctx, message)
}

// RefreshStatus reads the status through the operation slot.
func (w *Workspace) RefreshStatus(ctx context.Context, initialLoad bool) (*domain.StatusReport, domain.FollowUp, error) {
	return w.Git.RefreshStatus(ctx, initialLoad)
}

// RefreshHistory reads and lays out the history through the operation
// slot. Only a busy slot is returned as an error; any other failure is
// carried in the view.
func (w *Workspace) RefreshHistory(ctx context.Context) (domain.GraphView, error) {
	records, err := w.Git.RefreshHistory(ctx, w.History.MaxCount())
	if errors.Is(err, domain.ErrOperationInProgress) {
		return nil, err
	}
	return w.History.View(records, err), nil
}

// Unstage resets paths in the index.
func (w *Workspace) Unstage(ctx context.Context, paths []string) (domain.FollowUp, error) {
	return w.Git.Unstage(ctx, paths)
}

// Discard throws away working tree changes to paths.
func (w *Workspace) Discard(ctx context.Context, paths []string) (domain.FollowUp, error) {
	return w.Git.Discard(ctx, paths)
}

// Clean deletes untracked paths.
func (w *Workspace) Clean(ctx context.Context, paths []string) (domain.FollowUp, error) {
	return w.Git.Clean(ctx, paths)
}

// Diff returns the diff of one path, staged or not.
func (w *Workspace) Diff(ctx context.Context, path string, cached bool) (string, error) {
	return w.Git.Diff(ctx, path, cached)
}

// Snapshot reads status and history concurrently. A history failure is
// carried in the graph view; a status failure fails the snapshot.
func (w *Workspace) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Graph = w.Graph(gctx)
		return nil
	})
	g.Go(func() error {
		status, err := w.Status(gctx)
		if err != nil {
			return fmt.Errorf("failed to read status: %w", err)
		}
		snap.Status = status
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	snap.TakenAt = time.Now()
	return snap, nil
}
