package services

import (
	"context"
	"sync"

	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/ports"
)

// fakeGitClient is an in-memory ports.GitClient. When block is set, Status
// waits on it so tests can hold the operation slot.
type fakeGitClient struct {
	mu      sync.Mutex
	dir     string
	records []domain.CommitRecord
	status  *domain.StatusReport
	logErr  error
	statErr error
	opErr   error
	block   chan struct{}
	entered chan struct{}
	calls   []string
}

var _ ports.GitClient = (*fakeGitClient)(nil)

func newFakeGitClient() *fakeGitClient {
	return &fakeGitClient{
		dir:    "/repo",
		status: &domain.StatusReport{},
	}
}

func (f *fakeGitClient) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeGitClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeGitClient) Dir() string { return f.dir }

func (f *fakeGitClient) Log(ctx context.Context, maxCount int) ([]domain.CommitRecord, error) {
	f.record("log")
	if f.logErr != nil {
		return nil, f.logErr
	}
	if maxCount < len(f.records) {
		return f.records[:maxCount], nil
	}
	return f.records, nil
}

func (f *fakeGitClient) Status(ctx context.Context) (*domain.StatusReport, error) {
	f.record("status")
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.statErr != nil {
		return nil, f.statErr
	}
	return f.status, nil
}

func (f *fakeGitClient) Stage(ctx context.Context, paths []string) error {
	f.record("stage")
	return f.opErr
}

func (f *fakeGitClient) Unstage(ctx context.Context, paths []string) error {
	f.record("unstage")
	return f.opErr
}

func (f *fakeGitClient) Discard(ctx context.Context, paths []string) error {
	f.record("discard")
	return f.opErr
}

func (f *fakeGitClient) Clean(ctx context.Context, paths []string) error {
	f.record("clean")
	return f.opErr
}

func (f *fakeGitClient) Commit(ctx context.Context, message string) (string, error) {
	f.record("commit")
	if f.opErr != nil {
		return "", f.opErr
	}
	return "[main abc1234] " + message, nil
}

func (f *fakeGitClient) Show(ctx context.Context, hash string) (string, error) {
	f.record("show")
	return "commit " + hash, f.opErr
}

func (f *fakeGitClient) Diff(ctx context.Context, path string, cached bool) (string, error) {
	f.record("diff")
	return "diff --git a/" + path, f.opErr
}

type fakeNotifier struct {
	mu       sync.Mutex
	titles   []string
	messages []string
}

func (n *fakeNotifier) Notify(title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	n.messages = append(n.messages, message)
	return nil
}

type fakeDetector struct {
	info *domain.RepositoryInfo
	err  error
}

func (d *fakeDetector) Detect(ctx context.Context, dir string) (*domain.RepositoryInfo, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.info, nil
}

func (d *fakeDetector) IsAvailable() bool { return d.err == nil }
