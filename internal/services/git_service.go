// Package services implements the application layer (use cases)
// following hexagonal architecture principles.
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/ports"
)

// GitService runs git operations one at a time. A second operation requested
// while one is running is refused rather than queued.
type GitService struct {
	client   ports.GitClient
	journal  ports.OperationJournal
	notifier ports.Notifier
	logger   zerolog.Logger

	mu      sync.Mutex
	running domain.OperationKind
}

// GitServiceOption configures a GitService.
type GitServiceOption func(*GitService)

// WithJournal records mutating operations in journal.
func WithJournal(journal ports.OperationJournal) GitServiceOption {
	return func(s *GitService) {
		s.journal = journal
	}
}

// WithNotifier reports commits and failures through notifier.
func WithNotifier(notifier ports.Notifier) GitServiceOption {
	return func(s *GitService) {
		s.notifier = notifier
	}
}

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) GitServiceOption {
	return func(s *GitService) {
		s.logger = logger
	}
}

// NewGitService creates a git service around client.
func NewGitService(client ports.GitClient, opts ...GitServiceOption) *GitService {
	s := &GitService{
		client: client,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client returns the underlying git client.
func (s *GitService) Client() ports.GitClient {
	return s.client
}

// Running returns the operation in flight, if any.
func (s *GitService) Running() (domain.OperationKind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running, s.running != ""
}

func (s *GitService) begin(kind domain.OperationKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running != "" {
		return &domain.OperationInProgressError{Requested: kind, Running: s.running}
	}
	s.running = kind
	return nil
}

func (s *GitService) end() {
	s.mu.Lock()
	s.running = ""
	s.mu.Unlock()
}

// run holds the in-flight slot for the duration of fn and records the
// outcome.
func (s *GitService) run(ctx context.Context, kind domain.OperationKind, args []string, fn func(context.Context) error) error {
	if err := s.begin(kind); err != nil {
		s.logger.Warn().Str("requested", string(kind)).Err(err).Msg("operation refused")
		return err
	}
	defer s.end()

	record := domain.NewOperationRecord(s.client.Dir(), kind, args)
	err := fn(ctx)
	record.Finish(err)

	event := s.logger.Debug()
	if err != nil {
		event = s.logger.Error().Err(err)
	}
	event.Str("operation", string(kind)).
		Strs("args", args).
		Dur("duration", record.Duration()).
		Msg("git operation finished")

	if kind.IsJournaled() && s.journal != nil {
		// Journal failures never fail the operation.
		if jerr := s.journal.Record(context.WithoutCancel(ctx), record); jerr != nil {
			s.logger.Warn().Err(jerr).Msg("failed to journal operation")
		}
	}
	s.notify(kind, err)

	return err
}

func (s *GitService) notify(kind domain.OperationKind, err error) {
	if s.notifier == nil {
		return
	}
	var title, message string
	switch {
	case err != nil && kind.IsJournaled():
		title, message = "gitlanes: "+kind.Verb()+" failed", err.Error()
	case err == nil && kind == domain.OpCommit:
		title, message = "gitlanes", "Commit created in "+s.client.Dir()
	default:
		return
	}
	if nerr := s.notifier.Notify(title, message); nerr != nil {
		s.logger.Debug().Err(nerr).Msg("notification failed")
	}
}

// RefreshStatus reads the working tree status. On the initial load of a
// repository the follow-up asks for the history as well.
func (s *GitService) RefreshStatus(ctx context.Context, initialLoad bool) (*domain.StatusReport, domain.FollowUp, error) {
	var report *domain.StatusReport
	err := s.run(ctx, domain.OpStatus, nil, func(ctx context.Context) error {
		var err error
		report, err = s.client.Status(ctx)
		return err
	})
	if err != nil {
		return nil, domain.FollowUp{}, err
	}
	return report, domain.FollowUpFor(domain.OpStatus, initialLoad), nil
}

// RefreshHistory reads up to maxCount commits from HEAD.
func (s *GitService) RefreshHistory(ctx context.Context, maxCount int) ([]domain.CommitRecord, error) {
	var records []domain.CommitRecord
	err := s.run(ctx, domain.OpHistory, []string{fmt.Sprintf("--max-count=%d", maxCount)}, func(ctx context.Context) error {
		var err error
		records, err = s.client.Log(ctx, maxCount)
		return err
	})
	return records, err
}

// Stage adds paths to the index.
func (s *GitService) Stage(ctx context.Context, paths []string) (domain.FollowUp, error) {
	return s.pathOperation(ctx, domain.OpStage, paths, s.client.Stage)
}

// Unstage resets paths in the index to HEAD.
func (s *GitService) Unstage(ctx context.Context, paths []string) (domain.FollowUp, error) {
	return s.pathOperation(ctx, domain.OpUnstage, paths, s.client.Unstage)
}

// Discard throws away working tree changes to paths. Callers confirm first.
func (s *GitService) Discard(ctx context.Context, paths []string) (domain.FollowUp, error) {
	return s.pathOperation(ctx, domain.OpDiscard, paths, s.client.Discard)
}

// Clean deletes untracked paths. Callers confirm first.
func (s *GitService) Clean(ctx context.Context, paths []string) (domain.FollowUp, error) {
	return s.pathOperation(ctx, domain.OpClean, paths, s.client.Clean)
}

func (s *GitService) pathOperation(ctx context.Context, kind domain.OperationKind, paths []string, fn func(context.Context, []string) error) (domain.FollowUp, error) {
	if len(paths) == 0 {
		return domain.FollowUp{}, nil
	}
	err := s.run(ctx, kind, paths, func(ctx context.Context) error {
		return fn(ctx, paths)
	})
	if err != nil {
		return domain.FollowUp{}, err
	}
	return domain.FollowUpFor(kind, false), nil
}

// Commit records the index with message. It refuses an empty message and an
// empty index.
func (s *GitService) Commit(ctx context.Context, message string) (string, domain.FollowUp, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", domain.FollowUp{}, domain.ErrEmptyCommitMessage
	}

	var out string
	err := s.run(ctx, domain.OpCommit, []string{"-m", message}, func(ctx context.Context) error {
		report, err := s.client.Status(ctx)
		if err != nil {
			return err
		}
		if !report.HasStaged() {
			return domain.ErrNothingStaged
		}
		out, err = s.client.Commit(ctx, message)
		return err
	})
	if err != nil {
		return "", domain.FollowUp{}, err
	}
	return out, domain.FollowUpFor(domain.OpCommit, false), nil
}

// Show returns the details of one commit.
func (s *GitService) Show(ctx context.Context, hash string) (string, error) {
	var out string
	err := s.run(ctx, domain.OpShow, []string{hash}, func(ctx context.Context) error {
		var err error
		out, err = s.client.Show(ctx, hash)
		return err
	})
	return out, err
}

// Diff returns the diff of one path.
func (s *GitService) Diff(ctx context.Context, path string, cached bool) (string, error) {
	var out string
	err := s.run(ctx, domain.OpDiff, []string{path}, func(ctx context.Context) error {
		var err error
		out, err = s.client.Diff(ctx, path, cached)
		return err
	})
	return out, err
}
