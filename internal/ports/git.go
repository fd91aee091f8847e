package ports

import (
	"context"

	"github.com/xvierd/gitlanes/internal/domain"
)

// GitClient runs git commands against one repository.
// This is a driven port (implemented by adapters).
type GitClient interface {
	// Dir returns the repository root the client operates in.
	Dir() string

	// Log returns up to maxCount commits reachable from HEAD.
	Log(ctx context.Context, maxCount int) ([]domain.CommitRecord, error)

	// Status returns the working tree status.
	Status(ctx context.Context) (*domain.StatusReport, error)

	// Stage adds paths to the index.
	Stage(ctx context.Context, paths []string) error

	// Unstage resets paths in the index to HEAD.
	Unstage(ctx context.Context, paths []string) error

	// Discard restores paths in the working tree from HEAD.
	Discard(ctx context.Context, paths []string) error

	// Clean deletes untracked paths.
	Clean(ctx context.Context, paths []string) error

	// Commit records the index with message and returns git's summary.
	Commit(ctx context.Context, message string) (string, error)

	// Show returns the details of one commit.
	Show(ctx context.Context, hash string) (string, error)

	// Diff returns the diff of a path, against the index or HEAD when cached.
	Diff(ctx context.Context, path string, cached bool) (string, error)
}

// RepositoryDetector locates repositories and inspects their refs.
// This is a driven port (implemented by adapters).
type RepositoryDetector interface {
	// Detect finds the repository containing dir and describes it.
	Detect(ctx context.Context, dir string) (*domain.RepositoryInfo, error)

	// IsAvailable reports whether the current directory is inside a repository.
	IsAvailable() bool
}
