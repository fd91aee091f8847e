// Package ports defines the interfaces (driven and driving ports)
// for the gitlanes application following hexagonal architecture principles.
// These interfaces define the contracts between the domain layer and
// external infrastructure.
package ports

import (
	"context"

	"github.com/xvierd/gitlanes/internal/domain"
)

// RepositoryStore defines the interface for the recently opened repositories.
// This is a driven port (implemented by adapters).
type RepositoryStore interface {
	// Touch records that a repository was opened, creating it if needed.
	Touch(ctx context.Context, path, name string) (*domain.RecentRepository, error)

	// FindByPath retrieves a repository by its root path.
	FindByPath(ctx context.Context, path string) (*domain.RecentRepository, error)

	// Recent returns repositories ordered by last opened, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.RecentRepository, error)

	// Search returns repositories whose name or path fuzzy-matches query.
	Search(ctx context.Context, query string) ([]*domain.RecentRepository, error)

	// Delete forgets a repository.
	Delete(ctx context.Context, path string) error
}

// OperationJournal defines the interface for the git operation journal.
// This is a driven port (implemented by adapters).
type OperationJournal interface {
	// Record persists a finished operation.
	Record(ctx context.Context, op *domain.OperationRecord) error

	// Recent returns the latest operations for a repository, newest first.
	// An empty repository returns operations across all repositories.
	Recent(ctx context.Context, repository string, limit int) ([]*domain.OperationRecord, error)
}

// Storage is the combined repository interface.
// This is a driven port (implemented by adapters).
type Storage interface {
	// Repositories provides access to recent repositories.
	Repositories() RepositoryStore

	// Operations provides access to the operation journal.
	Operations() OperationJournal

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate() error
}
