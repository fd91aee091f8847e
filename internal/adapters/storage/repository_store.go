package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/ports"
)

// repositoryStore implements ports.RepositoryStore using SQLite.
type repositoryStore struct {
	db  *sql.DB
	now func() time.Time
}

// newRepositoryStore creates a new repository store.
func newRepositoryStore(db *sql.DB) ports.RepositoryStore {
	return &repositoryStore{db: db, now: time.Now}
}

// Touch records an open of the repository at path.
func (r *repositoryStore) Touch(ctx context.Context, path, name string) (*domain.RecentRepository, error) {
	query := `
		INSERT INTO repositories (path, name, open_count, last_opened)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			open_count = repositories.open_count + 1,
			last_opened = excluded.last_opened
	`

	if _, err := r.db.ExecContext(ctx, query, path, name, r.now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to record repository: %w", err)
	}

	return r.FindByPath(ctx, path)
}

// FindByPath retrieves a repository by its root path.
func (r *repositoryStore) FindByPath(ctx context.Context, path string) (*domain.RecentRepository, error) {
	query := `
		SELECT path, name, open_count, last_opened
		FROM repositories
		WHERE path = ?
	`

	repo, err := scanRepository(r.db.QueryRowContext(ctx, query, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRepositoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find repository: %w", err)
	}

	return repo, nil
}

// Recent returns repositories ordered by last opened, newest first. A
// non-positive limit returns all of them.
func (r *repositoryStore) Recent(ctx context.Context, limit int) ([]*domain.RecentRepository, error) {
	query := `
		SELECT path, name, open_count, last_opened
		FROM repositories
		ORDER BY last_opened DESC, path ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query repositories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var repos []*domain.RecentRepository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		repos = append(repos, repo)
	}

	return repos, rows.Err()
}

// Search does a fuzzy search over repository names and paths. The best
// match comes first; an empty query returns the recent list.
func (r *repositoryStore) Search(ctx context.Context, query string) ([]*domain.RecentRepository, error) {
	repos, err := r.Recent(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get repositories for fuzzy search: %w", err)
	}
	if query == "" {
		return repos, nil
	}

	// Names and paths share one candidate list so either can match
	candidates := make([]string, 0, 2*len(repos))
	for _, repo := range repos {
		candidates = append(candidates, repo.Name, repo.Path)
	}

	matches := fuzzy.Find(query, candidates)

	seen := make(map[string]bool, len(repos))
	var result []*domain.RecentRepository
	for _, match := range matches {
		repo := repos[match.Index/2]
		if seen[repo.Path] {
			continue
		}
		seen[repo.Path] = true
		result = append(result, repo)
	}

	return result, nil
}

// Delete forgets a repository.
func (r *repositoryStore) Delete(ctx context.Context, path string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM repositories WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("failed to delete repository: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrRepositoryNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRepository(row rowScanner) (*domain.RecentRepository, error) {
	var repo domain.RecentRepository
	if err := row.Scan(&repo.Path, &repo.Name, &repo.OpenCount, &repo.LastOpened); err != nil {
		return nil, err
	}
	return &repo, nil
}
