package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/ports"
)

// RepositoryService opens repositories and remembers them.
type RepositoryService struct {
	detector ports.RepositoryDetector
	store    ports.RepositoryStore
	logger   zerolog.Logger
}

// NewRepositoryService creates a repository service. store may be nil, in
// which case nothing is remembered.
func NewRepositoryService(detector ports.RepositoryDetector, store ports.RepositoryStore, logger zerolog.Logger) *RepositoryService {
	return &RepositoryService{detector: detector, store: store, logger: logger}
}

// Open validates the repository containing dir and records it as recent.
func (s *RepositoryService) Open(ctx context.Context, dir string) (*domain.RepositoryInfo, error) {
	info, err := s.detector.Detect(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	if s.store != nil {
		if _, err := s.store.Touch(ctx, info.Root, info.Name); err != nil {
			s.logger.Warn().Err(err).Str("path", info.Root).Msg("failed to remember repository")
		}
	}

	s.logger.Info().
		Str("root", info.Root).
		Str("branch", info.Branch).
		Int("branches", len(info.Branches)).
		Msg("repository opened")

	return info, nil
}

// Describe re-reads HEAD and branches without recording an open.
func (s *RepositoryService) Describe(ctx context.Context, dir string) (*domain.RepositoryInfo, error) {
	return s.detector.Detect(ctx, dir)
}

// Recent lists remembered repositories, newest first.
func (s *RepositoryService) Recent(ctx context.Context, limit int) ([]*domain.RecentRepository, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Recent(ctx, limit)
}

// Resolve returns the remembered repository best matching query.
func (s *RepositoryService) Resolve(ctx context.Context, query string) (*domain.RecentRepository, error) {
	if s.store == nil {
		return nil, domain.ErrRepositoryNotFound
	}
	matches, err := s.store.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%q: %w", query, domain.ErrRepositoryNotFound)
	}
	return matches[0], nil
}

// Search lists remembered repositories matching query, best first.
func (s *RepositoryService) Search(ctx context.Context, query string) ([]*domain.RecentRepository, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Search(ctx, query)
}

// Forget removes a repository from the recent list.
func (s *RepositoryService) Forget(ctx context.Context, path string) error {
	if s.store == nil {
		return domain.ErrRepositoryNotFound
	}
	return s.store.Delete(ctx, path)
}
