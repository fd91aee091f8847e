package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvierd/gitlanes/internal/domain"
)

func TestRepositoryService_OpenRemembers(t *testing.T) {
	store := setupTestStorage(t)
	detector := &fakeDetector{info: &domain.RepositoryInfo{Root: "/src/gitlanes", Name: "xvierd/gitlanes", Branch: "main"}}
	service := NewRepositoryService(detector, store.Repositories(), zerolog.Nop())
	ctx := context.Background()

	info, err := service.Open(ctx, "/src/gitlanes/internal")
	require.NoError(t, err)
	assert.Equal(t, "/src/gitlanes", info.Root)

	_, err = service.Open(ctx, "/src/gitlanes")
	require.NoError(t, err)

	recent, err := service.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, 2, recent[0].OpenCount)

	resolved, err := service.Resolve(ctx, "lanes")
	require.NoError(t, err)
	assert.Equal(t, "/src/gitlanes", resolved.Path)

	_, err = service.Resolve(ctx, "qqq")
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)

	require.NoError(t, service.Forget(ctx, "/src/gitlanes"))
	recent, err = service.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestRepositoryService_OpenNotARepository(t *testing.T) {
	detector := &fakeDetector{err: domain.ErrNotGitRepository}
	service := NewRepositoryService(detector, nil, zerolog.Nop())

	_, err := service.Open(context.Background(), "/tmp")
	assert.ErrorIs(t, err, domain.ErrNotGitRepository)
}

func TestRepositoryService_WithoutStore(t *testing.T) {
	detector := &fakeDetector{info: &domain.RepositoryInfo{Root: "/r"}}
	service := NewRepositoryService(detector, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := service.Open(ctx, "/r")
	require.NoError(t, err)

	recent, err := service.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, recent)

	_, err = service.Resolve(ctx, "r")
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)
}
