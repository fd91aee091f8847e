package ports

import (
	"context"

	"github.com/xvierd/gitlanes/internal/domain"
)

// MCPHandler defines the interface for MCP server operations.
// This is a driving port (called by the application layer).
type MCPHandler interface {
	// Start begins serving MCP requests.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the server.
	Stop() error

	// IsRunning returns true if the server is active.
	IsRunning() bool
}

// RepositoryView is the read side of an open repository, shared by the MCP
// server and the web viewer.
// This is a driven port (implemented by services layer).
type RepositoryView interface {
	// Graph lays out the current history.
	Graph(ctx context.Context) domain.GraphView

	// Status returns the working tree status.
	Status(ctx context.Context) (*domain.StatusReport, error)

	// Show returns the details of one commit.
	Show(ctx context.Context, hash string) (string, error)

	// Repository describes the repository and its branches.
	Repository(ctx context.Context) (*domain.RepositoryInfo, error)
}

// RepositoryActions is the write side of an open repository.
// This is a driven port (implemented by services layer).
type RepositoryActions interface {
	// Stage adds paths to the index.
	Stage(ctx context.Context, paths []string) (domain.FollowUp, error)

	// Commit records the index with message.
	Commit(ctx context.Context, message string) (string, domain.FollowUp, error)
}

// Notifier delivers desktop notifications.
// This is a driven port (implemented by adapters).
type Notifier interface {
	// Notify shows a notification with a title and message.
	Notify(title, message string) error
}
