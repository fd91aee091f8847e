package git

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/ports"
)

// Client implements ports.GitClient by running the git binary.
type Client struct {
	runner *Runner
	logger zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	binary string
	logger zerolog.Logger
}

// WithBinary sets the git executable.
func WithBinary(binary string) ClientOption {
	return func(o *clientOptions) {
		o.binary = binary
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// NewClient creates a client operating in the repository at dir.
func NewClient(dir string, opts ...ClientOption) *Client {
	o := clientOptions{binary: DefaultBinary, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{
		runner: NewRunner(o.binary, dir, o.logger),
		logger: o.logger,
	}
}

// Ensure Client implements ports.GitClient.
var _ ports.GitClient = (*Client)(nil)

// Dir returns the repository root.
func (c *Client) Dir() string {
	return c.runner.Dir()
}

// Toplevel resolves the repository root containing dir.
func Toplevel(ctx context.Context, binary, dir string) (string, error) {
	out, err := NewRunner(binary, dir, zerolog.Nop()).Run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		if errors.Is(err, domain.ErrGitCommand) {
			return "", fmt.Errorf("%s: %w", dir, domain.ErrNotGitRepository)
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Log returns up to maxCount commits reachable from HEAD, newest first as git
// prints them. A repository without commits has an empty history.
func (c *Client) Log(ctx context.Context, maxCount int) ([]domain.CommitRecord, error) {
	out, err := c.runner.Run(ctx, LogArgs(maxCount)...)
	if err != nil {
		if isUnbornHead(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return ParseLog(out, c.logger)
}

// LogArgs builds the git log invocation for the history graph.
func LogArgs(maxCount int) []string {
	return []string{
		"log",
		"--pretty=format:" + LogFormat,
		"--date=" + LogDate,
		"--max-count=" + strconv.Itoa(maxCount),
		"HEAD",
	}
}

func isUnbornHead(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "does not have any commits yet") ||
		strings.Contains(msg, "unknown revision or path not in the working tree")
}

// Status returns the working tree status.
func (c *Client) Status(ctx context.Context) (*domain.StatusReport, error) {
	out, err := c.runner.Run(ctx, "status", "--porcelain=v1", "--untracked-files=normal")
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}
	return ParseStatus(out), nil
}

// Stage adds paths to the index.
func (c *Client) Stage(ctx context.Context, paths []string) error {
	return c.pathCommand(ctx, "stage", paths, "add", "--")
}

// Unstage resets paths in the index to HEAD.
func (c *Client) Unstage(ctx context.Context, paths []string) error {
	return c.pathCommand(ctx, "unstage", paths, "reset", "HEAD", "--")
}

// Discard restores paths in the working tree from HEAD.
func (c *Client) Discard(ctx context.Context, paths []string) error {
	return c.pathCommand(ctx, "discard", paths, "checkout", "HEAD", "--")
}

// Clean deletes untracked paths, including ignored files below them.
func (c *Client) Clean(ctx context.Context, paths []string) error {
	return c.pathCommand(ctx, "clean", paths, "clean", "-fdx", "--")
}

func (c *Client) pathCommand(ctx context.Context, action string, paths []string, args ...string) error {
	if len(paths) == 0 {
		return nil
	}
	args = append(args, paths...)
	if _, err := c.runner.Run(ctx, args...); err != nil {
		return fmt.Errorf("failed to %s files: %w", action, err)
	}
	return nil
}

// Commit records the index with message and returns git's summary line.
func (c *Client) Commit(ctx context.Context, message string) (string, error) {
	out, err := c.runner.Run(ctx, "commit", "-m", message)
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return out, nil
}

// Show returns the header and file stats of one commit.
func (c *Client) Show(ctx context.Context, hash string) (string, error) {
	if !IsValidCommitHash(hash) {
		return "", fmt.Errorf("invalid commit hash %q", hash)
	}
	out, err := c.runner.Run(ctx, "show", "--stat", "--format=fuller", "--no-color", hash)
	if err != nil {
		return "", fmt.Errorf("failed to show commit %s: %w", domain.ShortHash(hash), err)
	}
	return out, nil
}

// Diff returns the diff of path against the index, or of the index against
// HEAD when cached is set.
func (c *Client) Diff(ctx context.Context, path string, cached bool) (string, error) {
	args := []string{"diff", "--no-color"}
	if cached {
		args = append(args, "--cached")
	}
	args = append(args, "--", path)

	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("failed to get diff: %w", err)
	}
	return out, nil
}
