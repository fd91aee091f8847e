package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xvierd/gitlanes/internal/domain"
)

// DefaultBinary is the git executable looked up on PATH.
const DefaultBinary = "git"

// Runner executes git in one directory with a C locale so output parsing
// does not depend on the user's language.
type Runner struct {
	binary string
	dir    string
	logger zerolog.Logger
}

// NewRunner creates a runner for dir. An empty binary means DefaultBinary.
func NewRunner(binary, dir string, logger zerolog.Logger) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Runner{binary: binary, dir: dir, logger: logger}
}

// Dir returns the working directory commands run in.
func (r *Runner) Dir() string {
	return r.dir
}

// Run executes git with args and returns stdout with trailing newlines
// removed. Leading whitespace is significant in porcelain output and is kept.
func (r *Runner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...) //#nosec G204 -- args are built by the client
	cmd.Dir = r.dir
	cmd.Env = append(os.Environ(), "LANG=C", "LC_ALL=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug().Str("dir", r.dir).Strs("args", args).Msg("running git")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", domain.ErrGitNotFound, r.binary)
		}
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return "", fmt.Errorf("%w: %s", domain.ErrGitNotFound, pathErr.Error())
		}

		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		if detail == "" {
			return "", fmt.Errorf("git %s: %w", subcommand(args), domain.ErrGitCommand)
		}
		return "", fmt.Errorf("git %s: %s: %w", subcommand(args), detail, domain.ErrGitCommand)
	}

	return strings.TrimRight(stdout.String(), "\r\n"), nil
}

func subcommand(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
