package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xvierd/gitlanes/internal/adapters/tui"
	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/services"
)

var assumeYes bool

// confirmFunc asks before a destructive operation. Replaced in tests.
var confirmFunc = func(title string) bool {
	return tui.Confirm(title, &app.config.Theme)
}

// errAborted is returned when the user declines a confirmation.
var errAborted = errors.New("aborted")

// pathRunner runs one path operation on a workspace.
type pathRunner func(ws *services.Workspace, ctx context.Context, paths []string) (domain.FollowUp, error)

var stageCmd = newPathCmd(domain.OpStage, "stage <path>...", "Add files to the index",
	func(ws *services.Workspace, ctx context.Context, paths []string) (domain.FollowUp, error) {
		return ws.Stage(ctx, paths)
	})

var unstageCmd = newPathCmd(domain.OpUnstage, "unstage <path>...", "Remove files from the index",
	func(ws *services.Workspace, ctx context.Context, paths []string) (domain.FollowUp, error) {
		return ws.Unstage(ctx, paths)
	})

var discardCmd = newPathCmd(domain.OpDiscard, "discard <path>...", "Throw away working tree changes",
	func(ws *services.Workspace, ctx context.Context, paths []string) (domain.FollowUp, error) {
		return ws.Discard(ctx, paths)
	})

var cleanCmd = newPathCmd(domain.OpClean, "clean <path>...", "Delete untracked files",
	func(ws *services.Workspace, ctx context.Context, paths []string) (domain.FollowUp, error) {
		return ws.Clean(ctx, paths)
	})

// newPathCmd builds the command for an operation taking file paths.
// Destructive operations ask first unless --yes is given.
func newPathCmd(kind domain.OperationKind, use, short string, run pathRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			if kind.IsDestructive() && !assumeYes {
				if !confirmFunc(confirmTitle(kind, args)) {
					return errAborted
				}
			}

			ws, err := openWorkspace(ctx, repoDir)
			if err != nil {
				return err
			}
			if _, err := run(ws, ctx, args); err != nil {
				return fmt.Errorf("failed to %s: %w", kind.Verb(), err)
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"operation": string(kind),
					"paths":     args,
					"success":   true,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", pastTense(kind), describePaths(args))
			return nil
		},
	}
	if kind.IsDestructive() {
		cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	}
	return cmd
}

func confirmTitle(kind domain.OperationKind, paths []string) string {
	if kind == domain.OpClean {
		return fmt.Sprintf("Delete %s?", describePaths(paths))
	}
	return fmt.Sprintf("Discard changes to %s?", describePaths(paths))
}

func pastTense(kind domain.OperationKind) string {
	switch kind {
	case domain.OpStage:
		return "Staged"
	case domain.OpUnstage:
		return "Unstaged"
	case domain.OpDiscard:
		return "Discarded"
	case domain.OpClean:
		return "Removed"
	default:
		return string(kind)
	}
}

func describePaths(paths []string) string {
	if len(paths) == 1 {
		return paths[0]
	}
	if len(paths) <= 3 {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%d files", len(paths))
}
