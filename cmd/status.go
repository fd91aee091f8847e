package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/view"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show staged, unstaged and untracked files",
	Long:  `Display the working tree status split into the three lists the interface shows.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		ws, err := openWorkspace(ctx, repoDir)
		if err != nil {
			return err
		}
		report, err := ws.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to read status: %w", err)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), view.NewStatus(report))
		}
		printStatus(cmd.OutOrStdout(), ws.Info, report)
		return nil
	},
}

// printStatus writes the status lists under a branch header.
func printStatus(out io.Writer, info *domain.RepositoryInfo, report *domain.StatusReport) {
	if info != nil {
		branch := info.Branch
		if info.Detached {
			branch = "detached at " + domain.ShortHash(info.Head)
		}
		fmt.Fprintf(out, "On %s (%s)\n", branch, info.Name)
	}
	if report.IsClean() {
		fmt.Fprintln(out, "Nothing to commit, working tree clean.")
		return
	}
	printSection(out, "Staged", report.Staged)
	printSection(out, "Unstaged", report.Unstaged)
	printSection(out, "Untracked", report.Untracked)
}

func printSection(out io.Writer, title string, entries []domain.FileEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s (%d):\n", title, len(entries))
	for _, e := range entries {
		if e.OrigPath != "" {
			fmt.Fprintf(out, "  %s %s -> %s\n", e.Code, e.OrigPath, e.Path)
			continue
		}
		fmt.Fprintf(out, "  %s %s\n", e.Code, e.Path)
	}
}

// commandContext returns the command's context, or a background one when
// it runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
