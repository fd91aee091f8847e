package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xvierd/gitlanes/internal/domain"
)

var (
	opsLimit int
	opsAll   bool
)

// historyOpsCmd represents the history-ops command
var historyOpsCmd = &cobra.Command{
	Use:   "history-ops",
	Short: "List recent git operations",
	Long: `List the git operations gitlanes ran on this repository, newest first.
With --all operations across every repository are listed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		repo := ""
		if !opsAll {
			ws, err := openWorkspace(ctx, repoDir)
			if err != nil {
				return err
			}
			repo = ws.Root()
		}

		ops, err := app.storage.Operations().Recent(ctx, repo, opsLimit)
		if err != nil {
			return fmt.Errorf("failed to read operation journal: %w", err)
		}

		if jsonOutput {
			list := make([]map[string]any, 0, len(ops))
			for _, op := range ops {
				list = append(list, map[string]any{
					"id":          op.ID,
					"repository":  op.Repository,
					"operation":   string(op.Kind),
					"args":        op.Args,
					"success":     op.Success,
					"stderr":      op.Stderr,
					"started_at":  op.StartedAt.Format(time.RFC3339),
					"duration_ms": op.Duration().Milliseconds(),
				})
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"operations": list,
				"count":      len(list),
			})
		}

		printOperations(cmd.OutOrStdout(), ops, opsAll)
		return nil
	},
}

func init() {
	historyOpsCmd.Flags().IntVarP(&opsLimit, "limit", "n", 20, "Number of operations to list")
	historyOpsCmd.Flags().BoolVar(&opsAll, "all", false, "List operations of every repository")
}

func printOperations(out io.Writer, ops []*domain.OperationRecord, withRepo bool) {
	if len(ops) == 0 {
		fmt.Fprintln(out, "No operations recorded.")
		return
	}
	for _, op := range ops {
		icon := "✓"
		if !op.Success {
			icon = "✗"
		}
		line := fmt.Sprintf("%s %s  %-8s %s",
			icon,
			op.StartedAt.Format("2006-01-02 15:04:05"),
			op.Kind,
			strings.Join(op.Args, " "))
		if withRepo {
			line += "  (" + filepath.Base(op.Repository) + ")"
		}
		fmt.Fprintln(out, strings.TrimRight(line, " "))
		if !op.Success && op.Stderr != "" {
			fmt.Fprintf(out, "    %s\n", firstLine(op.Stderr))
		}
	}
}
