package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var diffCached bool

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <hash>",
	Short: "Show the details of a commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		ws, err := openWorkspace(ctx, repoDir)
		if err != nil {
			return err
		}
		out, err := ws.Show(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to show %s: %w", args[0], err)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"hash":    args[0],
				"details": out,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out, "\n"))
		return nil
	},
}

// diffCmd represents the diff command
var diffCmd = &cobra.Command{
	Use:   "diff <path>",
	Short: "Show the changes to a file",
	Long:  `Show the unstaged changes to a file, or the staged ones with --cached.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		ws, err := openWorkspace(ctx, repoDir)
		if err != nil {
			return err
		}
		out, err := ws.Diff(ctx, args[0], diffCached)
		if err != nil {
			return fmt.Errorf("failed to diff %s: %w", args[0], err)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"path":   args[0],
				"cached": diffCached,
				"diff":   out,
			})
		}
		if strings.TrimSpace(out) == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out, "\n"))
		return nil
	},
}

func init() {
	diffCmd.Flags().BoolVar(&diffCached, "cached", false, "Diff the index against HEAD")
}
