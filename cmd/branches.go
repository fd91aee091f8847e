package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/xvierd/gitlanes/internal/adapters/tui"
	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/view"
)

const recentLimit = 20

var openList bool

// pickFunc chooses among recent repositories. Replaced in tests.
var pickFunc = func(recent []*domain.RecentRepository) (*domain.RecentRepository, bool) {
	return tui.PickRepository(recent, &app.config.Theme)
}

// launchFunc runs the interface on a repository. Replaced in tests.
var launchFunc = launchTUI

// branchesCmd represents the branches command
var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "List local branches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		ws, err := openWorkspace(ctx, repoDir)
		if err != nil {
			return err
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), view.NewRepository(ws.Info))
		}
		printBranches(cmd.OutOrStdout(), ws.Info)
		return nil
	},
}

// openCmd represents the open command
var openCmd = &cobra.Command{
	Use:   "open [query]",
	Short: "Open a recently used repository",
	Long: `Open a repository from the recent list. With a query the best fuzzy match
on name or path is opened; without one a picker is shown. --list prints the
recent list instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		if openList || jsonOutput {
			recent, err := app.repos.Recent(ctx, recentLimit)
			if err != nil {
				return fmt.Errorf("failed to list repositories: %w", err)
			}
			return printRecent(cmd.OutOrStdout(), recent)
		}

		var target *domain.RecentRepository
		if len(args) == 1 {
			match, err := app.repos.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			target = match
		} else {
			recent, err := app.repos.Recent(ctx, recentLimit)
			if err != nil {
				return fmt.Errorf("failed to list repositories: %w", err)
			}
			if len(recent) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recent repositories. Run gitlanes inside one first.")
				return nil
			}
			choice, ok := pickFunc(recent)
			if !ok {
				return nil
			}
			target = choice
		}

		return launchFunc(cmd, target.Path)
	},
}

func init() {
	openCmd.Flags().BoolVarP(&openList, "list", "l", false, "Print the recent repositories")
}

func printBranches(out io.Writer, info *domain.RepositoryInfo) {
	if info.Detached {
		fmt.Fprintf(out, "* (detached at %s)\n", domain.ShortHash(info.Head))
	}
	for _, b := range info.Branches {
		marker := " "
		if b.IsHead {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-24s %s\n", marker, b.Name, domain.ShortHash(b.Hash))
	}
}

func printRecent(out io.Writer, recent []*domain.RecentRepository) error {
	if jsonOutput {
		list := make([]map[string]any, 0, len(recent))
		for _, r := range recent {
			list = append(list, map[string]any{
				"path":        r.Path,
				"name":        r.Name,
				"open_count":  r.OpenCount,
				"last_opened": r.LastOpened.Format(time.RFC3339),
			})
		}
		return writeJSON(out, map[string]any{
			"repositories": list,
			"count":        len(list),
		})
	}

	if len(recent) == 0 {
		fmt.Fprintln(out, "No recent repositories.")
		return nil
	}
	for _, r := range recent {
		fmt.Fprintf(out, "%-20s %s (opened %d times)\n", r.Name, r.Path, r.OpenCount)
	}
	return nil
}
