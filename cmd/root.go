// Package cmd provides the CLI commands for the gitlanes application.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xvierd/gitlanes/internal/adapters/tui"
)

var (
	// Version info (set at build time via ldflags)
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"

	// Global flags
	repoDir    string
	dbPath     string
	jsonOutput bool
	verbose    bool
	quiet      bool
	maxCount   int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gitlanes",
	Short: "gitlanes - a terminal Git client with a lane graph",
	Long: `gitlanes shows the commit history of a repository as a lane graph next to
its staged, unstaged and untracked files, and lets you stage, discard and
commit without leaving the terminal.

Run "gitlanes" with no arguments inside a repository to open the interface.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeServices(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return cleanupServices()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return launchTUI(cmd, repoDir)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&repoDir, "repo", "C", "", "Repository to open (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the database file (default: ~/.gitlanes/gitlanes.db)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	rootCmd.PersistentFlags().IntVar(&maxCount, "max-count", 0, "Maximum number of commits to lay out (default from config)")

	// Set version - cobra handles --version automatically
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("gitlanes\nVersion: {{.Version}}\n")

	// Add subcommands
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(unstageCmd)
	rootCmd.AddCommand(discardCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(branchesCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(historyOpsCmd)
	rootCmd.AddCommand(configCmd)
}

// launchTUI opens the repository at dir and runs the full-screen interface
// until the user quits.
func launchTUI(cmd *cobra.Command, dir string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	ws, err := openWorkspace(ctx, dir)
	if err != nil {
		return err
	}

	changes, err := startWatcher(ctx, ws.Root())
	if err != nil {
		app.logger.Warn().Err(err).Msg("repository watcher disabled")
	}

	return tui.Run(ctx, ws, tui.Options{
		Info:    ws.Info,
		Theme:   &app.config.Theme,
		Palette: app.config.Graph.Palette,
		Changes: changes,
	})
}
