package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xvierd/gitlanes/internal/adapters/tui"
)

var commitMessage string

// promptFunc asks for a line of text. Replaced in tests.
var promptFunc = func(title, placeholder string) (string, bool) {
	res := tui.RunTextPrompt(title, placeholder, &app.config.Theme)
	return res.Value, !res.Aborted
}

// commitCmd represents the commit command
var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Record the staged changes",
	Long: `Commit the index with a message. Without -m the message is asked for
interactively.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		message := commitMessage
		if strings.TrimSpace(message) == "" && !jsonOutput {
			value, ok := promptFunc("Commit message:", "Describe the change")
			if !ok {
				return errAborted
			}
			message = value
		}

		ws, err := openWorkspace(ctx, repoDir)
		if err != nil {
			return err
		}
		out, _, err := ws.Commit(ctx, message)
		if err != nil {
			return fmt.Errorf("failed to commit: %w", err)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"success": true,
				"summary": firstLine(out),
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out, "\n"))
		return nil
	},
}

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "Commit message")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
