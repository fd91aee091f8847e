package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/xvierd/gitlanes/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and edit settings",
	Long:  `Interactively configure the history size, the repository watcher, the web viewer address, the MCP server and notifications.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfig(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout(), app.config)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showConfig(cmd.OutOrStdout(), viper.AllSettings())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

// showConfig prints settings as YAML, or JSON with --json.
func showConfig(out io.Writer, settings map[string]any) error {
	if jsonOutput {
		return writeJSON(out, settings)
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if path, err := config.GetConfigPath(); err == nil {
		fmt.Fprintf(out, "# %s\n", path)
	}
	_, err = out.Write(data)
	return err
}

// runConfig shows the settings and applies one edit read from reader.
func runConfig(reader *bufio.Reader, out io.Writer, cfg *config.Config) error {
	path, _ := config.GetConfigPath()

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Current configuration (%s):\n", path)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "    Git binary:            %s\n", cfg.Git.Binary)
	fmt.Fprintf(out, "    History size:          %d commits\n", cfg.Git.MaxCount)
	fmt.Fprintf(out, "    Watcher:               %s\n", watcherLabel(cfg))
	fmt.Fprintf(out, "    Web viewer address:    %s\n", cfg.Server.Addr)
	fmt.Fprintf(out, "    MCP server:            %s\n", mcpLabel(cfg))
	fmt.Fprintf(out, "    Notifications:         %s\n", notificationLabel(cfg))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  What would you like to change?")
	fmt.Fprintln(out, "    [h] History size")
	fmt.Fprintln(out, "    [w] Watcher")
	fmt.Fprintln(out, "    [a] Web viewer address")
	fmt.Fprintln(out, "    [m] MCP server")
	fmt.Fprintln(out, "    [n] Notifications")
	fmt.Fprintln(out, "    [q] Quit without saving")
	fmt.Fprint(out, "  Choose: ")

	choice, _ := reader.ReadString('\n')
	choice = strings.TrimSpace(strings.ToLower(choice))

	switch choice {
	case "h":
		return editHistorySize(reader, out, cfg)
	case "w":
		return editWatcher(reader, out, cfg)
	case "a":
		return editServerAddr(reader, out, cfg)
	case "m":
		return editMCP(reader, out, cfg)
	case "n":
		return editNotifications(reader, out, cfg)
	case "q", "":
		fmt.Fprintln(out, "  No changes made.")
		return nil
	default:
		return fmt.Errorf("invalid choice %q", choice)
	}
}

func editHistorySize(reader *bufio.Reader, out io.Writer, cfg *config.Config) error {
	fmt.Fprintf(out, "\n  Commits to lay out [%d]: ", cfg.Git.MaxCount)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		fmt.Fprintln(out, "  No changes made.")
		return nil
	}

	n, err := strconv.Atoi(input)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", input, err)
	}
	if n < 1 {
		return fmt.Errorf("history size must be at least 1")
	}
	cfg.Git.MaxCount = n

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(out, "\n  Saved: history size %d\n", n)
	return nil
}

func editWatcher(reader *bufio.Reader, out io.Writer, cfg *config.Config) error {
	fmt.Fprintf(out, "\n  Current watcher: %s\n\n", watcherLabel(cfg))
	fmt.Fprintln(out, "    [1] Off")
	fmt.Fprintln(out, "    [2] On")
	fmt.Fprint(out, "  Choose: ")

	choice, _ := reader.ReadString('\n')
	switch strings.TrimSpace(choice) {
	case "1":
		cfg.Watch.Enabled = false
	case "2":
		cfg.Watch.Enabled = true
		fmt.Fprintf(out, "  Debounce [%s]: ", time.Duration(cfg.Watch.Debounce))
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input != "" {
			d, err := time.ParseDuration(input)
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", input, err)
			}
			if d <= 0 {
				return fmt.Errorf("debounce must be positive")
			}
			cfg.Watch.Debounce = config.Duration(d)
		}
	default:
		fmt.Fprintln(out, "  No changes made.")
		return nil
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(out, "\n  Saved: watcher %s\n", watcherLabel(cfg))
	return nil
}

func editServerAddr(reader *bufio.Reader, out io.Writer, cfg *config.Config) error {
	fmt.Fprintf(out, "\n  Listen address [%s]: ", cfg.Server.Addr)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		fmt.Fprintln(out, "  No changes made.")
		return nil
	}
	if !strings.Contains(input, ":") {
		return fmt.Errorf("invalid address %q: want host:port", input)
	}
	cfg.Server.Addr = input

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(out, "\n  Saved: web viewer on %s\n", input)
	return nil
}

func editMCP(reader *bufio.Reader, out io.Writer, cfg *config.Config) error {
	fmt.Fprintf(out, "\n  Current MCP server: %s\n\n", mcpLabel(cfg))
	fmt.Fprintln(out, "    [1] Off")
	fmt.Fprintln(out, "    [2] Read only")
	fmt.Fprintln(out, "    [3] Read and write (stage, commit)")
	fmt.Fprint(out, "  Choose: ")

	choice, _ := reader.ReadString('\n')
	switch strings.TrimSpace(choice) {
	case "1":
		cfg.MCP.Enabled = false
		cfg.MCP.AllowWrite = false
	case "2":
		cfg.MCP.Enabled = true
		cfg.MCP.AllowWrite = false
	case "3":
		cfg.MCP.Enabled = true
		cfg.MCP.AllowWrite = true
	default:
		fmt.Fprintln(out, "  No changes made.")
		return nil
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(out, "\n  Saved: MCP server %s\n", mcpLabel(cfg))
	return nil
}

func editNotifications(reader *bufio.Reader, out io.Writer, cfg *config.Config) error {
	fmt.Fprintf(out, "\n  Current notifications: %s\n\n", notificationLabel(cfg))
	fmt.Fprintln(out, "    [1] Off")
	fmt.Fprintln(out, "    [2] On (visual only)")
	fmt.Fprintln(out, "    [3] On (with sound)")
	fmt.Fprint(out, "  Choose: ")

	choice, _ := reader.ReadString('\n')
	switch strings.TrimSpace(choice) {
	case "1":
		cfg.Notifications.Enabled = false
		cfg.Notifications.Sound = false
	case "2":
		cfg.Notifications.Enabled = true
		cfg.Notifications.Sound = false
	case "3":
		cfg.Notifications.Enabled = true
		cfg.Notifications.Sound = true
	default:
		fmt.Fprintln(out, "  No changes made.")
		return nil
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(out, "\n  Saved: notifications %s\n", notificationLabel(cfg))
	return nil
}

func watcherLabel(cfg *config.Config) string {
	if !cfg.Watch.Enabled {
		return "off"
	}
	return fmt.Sprintf("on (debounce %s)", time.Duration(cfg.Watch.Debounce))
}

func mcpLabel(cfg *config.Config) string {
	switch {
	case !cfg.MCP.Enabled:
		return "off"
	case cfg.MCP.AllowWrite:
		return "read and write"
	default:
		return "read only"
	}
}

func notificationLabel(cfg *config.Config) string {
	if !cfg.Notifications.Enabled {
		return "off"
	}
	if cfg.Notifications.Sound {
		return "on (with sound)"
	}
	return "on"
}
