package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvierd/gitlanes/internal/adapters/mcp"
)

var errMCPDisabled = errors.New("MCP server is disabled in the configuration")

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server for integration with AI assistants.
The server provides tools for reading the commit graph and status of the
repository, and for staging and committing when mcp.allow_write is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !app.config.MCP.Enabled {
			return errMCPDisabled
		}

		ctx, cancel := setupSignalHandler()
		defer cancel()

		ws, err := openWorkspace(ctx, repoDir)
		if err != nil {
			return err
		}

		opts := []mcp.Option{
			mcp.WithPalette(app.config.Graph.Palette),
			mcp.WithVersion(Version),
			mcp.WithLogger(app.logger),
		}
		if app.config.MCP.AllowWrite {
			opts = append(opts, mcp.WithActions(ws))
		}

		// stdout carries the protocol
		app.logger.Info().
			Str("repository", ws.Root()).
			Bool("allow_write", app.config.MCP.AllowWrite).
			Msg("starting MCP server on stdio")

		server := mcp.NewServer(ws, opts...)
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}

		return nil
	},
}
