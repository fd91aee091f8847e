package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvierd/gitlanes/internal/adapters/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the commit graph over HTTP",
	Long: `Start the web viewer. It serves the graph, the status and hit testing as JSON
and pushes a fresh graph over a websocket whenever the repository changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := setupSignalHandler()
		defer cancel()

		ws, err := openWorkspace(ctx, repoDir)
		if err != nil {
			return err
		}

		addr := serveAddr
		if addr == "" {
			addr = app.config.Server.Addr
		}

		changes, err := startWatcher(ctx, ws.Root())
		if err != nil {
			app.logger.Warn().Err(err).Msg("repository watcher disabled")
		}

		srv := server.New(ws,
			server.WithAddr(addr),
			server.WithPalette(app.config.Graph.Palette),
			server.WithLogger(app.logger),
		)

		fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", ws.Info.Name, srv.Addr())
		fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

		return srv.Run(ctx, changes)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}
