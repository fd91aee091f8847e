package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/graph"
	"github.com/xvierd/gitlanes/internal/render"
	"github.com/xvierd/gitlanes/internal/view"
)

const defaultTermWidth = 100

var graphAt string

// logCmd represents the log command
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List commits in graph order",
	Long:  `List the commits of the current history in the order the graph lays them out, newest first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ready, err := loadGraph(commandContext(cmd))
		if err != nil {
			return err
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), view.NewGraph(ready, app.config.Graph.Palette).Nodes)
		}

		out := cmd.OutOrStdout()
		rows := ready.Rows()
		if len(rows) == 0 {
			fmt.Fprintln(out, "No commits yet.")
			return nil
		}
		for _, c := range rows {
			fmt.Fprintf(out, "%s  %s  %-16s %s\n",
				domain.ShortHash(c.Hash),
				c.Time().Format(time.DateOnly),
				truncate(c.Author, 16),
				c.Subject)
		}
		return nil
	},
}

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Draw the commit graph",
	Long: `Draw the commit graph as text, or print its layout as JSON with --json.

With --at x,y the layout is hit-tested at that point instead, the way a click
on the graph selects a commit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ready, err := loadGraph(commandContext(cmd))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if graphAt != "" {
			point, err := parsePoint(graphAt)
			if err != nil {
				return err
			}
			return printSelection(out, ready, point)
		}

		if jsonOutput {
			return writeJSON(out, view.NewGraph(ready, app.config.Graph.Palette))
		}

		if ready.Layout.IsEmpty() {
			fmt.Fprintln(out, "No commits yet.")
			return nil
		}
		for _, line := range graphLines(ready, terminalWidth()) {
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	graphCmd.Flags().StringVar(&graphAt, "at", "", "Hit-test the layout at x,y")
}

// loadGraph opens the repository and lays out its history. An unavailable
// graph is an error on the command line.
func loadGraph(ctx context.Context) (domain.GraphReady, error) {
	ws, err := openWorkspace(ctx, repoDir)
	if err != nil {
		return domain.GraphReady{}, err
	}
	switch gv := ws.Graph(ctx).(type) {
	case domain.GraphReady:
		return gv, nil
	case domain.GraphUnavailable:
		return domain.GraphReady{}, fmt.Errorf("history unavailable: %s", gv.Reason)
	default:
		return domain.GraphReady{}, fmt.Errorf("history unavailable")
	}
}

// graphLines renders the rasterised lanes followed by hash and subject,
// clipped to width.
func graphLines(ready domain.GraphReady, width int) []string {
	grid := render.Rasterize(ready.Layout)
	lanes := grid.Lines()
	lines := make([]string, 0, len(lanes))
	for i, hash := range ready.Layout.Order {
		c, _ := ready.Commit(hash)
		prefix := runewidth.FillRight(lanes[i], grid.Width)
		line := fmt.Sprintf("%s  %s %s", prefix, domain.ShortHash(hash), c.Subject)
		lines = append(lines, truncate(line, width))
	}
	return lines
}

// printSelection hit-tests the layout and prints the selected commit.
func printSelection(out io.Writer, ready domain.GraphReady, point domain.Point) error {
	sel := view.Selection{X: point.X, Y: point.Y}
	hash, found := graph.HitTest(ready.Layout, point)
	if found {
		g := view.NewGraph(ready, app.config.Graph.Palette)
		if node, ok := g.FindNode(hash); ok {
			sel.Found = true
			sel.Node = &node
		}
	}

	if jsonOutput {
		return writeJSON(out, sel)
	}
	if !sel.Found {
		fmt.Fprintf(out, "No commit at %d,%d\n", point.X, point.Y)
		return nil
	}
	fmt.Fprintf(out, "%s %s\n", sel.Node.Short, sel.Node.Subject)
	return nil
}

// parsePoint reads "x,y".
func parsePoint(s string) (domain.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Point{}, fmt.Errorf("invalid point %q: want x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return domain.Point{}, fmt.Errorf("invalid x in %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return domain.Point{}, fmt.Errorf("invalid y in %q: %w", s, err)
	}
	return domain.Point{X: x, Y: y}, nil
}

// terminalWidth returns the width of stdout, or a default when it is not a
// terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || width <= 0 {
		return defaultTermWidth
	}
	return width
}

// truncate clips s to max terminal columns, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	return runewidth.Truncate(s, max, "…")
}

// writeJSON prints v indented.
func writeJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
