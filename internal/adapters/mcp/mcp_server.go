// Package mcp provides the MCP (Model Context Protocol) server implementation.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/graph"
	"github.com/xvierd/gitlanes/internal/ports"
	"github.com/xvierd/gitlanes/internal/view"
)

// Server implements the MCP server using mark3labs/mcp-go.
type Server struct {
	server  *server.MCPServer
	repo    ports.RepositoryView
	actions ports.RepositoryActions
	palette view.Palette
	version string
	logger  zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithActions registers the write tools (stage_files, commit).
func WithActions(actions ports.RepositoryActions) Option {
	return func(s *Server) { s.actions = actions }
}

// WithPalette sets the colors reported for lanes.
func WithPalette(palette []string) Option {
	return func(s *Server) { s.palette = palette }
}

// WithVersion sets the version reported to clients.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new MCP server instance.
func NewServer(repo ports.RepositoryView, opts ...Option) *Server {
	s := &Server{
		repo:    repo,
		version: "dev",
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = server.NewMCPServer(
		"gitlanes",
		s.version,
		server.WithLogging(),
	)

	s.registerTools()

	return s
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"get_commit_graph",
			mcp.WithDescription("Get the commit graph of the repository: positioned nodes in row order, parent edges with lane colors, and the drawing bounds"),
		),
		s.handleGetCommitGraph,
	)

	s.server.AddTool(
		mcp.NewTool(
			"get_status",
			mcp.WithDescription("Get the working tree status split into staged, unstaged and untracked files"),
		),
		s.handleGetStatus,
	)

	selectTool := mcp.NewTool(
		"select_commit",
		mcp.WithDescription("Find the commit whose graph node is at a position on the drawing surface"),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Horizontal position")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Vertical position")),
	)
	s.server.AddTool(selectTool, s.handleSelectCommit)

	showTool := mcp.NewTool(
		"show_commit",
		mcp.WithDescription("Show the details and changed files of a commit"),
		mcp.WithString("hash", mcp.Required(), mcp.Description("Full or abbreviated commit hash")),
	)
	s.server.AddTool(showTool, s.handleShowCommit)

	s.server.AddTool(
		mcp.NewTool(
			"list_branches",
			mcp.WithDescription("List local branches, the commit each points at, and which one is checked out"),
		),
		s.handleListBranches,
	)

	if s.actions == nil {
		return
	}

	stageTool := mcp.NewTool(
		"stage_files",
		mcp.WithDescription("Stage files for the next commit"),
		mcp.WithString("paths", mcp.Required(), mcp.Description("Comma-separated file paths relative to the repository root")),
	)
	s.server.AddTool(stageTool, s.handleStageFiles)

	commitTool := mcp.NewTool(
		"commit",
		mcp.WithDescription("Commit the staged files"),
		mcp.WithString("message", mcp.Required(), mcp.Description("The commit message")),
	)
	s.server.AddTool(commitTool, s.handleCommit)
}

// Start begins serving MCP requests via stdio.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.logger.Info().Bool("write", s.actions != nil).Msg("mcp server starting")

	return server.ServeStdio(s.server)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// IsRunning returns true if the server is active.
func (s *Server) IsRunning() bool {
	if s.ctx == nil {
		return false
	}
	return s.ctx.Err() == nil
}

// Ensure Server implements ports.MCPHandler.
var _ ports.MCPHandler = (*Server)(nil)

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// handleGetCommitGraph handles the get_commit_graph tool.
func (s *Server) handleGetCommitGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(view.NewGraph(s.repo.Graph(ctx), s.palette))
}

// handleGetStatus handles the get_status tool.
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.repo.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read status: %v", err)), nil
	}
	return jsonResult(view.NewStatus(status))
}

// handleSelectCommit handles the select_commit tool.
func (s *Server) handleSelectCommit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	x, err := request.RequireFloat("x")
	if err != nil {
		return mcp.NewToolResultError("x is required: " + err.Error()), nil
	}
	y, err := request.RequireFloat("y")
	if err != nil {
		return mcp.NewToolResultError("y is required: " + err.Error()), nil
	}

	ready, ok := s.repo.Graph(ctx).(domain.GraphReady)
	if !ok {
		return mcp.NewToolResultError("commit graph is unavailable"), nil
	}

	point := domain.Point{X: int(x), Y: int(y)}
	sel := view.Selection{X: point.X, Y: point.Y}
	if hash, hit := graph.HitTest(ready.Layout, point); hit {
		if n, found := view.NewGraph(ready, s.palette).FindNode(hash); found {
			sel.Found = true
			sel.Node = &n
		}
	}
	return jsonResult(sel)
}

// handleShowCommit handles the show_commit tool.
func (s *Server) handleShowCommit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hash, err := request.RequireString("hash")
	if err != nil {
		return mcp.NewToolResultError("hash is required: " + err.Error()), nil
	}

	out, err := s.repo.Show(ctx, strings.TrimSpace(hash))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to show commit: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

// handleListBranches handles the list_branches tool.
func (s *Server) handleListBranches(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.repo.Repository(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read branches: %v", err)), nil
	}

	repo := view.NewRepository(info)
	result := map[string]interface{}{
		"current":     repo.Branch,
		"detached":    repo.Detached,
		"branches":    repo.Branches,
		"total_count": len(repo.Branches),
	}
	return jsonResult(result)
}

// handleStageFiles handles the stage_files tool.
func (s *Server) handleStageFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawPaths, err := request.RequireString("paths")
	if err != nil {
		return mcp.NewToolResultError("paths is required: " + err.Error()), nil
	}

	var paths []string
	for _, p := range strings.Split(rawPaths, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return mcp.NewToolResultError("no paths given"), nil
	}

	if _, err := s.actions.Stage(ctx, paths); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to stage files: %v", err)), nil
	}

	result := map[string]interface{}{
		"staged": paths,
	}
	if status, err := s.repo.Status(ctx); err == nil {
		result["status"] = view.NewStatus(status)
	}
	return jsonResult(result)
}

// handleCommit handles the commit tool.
func (s *Server) handleCommit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message is required: " + err.Error()), nil
	}

	out, _, err := s.actions.Commit(ctx, message)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to commit: %v", err)), nil
	}

	result := map[string]interface{}{
		"output": out,
	}
	if info, err := s.repo.Repository(ctx); err == nil {
		result["head"] = info.Head
		result["branch"] = info.Branch
	}
	return jsonResult(result)
}
