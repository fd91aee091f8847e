package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xvierd/gitlanes/internal/adapters/git"
	"github.com/xvierd/gitlanes/internal/adapters/notification"
	"github.com/xvierd/gitlanes/internal/adapters/storage"
	"github.com/xvierd/gitlanes/internal/adapters/watcher"
	"github.com/xvierd/gitlanes/internal/config"
	"github.com/xvierd/gitlanes/internal/graph"
	"github.com/xvierd/gitlanes/internal/logging"
	"github.com/xvierd/gitlanes/internal/ports"
	"github.com/xvierd/gitlanes/internal/services"
)

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	config    *config.Config
	logger    zerolog.Logger
	logCloser io.Closer
	storage   ports.Storage
	detector  ports.RepositoryDetector
	repos     *services.RepositoryService
	notifier  *notification.Notifier
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app appDeps

// consoleQuiet lists the commands whose stderr belongs to a full-screen UI.
var consoleQuiet = map[string]bool{
	"gitlanes": true,
	"open":     true,
}

// initializeServices sets up all the required services and adapters.
func initializeServices(cmd *cobra.Command) error {
	// Load configuration
	var err error
	app.config, err = config.Load()
	if err != nil {
		// If config loading fails, use defaults
		app.config = config.DefaultConfig()
	}

	logOpts := logging.Options{
		Verbose:   verbose,
		Quiet:     quiet,
		Level:     app.config.Log.Level,
		NoConsole: consoleQuiet[cmd.Name()],
	}
	if app.config.Log.File {
		logOpts.FilePath = config.GetLogPath(app.config)
	}
	app.logger, app.logCloser = logging.New(logOpts)
	if err != nil {
		app.logger.Warn().Err(err).Msg("using default configuration")
	}

	// Initialize notifier
	app.notifier = notification.New(&app.config.Notifications)

	// Determine database path
	path := dbPath
	if path == "" {
		path = config.GetDBPath(app.config)
	}

	// Ensure directory exists
	if err := os.MkdirAll(getDir(path), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	// Initialize storage
	app.storage, err = storage.New(path)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	app.detector = git.NewDetector()
	app.repos = services.NewRepositoryService(app.detector, app.storage.Repositories(), app.logger)

	return nil
}

// cleanupServices closes all resources.
func cleanupServices() error {
	var err error
	if app.storage != nil {
		err = app.storage.Close()
		app.storage = nil
	}
	if app.logCloser != nil {
		_ = app.logCloser.Close()
		app.logCloser = nil
	}
	return err
}

// openWorkspace opens the repository containing dir (the current directory
// when empty) and wires the git services for it.
func openWorkspace(ctx context.Context, dir string) (*services.Workspace, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}

	info, err := app.repos.Open(ctx, dir)
	if err != nil {
		return nil, err
	}

	client := git.NewClient(info.Root,
		git.WithBinary(app.config.Git.Binary),
		git.WithLogger(app.logger),
	)
	engine := graph.NewEngine(app.config.Geometry(), graph.WithLogger(app.logger))
	history := services.NewHistoryService(engine, effectiveMaxCount(), app.logger)
	gitSvc := services.NewGitService(client,
		services.WithJournal(app.storage.Operations()),
		services.WithNotifier(app.notifier),
		services.WithLogger(app.logger),
	)

	return &services.Workspace{
		Info:    info,
		Git:     gitSvc,
		History: history,
		Repos:   app.repos,
	}, nil
}

// effectiveMaxCount resolves --max-count > config > default.
func effectiveMaxCount() int {
	if maxCount > 0 {
		return maxCount
	}
	if app.config != nil && app.config.Git.MaxCount > 0 {
		return app.config.Git.MaxCount
	}
	return services.DefaultMaxCount
}

// startWatcher watches the repository when enabled in the config. A nil
// channel means no watcher runs.
func startWatcher(ctx context.Context, root string) (<-chan watcher.Change, error) {
	if !app.config.Watch.Enabled {
		return nil, nil
	}
	w := watcher.New(root, git.GitDir(root), time.Duration(app.config.Watch.Debounce), app.logger)
	return w.Start(ctx)
}

// setupSignalHandler returns a context that is cancelled on interrupt signals.
func setupSignalHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// getDir returns the directory part of a path.
func getDir(path string) string {
	return filepath.Dir(filepath.Clean(path))
}
