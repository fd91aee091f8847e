// Package logging builds the zerolog logger shared by every gitlanes
// component: a console writer on a terminal, JSON otherwise, and a rotating
// log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logMaxSizeMB   = 10
	logMaxBackups  = 3
	logMaxAgeDays  = 28
	logCompress    = true
	logDirPerm     = 0o750
	consoleTimeFmt = time.Kitchen
)

// Options selects where and how much to log.
type Options struct {
	Verbose bool
	Quiet   bool
	// Level is the configured level name, used when neither flag is set.
	Level string
	// FilePath enables the rotating log file when non-empty.
	FilePath string
	// NoConsole keeps the log off stderr, e.g. while a full-screen UI runs.
	NoConsole bool
}

var globalMu sync.Mutex

// New creates the application logger. The returned closer releases the log
// file; it is never nil. A log file that cannot be opened is reported once
// on the console and otherwise ignored.
func New(opts Options) (zerolog.Logger, io.Closer) {
	level := SelectLevel(opts.Verbose, opts.Quiet, opts.Level)

	var writers []io.Writer
	if !opts.NoConsole {
		writers = append(writers, selectOutput())
	}

	var closer io.Closer = nopCloser{}
	var fileErr error
	if opts.FilePath != "" {
		fw, err := newFileWriter(opts.FilePath)
		if err != nil {
			fileErr = err
		} else {
			writers = append(writers, fw)
			closer = fw
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	if fileErr != nil {
		logger.Warn().Err(fileErr).Msg("log file disabled")
	}

	setGlobalLogger(logger)
	return logger, closer
}

// NewWithWriter creates a logger writing JSON to w. It is meant for tests.
func NewWithWriter(verbose, quiet bool, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(SelectLevel(verbose, quiet, "")).With().Timestamp().Logger()
}

// SelectLevel determines the log level: --verbose wins, then --quiet, then
// the configured level name, then info.
func SelectLevel(verbose, quiet bool, configured string) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	}
	if configured != "" {
		if level, err := zerolog.ParseLevel(configured); err == nil && level != zerolog.NoLevel {
			return level
		}
	}
	return zerolog.InfoLevel
}

// selectOutput uses the console writer for a TTY without NO_COLOR and JSON
// otherwise.
func selectOutput() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: consoleTimeFmt,
		}
	}
	return os.Stderr
}

func newFileWriter(path string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), logDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
		Compress:   logCompress,
	}, nil
}

// setGlobalLogger makes the zerolog/log package helpers match the
// application logger.
func setGlobalLogger(logger zerolog.Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	log.Logger = logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
