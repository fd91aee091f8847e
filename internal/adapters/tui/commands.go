package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xvierd/gitlanes/internal/adapters/watcher"
	"github.com/xvierd/gitlanes/internal/domain"
)

// statusMsg carries a finished status refresh.
type statusMsg struct {
	report      *domain.StatusReport
	followUp    domain.FollowUp
	thenHistory bool
	err         error
}

// historyMsg carries a finished history refresh.
type historyMsg struct {
	view domain.GraphView
	err  error
}

// operationMsg carries a finished stage, unstage, discard, clean or commit.
type operationMsg struct {
	kind     domain.OperationKind
	summary  string
	followUp domain.FollowUp
	err      error
}

// detailMsg carries commit details or a diff for the detail view.
type detailMsg struct {
	title string
	text  string
	err   error
}

// changeMsg reports that the repository changed on disk.
type changeMsg watcher.Change

func refreshStatusCmd(ctx context.Context, b Backend, initialLoad, thenHistory bool) tea.Cmd {
	return func() tea.Msg {
		report, followUp, err := b.RefreshStatus(ctx, initialLoad)
		return statusMsg{report: report, followUp: followUp, thenHistory: thenHistory, err: err}
	}
}

func refreshHistoryCmd(ctx context.Context, b Backend) tea.Cmd {
	return func() tea.Msg {
		view, err := b.RefreshHistory(ctx)
		return historyMsg{view: view, err: err}
	}
}

func pathOperationCmd(ctx context.Context, b Backend, kind domain.OperationKind, paths []string) tea.Cmd {
	var fn func(context.Context, []string) (domain.FollowUp, error)
	switch kind {
	case domain.OpStage:
		fn = b.Stage
	case domain.OpUnstage:
		fn = b.Unstage
	case domain.OpDiscard:
		fn = b.Discard
	case domain.OpClean:
		fn = b.Clean
	default:
		return nil
	}
	return func() tea.Msg {
		followUp, err := fn(ctx, paths)
		return operationMsg{kind: kind, summary: pathSummary(kind, paths), followUp: followUp, err: err}
	}
}

func commitCmd(ctx context.Context, b Backend, message string) tea.Cmd {
	return func() tea.Msg {
		out, followUp, err := b.Commit(ctx, message)
		return operationMsg{kind: domain.OpCommit, summary: firstLine(out), followUp: followUp, err: err}
	}
}

func showCmd(ctx context.Context, b Backend, hash string) tea.Cmd {
	return func() tea.Msg {
		out, err := b.Show(ctx, hash)
		return detailMsg{title: "commit " + domain.ShortHash(hash), text: out, err: err}
	}
}

func diffCmd(ctx context.Context, b Backend, path string, cached bool) tea.Cmd {
	return func() tea.Msg {
		out, err := b.Diff(ctx, path, cached)
		title := "diff " + path
		if cached {
			title += " (staged)"
		}
		if strings.TrimSpace(out) == "" {
			out = "no changes"
		}
		return detailMsg{title: title, text: out, err: err}
	}
}

// waitForChange blocks on the watcher. A nil or closed channel stops
// listening.
func waitForChange(changes <-chan watcher.Change) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		change, ok := <-changes
		if !ok {
			return nil
		}
		return changeMsg(change)
	}
}

func pathSummary(kind domain.OperationKind, paths []string) string {
	past := map[domain.OperationKind]string{
		domain.OpStage:   "Staged",
		domain.OpUnstage: "Unstaged",
		domain.OpDiscard: "Discarded",
		domain.OpClean:   "Removed",
	}[kind]
	if len(paths) == 1 {
		return fmt.Sprintf("%s %s", past, paths[0])
	}
	return fmt.Sprintf("%s %d files", past, len(paths))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
