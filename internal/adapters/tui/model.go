// Package tui provides the terminal user interface implementation
// using the Bubbletea framework.
package tui

import (
	"context"
	"reflect"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xvierd/gitlanes/internal/adapters/watcher"
	"github.com/xvierd/gitlanes/internal/config"
	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/graph"
	"github.com/xvierd/gitlanes/internal/render"
)

// resolveTheme fills any empty string fields in the given ThemeConfig with defaults.
// If theme is nil, returns the full default theme.
func resolveTheme(theme *config.ThemeConfig) config.ThemeConfig {
	defaults := config.DefaultThemeConfig()
	if theme == nil {
		return defaults
	}
	resolved := *theme
	rv := reflect.ValueOf(&resolved).Elem()
	dv := reflect.ValueOf(defaults)
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.String && f.String() == "" {
			f.SetString(dv.Field(i).String())
		}
	}
	return resolved
}

// Backend is the repository the TUI works on. Every call goes through the
// single in-flight operation slot.
type Backend interface {
	RefreshStatus(ctx context.Context, initialLoad bool) (*domain.StatusReport, domain.FollowUp, error)
	RefreshHistory(ctx context.Context) (domain.GraphView, error)
	Stage(ctx context.Context, paths []string) (domain.FollowUp, error)
	Unstage(ctx context.Context, paths []string) (domain.FollowUp, error)
	Discard(ctx context.Context, paths []string) (domain.FollowUp, error)
	Clean(ctx context.Context, paths []string) (domain.FollowUp, error)
	Commit(ctx context.Context, message string) (string, domain.FollowUp, error)
	Show(ctx context.Context, hash string) (string, error)
	Diff(ctx context.Context, path string, cached bool) (string, error)
}

// Options configures a Model.
type Options struct {
	Info    *domain.RepositoryInfo
	Theme   *config.ThemeConfig
	Palette []string
	Changes <-chan watcher.Change
}

type pane int

const (
	paneGraph pane = iota
	paneStatus
	paneCommit
)

type section int

const (
	sectionStaged section = iota
	sectionUnstaged
	sectionUntracked
)

// statusRow is one selectable line of the status pane.
type statusRow struct {
	section section
	entry   domain.FileEntry
}

// markKey identifies a marked status row.
type markKey struct {
	section section
	path    string
}

// confirmation is a pending destructive operation.
type confirmation struct {
	kind   domain.OperationKind
	paths  []string
	picker choiceBar
}

// Model represents the TUI state.
type Model struct {
	ctx     context.Context
	backend Backend
	info    *domain.RepositoryInfo
	theme   config.ThemeConfig
	changes <-chan watcher.Change
	lanes   []lipgloss.Style

	width  int
	height int
	focus  pane

	graph       domain.GraphView
	grid        *render.Grid
	commits     []domain.CommitRecord
	selection   graph.Selection
	graphCursor int
	graphOffset int

	status       *domain.StatusReport
	rows         []statusRow
	statusCursor int
	// marked is replaced, never written in place, so model copies keep
	// their own marks
	marked map[markKey]bool

	commitInput textinput.Model
	spinner     spinner.Model
	detail      viewport.Model
	detailTitle string
	showDetail  bool

	// busy is the running operation, "" when idle
	busy    domain.OperationKind
	stale   bool
	confirm *confirmation

	output    string
	outputErr bool
}

// NewModel creates a new TUI model.
func NewModel(ctx context.Context, backend Backend, opts Options) Model {
	theme := resolveTheme(opts.Theme)

	palette := opts.Palette
	if len(palette) == 0 {
		palette = config.DefaultPalette()
	}
	lanes := make([]lipgloss.Style, len(palette))
	for i, c := range palette {
		lanes[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}

	ti := textinput.New()
	ti.Placeholder = "commit message"
	ti.CharLimit = 200
	ti.Prompt = ""

	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))

	return Model{
		ctx:         ctx,
		backend:     backend,
		info:        opts.Info,
		theme:       theme,
		changes:     opts.Changes,
		lanes:       lanes,
		graph:       domain.GraphUnavailable{Reason: "loading history"},
		grid:        render.Rasterize(nil),
		status:      &domain.StatusReport{},
		commitInput: ti,
		spinner:     sp,
		detail:      viewport.New(0, 0),
	}
}

// Init loads the status, which chains the history, and starts listening for
// repository changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return startMsg{} },
		waitForChange(m.changes),
	)
}

// startMsg kicks off the initial load from inside Update so the busy slot is
// set on the model that tea keeps.
type startMsg struct{}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = msg.Width
		m.detail.Height = max(msg.Height-3, 1)
		m.commitInput.Width = max(msg.Width-12, 10)
		m.scrollGraph()
		return m, nil

	case startMsg:
		return m.start(domain.OpStatus, refreshStatusCmd(m.ctx, m.backend, true, false))

	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusMsg:
		return m.handleStatus(msg)

	case historyMsg:
		return m.handleHistory(msg)

	case operationMsg:
		return m.handleOperation(msg)

	case detailMsg:
		return m.handleDetail(msg)

	case changeMsg:
		cmds := []tea.Cmd{waitForChange(m.changes)}
		if m.busy != "" {
			m.stale = true
			return m, tea.Batch(cmds...)
		}
		next, cmd := m.start(domain.OpStatus, refreshStatusCmd(m.ctx, m.backend, false, true))
		return next, tea.Batch(append(cmds, cmd)...)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// start runs cmd as operation kind unless another operation is running.
func (m Model) start(kind domain.OperationKind, cmd tea.Cmd) (Model, tea.Cmd) {
	if m.busy != "" {
		m.setError(&domain.OperationInProgressError{Requested: kind, Running: m.busy})
		return m, nil
	}
	m.busy = kind
	return m, tea.Batch(cmd, m.spinner.Tick)
}

// finish clears the busy slot and runs a refresh deferred by a watcher
// change, if any.
func (m Model) finish(next tea.Cmd, nextKind domain.OperationKind) (Model, tea.Cmd) {
	m.busy = ""
	if next != nil {
		return m.start(nextKind, next)
	}
	if m.stale {
		m.stale = false
		return m.start(domain.OpStatus, refreshStatusCmd(m.ctx, m.backend, false, true))
	}
	return m, nil
}

// followUp turns an operation's follow-up into the next command. A status
// refresh that must be followed by history carries that along.
func (m Model) followUp(f domain.FollowUp) (Model, tea.Cmd) {
	switch {
	case f.RefreshStatus:
		return m.finish(refreshStatusCmd(m.ctx, m.backend, false, f.RefreshHistory), domain.OpStatus)
	case f.RefreshHistory:
		return m.finish(refreshHistoryCmd(m.ctx, m.backend), domain.OpHistory)
	}
	return m.finish(nil, "")
}

func (m Model) handleStatus(msg statusMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError(msg.err)
		return m.finish(nil, "")
	}
	m.setStatus(msg.report)
	f := msg.followUp
	f.RefreshStatus = false
	f.RefreshHistory = f.RefreshHistory || msg.thenHistory
	return m.followUp(f)
}

func (m Model) handleHistory(msg historyMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError(msg.err)
		return m.finish(nil, "")
	}
	m.setGraph(msg.view)
	return m.finish(nil, "")
}

func (m Model) handleOperation(msg operationMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError(msg.err)
		return m.finish(nil, "")
	}
	m.setOutput(msg.summary)
	if msg.kind == domain.OpCommit {
		m.commitInput.Reset()
		m.commitInput.Blur()
		m.focus = paneStatus
	}
	return m.followUp(msg.followUp)
}

func (m Model) handleDetail(msg detailMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError(msg.err)
		return m.finish(nil, "")
	}
	m.detailTitle = msg.title
	m.detail.SetContent(msg.text)
	m.detail.GotoTop()
	m.showDetail = true
	return m.finish(nil, "")
}

// setGraph installs a freshly laid-out batch. The selection never survives a
// new batch.
func (m *Model) setGraph(gv domain.GraphView) {
	m.graph = gv
	m.selection.Reset()
	m.graphCursor = 0
	m.graphOffset = 0
	m.commits = nil
	if ready, ok := gv.(domain.GraphReady); ok {
		m.grid = render.Rasterize(ready.Layout)
		m.commits = ready.Rows()
		if len(ready.Layout.Order) > 0 {
			m.selection.Set(ready.Layout.Order[0])
		}
		return
	}
	m.grid = render.Rasterize(nil)
}

func (m *Model) setStatus(report *domain.StatusReport) {
	if report == nil {
		report = &domain.StatusReport{}
	}
	m.status = report
	m.rows = make([]statusRow, 0, len(report.Staged)+len(report.Unstaged)+len(report.Untracked))
	marked := make(map[markKey]bool, len(m.marked))
	add := func(sec section, entries []domain.FileEntry) {
		for _, e := range entries {
			m.rows = append(m.rows, statusRow{section: sec, entry: e})
			if k := (markKey{sec, e.Path}); m.marked[k] {
				marked[k] = true
			}
		}
	}
	add(sectionStaged, report.Staged)
	add(sectionUnstaged, report.Unstaged)
	add(sectionUntracked, report.Untracked)
	m.marked = marked
	if m.statusCursor >= len(m.rows) {
		m.statusCursor = max(len(m.rows)-1, 0)
	}
}

func (m *Model) setError(err error) {
	m.output = err.Error()
	m.outputErr = true
}

func (m *Model) setOutput(text string) {
	m.output = text
	m.outputErr = false
}

// layout returns the current layout, or nil when no graph is shown.
func (m Model) layout() *domain.Layout {
	if ready, ok := m.graph.(domain.GraphReady); ok {
		return ready.Layout
	}
	return nil
}

// selectedCommit returns the record at the graph cursor.
func (m Model) selectedCommit() (domain.CommitRecord, bool) {
	ready, ok := m.graph.(domain.GraphReady)
	if !ok {
		return domain.CommitRecord{}, false
	}
	return ready.Commit(m.selection.Hash())
}

// selectedRow returns the status entry under the cursor.
func (m Model) selectedRow() (statusRow, bool) {
	if m.statusCursor < 0 || m.statusCursor >= len(m.rows) {
		return statusRow{}, false
	}
	return m.rows[m.statusCursor], true
}

// Busy returns the running operation, or "" when idle.
func (m Model) Busy() domain.OperationKind {
	return m.busy
}

// Selected returns the selected commit hash.
func (m Model) Selected() string {
	return m.selection.Hash()
}
