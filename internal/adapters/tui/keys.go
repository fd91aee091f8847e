package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/render"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.confirm != nil {
		return m.updateConfirm(msg)
	}
	if m.showDetail {
		return m.updateDetail(msg)
	}
	if m.focus == paneCommit {
		return m.updateCommitInput(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab":
		if m.focus == paneGraph {
			m.focus = paneStatus
		} else {
			m.focus = paneGraph
		}
	case "j", "down":
		m.move(1)
	case "k", "up":
		m.move(-1)
	case " ":
		return m.toggleStaged()
	case "v":
		m.toggleMark()
	case "d":
		return m.askConfirm(domain.OpDiscard, sectionUnstaged)
	case "x":
		return m.askConfirm(domain.OpClean, sectionUntracked)
	case "c":
		m.focus = paneCommit
		return m, m.commitInput.Focus()
	case "enter":
		return m.openDetail()
	case "r":
		return m.start(domain.OpStatus, refreshStatusCmd(m.ctx, m.backend, false, true))
	}
	return m, nil
}

// move steps the cursor of the focused pane.
func (m *Model) move(delta int) {
	switch m.focus {
	case paneGraph:
		if len(m.commits) == 0 {
			return
		}
		m.graphCursor = clamp(m.graphCursor+delta, 0, len(m.commits)-1)
		m.selection.Set(m.commits[m.graphCursor].Hash)
		m.scrollGraph()
	case paneStatus:
		if len(m.rows) == 0 {
			return
		}
		m.statusCursor = clamp(m.statusCursor+delta, 0, len(m.rows)-1)
	}
}

// scrollGraph keeps the graph cursor inside the visible rows.
func (m *Model) scrollGraph() {
	height, _ := m.paneHeights()
	if m.graphCursor < m.graphOffset {
		m.graphOffset = m.graphCursor
	}
	if m.graphCursor >= m.graphOffset+height {
		m.graphOffset = m.graphCursor - height + 1
	}
}

// toggleMark marks or unmarks the status row under the cursor and steps to
// the next row.
func (m *Model) toggleMark() {
	row, ok := m.selectedRow()
	if m.focus != paneStatus || !ok {
		return
	}
	k := markKey{row.section, row.entry.Path}
	marked := make(map[markKey]bool, len(m.marked)+1)
	for mk := range m.marked {
		marked[mk] = true
	}
	if marked[k] {
		delete(marked, k)
	} else {
		marked[k] = true
	}
	m.marked = marked
	m.move(1)
}

// targets returns the marked paths of sec in status order, or the path of
// cur when nothing in sec is marked.
func (m Model) targets(sec section, cur statusRow) []string {
	var paths []string
	for _, row := range m.rows {
		if row.section == sec && m.marked[markKey{sec, row.entry.Path}] {
			paths = append(paths, row.entry.Path)
		}
	}
	if len(paths) == 0 {
		paths = []string{cur.entry.Path}
	}
	return paths
}

// runPaths starts a path operation and drops the marks it consumed. A
// refused start keeps them.
func (m Model) runPaths(kind domain.OperationKind, paths []string) (tea.Model, tea.Cmd) {
	next, cmd := m.start(kind, pathOperationCmd(m.ctx, m.backend, kind, paths))
	if m.busy == "" {
		next.marked = nil
	}
	return next, cmd
}

// toggleStaged unstages the marked staged rows, or stages the marked rows of
// the cursor's section, falling back to the row under the cursor.
func (m Model) toggleStaged() (tea.Model, tea.Cmd) {
	row, ok := m.selectedRow()
	if m.focus != paneStatus || !ok {
		return m, nil
	}
	paths := m.targets(row.section, row)
	if row.section == sectionStaged {
		return m.runPaths(domain.OpUnstage, paths)
	}
	return m.runPaths(domain.OpStage, paths)
}

// askConfirm opens the yes/no picker for a destructive operation when the
// cursor is in the section the operation applies to.
func (m Model) askConfirm(kind domain.OperationKind, want section) (tea.Model, tea.Cmd) {
	row, ok := m.selectedRow()
	if m.focus != paneStatus || !ok || row.section != want {
		return m, nil
	}
	if m.busy != "" {
		m.setError(&domain.OperationInProgressError{Requested: kind, Running: m.busy})
		return m, nil
	}
	paths := m.targets(want, row)
	m.confirm = &confirmation{
		kind:   kind,
		paths:  paths,
		picker: newConfirmBar(confirmTitle(kind, paths), m.theme, true),
	}
	return m, nil
}

func confirmTitle(kind domain.OperationKind, paths []string) string {
	if len(paths) == 1 {
		if kind == domain.OpClean {
			return "Delete " + paths[0] + "?"
		}
		return "Discard changes to " + paths[0] + "?"
	}
	sample := fmt.Sprintf("(%s and %d more)", paths[0], len(paths)-1)
	if kind == domain.OpClean {
		return fmt.Sprintf("Delete %d untracked files? %s", len(paths), sample)
	}
	return fmt.Sprintf("Discard changes to %d files? %s", len(paths), sample)
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	next, _ := m.confirm.picker.Update(msg)
	picker := next.(choiceBar)

	switch {
	case picker.aborted, picker.chosen && picker.cursor != 0:
		m.confirm = nil
		m.setOutput("Cancelled")
		return m, nil
	case picker.chosen:
		c := m.confirm
		m.confirm = nil
		return m.runPaths(c.kind, c.paths)
	}

	confirm := *m.confirm
	confirm.picker = picker
	m.confirm = &confirm
	return m, nil
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		m.showDetail = false
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m Model) updateCommitInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.commitInput.Blur()
		m.focus = paneStatus
		return m, nil
	case "enter":
		return m.start(domain.OpCommit, commitCmd(m.ctx, m.backend, m.commitInput.Value()))
	}
	var cmd tea.Cmd
	m.commitInput, cmd = m.commitInput.Update(msg)
	return m, cmd
}

// openDetail shows the selected commit, or the diff of the selected file.
func (m Model) openDetail() (tea.Model, tea.Cmd) {
	switch m.focus {
	case paneGraph:
		commit, ok := m.selectedCommit()
		if !ok {
			return m, nil
		}
		return m.start(domain.OpShow, showCmd(m.ctx, m.backend, commit.Hash))
	case paneStatus:
		row, ok := m.selectedRow()
		if !ok || row.section == sectionUntracked {
			return m, nil
		}
		cached := row.section == sectionStaged
		return m.start(domain.OpDiff, diffCmd(m.ctx, m.backend, row.entry.Path, cached))
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showDetail {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	if m.confirm != nil || m.focus == paneCommit {
		return m, nil
	}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.focus = paneGraph
		m.move(-1)
	case msg.Button == tea.MouseButtonWheelDown:
		m.focus = paneGraph
		m.move(1)
	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		m.clickGraph(msg.X, msg.Y)
	}
	return m, nil
}

// clickGraph hit-tests a click on the graph pane. The terminal cell is
// mapped back onto the layout surface first.
func (m *Model) clickGraph(x, y int) {
	layout := m.layout()
	height, _ := m.paneHeights()
	col, line := x-graphLeft, y-graphTop
	if layout == nil || col < 0 || line < 0 || line >= height {
		return
	}
	m.focus = paneGraph

	point := render.CellToPoint(layout.Geometry, col, line+m.graphOffset)
	if !m.selection.Click(layout, point) {
		return
	}
	if row, ok := m.grid.Row(m.selection.Hash()); ok {
		m.graphCursor = row
	}
}

func clamp(v, low, high int) int {
	return max(low, min(v, high))
}
