package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/render"
)

// Screen geometry of the graph pane, used to map mouse clicks.
const (
	graphTop  = 2
	graphLeft = 1
)

// fixedLines counts title, blank, status header, commit, output and help.
const fixedLines = 6

// paneHeights splits the rows left over after the fixed lines between the
// graph and status panes.
func (m Model) paneHeights() (graphHeight, statusHeight int) {
	avail := max(m.height-fixedLines, 4)
	statusHeight = max(avail*2/5, 1)
	return avail - statusHeight, statusHeight
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.showDetail {
		return m.viewDetail()
	}

	graphHeight, statusHeight := m.paneHeights()

	lines := []string{m.viewTitle(), ""}
	lines = append(lines, m.viewGraph(graphHeight)...)
	lines = append(lines, m.viewStatus(statusHeight)...)
	lines = append(lines, m.viewCommit(), m.viewOutput(), m.viewHelp())
	return strings.Join(lines, "\n")
}

func (m Model) viewTitle() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	name, branch := "gitlanes", ""
	if m.info != nil {
		name = m.info.Name
		branch = m.info.Branch
	}
	title := titleStyle.Render(fmt.Sprintf("%s %s", m.theme.IconBranch, name))
	if branch != "" {
		title += helpStyle.Render(" on ") + titleStyle.Render(branch)
	}
	if m.busy != "" {
		title += "  " + m.spinner.View() + helpStyle.Render(fmt.Sprintf(" %s %s…", m.theme.IconBusy, m.busy))
	}
	return title
}

// viewGraph renders exactly height lines so that screen rows map to graph
// rows for mouse hit testing.
func (m Model) viewGraph(height int) []string {
	lines := make([]string, 0, height)

	if unavailable, ok := m.graph.(domain.GraphUnavailable); ok {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorError))
		lines = append(lines, " "+errStyle.Render("History unavailable: "+unavailable.Reason))
	} else if len(m.commits) == 0 {
		helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))
		lines = append(lines, " "+helpStyle.Render("No commits yet"))
	}

	for row := m.graphOffset; row < len(m.commits) && len(lines) < height; row++ {
		lines = append(lines, m.graphLine(row))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}

func (m Model) graphLine(row int) string {
	hashStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHash))
	authorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorAuthor))

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", graphLeft))
	for _, c := range m.grid.Cells[row] {
		if c.Blank() || c.Color == render.NoColor {
			b.WriteRune(c.Rune)
			continue
		}
		b.WriteString(m.lanes[c.Color%len(m.lanes)].Render(string(c.Rune)))
	}

	commit := m.commits[row]
	text := fmt.Sprintf("%s %s %s",
		hashStyle.Render(domain.ShortHash(commit.Hash)),
		authorStyle.Render(commit.Author),
		commit.Subject,
	)
	textWidth := max(m.width-graphLeft-m.grid.Width-2, 0)
	text = lipgloss.NewStyle().MaxWidth(textWidth).Render(text)

	if commit.Hash == m.selection.Hash() {
		marker := "▸"
		if m.focus != paneGraph {
			marker = "›"
		}
		selStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorSelected))
		return b.String() + selStyle.Render(marker) + " " + text
	}
	return b.String() + "  " + text
}

// viewStatus renders a header line plus height lines of file entries,
// scrolled so the cursor stays visible.
func (m Model) viewStatus(height int) []string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))
	selStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorSelected))
	styles := map[section]lipgloss.Style{
		sectionStaged:    lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorStaged)),
		sectionUnstaged:  lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorUnstaged)),
		sectionUntracked: lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorUntracked)),
	}

	header := fmt.Sprintf(" Staged %d · Unstaged %d · Untracked %d",
		len(m.status.Staged), len(m.status.Unstaged), len(m.status.Untracked))
	lines := []string{headerStyle.Render(header)}

	if len(m.rows) == 0 {
		lines = append(lines, " "+helpStyle.Render("Working tree clean"))
	}

	offset := 0
	if m.statusCursor >= height {
		offset = m.statusCursor - height + 1
	}
	for i := offset; i < len(m.rows) && len(lines) <= height; i++ {
		row := m.rows[i]
		path := row.entry.Path
		if row.entry.OrigPath != "" {
			path = row.entry.OrigPath + " -> " + path
		}
		line := fmt.Sprintf("%s %s", row.entry.Code, path)

		cursor := "  "
		if i == m.statusCursor && m.focus == paneStatus {
			cursor = selStyle.Render("▸ ")
		}
		mark := "  "
		if m.marked[markKey{row.section, row.entry.Path}] {
			mark = selStyle.Render("• ")
		}
		lines = append(lines, " "+cursor+mark+styles[row.section].Render(line))
	}
	for len(lines) <= height {
		lines = append(lines, "")
	}
	return lines
}

func (m Model) viewCommit() string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))
	if m.focus == paneCommit {
		labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle))
	}
	return " " + labelStyle.Render("Commit: ") + m.commitInput.View()
}

func (m Model) viewOutput() string {
	if m.output == "" {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorStaged))
	if m.outputErr {
		style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorError))
	}
	return " " + style.MaxWidth(max(m.width-1, 0)).Render(m.output)
}

func (m Model) viewHelp() string {
	if m.confirm != nil {
		return m.confirm.picker.viewLine()
	}

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))
	var help string
	switch m.focus {
	case paneGraph:
		help = "j/k move · enter show · tab status · c commit · r refresh · q quit"
	case paneStatus:
		help = "j/k move · v mark · space stage/unstage · d discard · x clean · enter diff · tab graph · c commit · q quit"
	case paneCommit:
		help = "enter commit · esc cancel"
	}
	return " " + helpStyle.Render(help)
}

func (m Model) viewDetail() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	return strings.Join([]string{
		titleStyle.Render(" " + m.detailTitle),
		m.detail.View(),
		helpStyle.Render(" ↑/↓ scroll · esc close"),
	}, "\n")
}
