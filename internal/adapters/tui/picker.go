package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/xvierd/gitlanes/internal/config"
)

// PickerItem is one entry offered by a picker.
type PickerItem struct {
	Label string
	Desc  string
}

// PickerResult holds the outcome of a picker interaction. Index refers to
// the items passed in, not to their filtered order.
type PickerResult struct {
	Index   int
	Aborted bool
}

var yesNoItems = []PickerItem{{Label: "Yes"}, {Label: "No"}}

type pickerStyles struct {
	title  lipgloss.Style
	warn   lipgloss.Style
	active lipgloss.Style
	dim    lipgloss.Style
}

func newPickerStyles(theme config.ThemeConfig) pickerStyles {
	return pickerStyles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.ColorTitle)),
		warn:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.ColorError)),
		active: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.ColorSelected)),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ColorHelp)),
	}
}

// choices is the cursor state shared by the pickers.
type choices struct {
	items   []PickerItem
	cursor  int
	chosen  bool
	aborted bool
}

func (c *choices) move(delta int) {
	if len(c.items) == 0 {
		return
	}
	c.cursor = min(max(c.cursor+delta, 0), len(c.items)-1)
}

// pick selects item i and reports whether it exists.
func (c *choices) pick(i int) bool {
	if i < 0 || i >= len(c.items) {
		return false
	}
	c.cursor = i
	c.chosen = true
	return true
}

func (c choices) yesNo() bool {
	return len(c.items) == 2 && c.items[0].Label == "Yes" && c.items[1].Label == "No"
}

// choiceBar is a one-line picker. The main model embeds it for destructive
// confirmations; Confirm runs it as its own program.
type choiceBar struct {
	choices
	title string
	theme config.ThemeConfig

	// embedded bars report their decision without quitting the program
	embedded bool
}

func newConfirmBar(title string, theme config.ThemeConfig, embedded bool) choiceBar {
	return choiceBar{
		choices:  choices{items: yesNoItems, cursor: 1},
		title:    title,
		theme:    theme,
		embedded: embedded,
	}
}

func (m choiceBar) decided() tea.Cmd {
	if m.embedded {
		return nil
	}
	return tea.Quit
}

func (m choiceBar) Init() tea.Cmd { return nil }

func (m choiceBar) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch s := km.String(); s {
	case "left", "h", "shift+tab":
		m.move(-1)
	case "right", "l", "tab":
		m.move(1)
	case "enter":
		m.chosen = len(m.items) > 0
		return m, m.decided()
	case "esc", "ctrl+c", "q":
		m.aborted = true
		return m, m.decided()
	case "y", "n":
		if !m.yesNo() {
			break
		}
		idx := 0
		if s == "n" {
			idx = 1
		}
		m.pick(idx)
		return m, m.decided()
	default:
		if len(s) == 1 && s[0] >= '1' && s[0] <= '9' && m.pick(int(s[0]-'1')) {
			return m, m.decided()
		}
	}
	return m, nil
}

func (m choiceBar) View() string {
	st := newPickerStyles(m.theme)
	return "\n" + m.viewLine() + "\n" + st.dim.Render("  ←/→ move · y/n answer · esc cancel") + "\n"
}

// viewLine renders the bar without a trailing newline so it can replace the
// footer of the main view.
func (m choiceBar) viewLine() string {
	st := newPickerStyles(m.theme)
	parts := []string{" " + st.warn.Render(m.title)}
	for i, item := range m.items {
		if i == m.cursor {
			parts = append(parts, st.active.Render("▸ "+item.Label))
		} else {
			parts = append(parts, st.dim.Render("  "+item.Label))
		}
	}
	return strings.Join(parts, "  ")
}

// Confirm asks a yes/no question. Anything but an explicit yes is a no.
func Confirm(title string, theme *config.ThemeConfig) bool {
	final, err := tea.NewProgram(newConfirmBar(title, resolveTheme(theme), false)).Run()
	if err != nil {
		return false
	}
	bar := final.(choiceBar)
	return bar.chosen && !bar.aborted && bar.cursor == 0
}

type pickerSource []PickerItem

func (s pickerSource) String(i int) string { return s[i].Label + " " + s[i].Desc }
func (s pickerSource) Len() int            { return len(s) }

// listPicker is a vertical picker narrowed by fuzzy matching as the user
// types.
type listPicker struct {
	choices
	all    []PickerItem
	origin []int
	query  string
	title  string
	footer string
	theme  config.ThemeConfig
}

func newListPicker(title string, items []PickerItem, footer string, theme config.ThemeConfig) listPicker {
	m := listPicker{all: items, title: title, footer: footer, theme: theme}
	m.filter()
	return m
}

// filter rebuilds the visible items from the query, best match first.
func (m *listPicker) filter() {
	m.items = m.items[:0:0]
	m.origin = m.origin[:0:0]
	if m.query == "" {
		m.items = append(m.items, m.all...)
		for i := range m.all {
			m.origin = append(m.origin, i)
		}
	} else {
		for _, match := range fuzzy.FindFrom(m.query, pickerSource(m.all)) {
			m.items = append(m.items, m.all[match.Index])
			m.origin = append(m.origin, match.Index)
		}
	}
	m.cursor = 0
}

func (m listPicker) Init() tea.Cmd { return nil }

func (m listPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch km.Type {
	case tea.KeyUp, tea.KeyCtrlP:
		m.move(-1)
	case tea.KeyDown, tea.KeyCtrlN:
		m.move(1)
	case tea.KeyEnter:
		if m.pick(m.cursor) {
			return m, tea.Quit
		}
	case tea.KeyEsc, tea.KeyCtrlC:
		m.aborted = true
		return m, tea.Quit
	case tea.KeyBackspace:
		if r := []rune(m.query); len(r) > 0 {
			m.query = string(r[:len(r)-1])
			m.filter()
		}
	case tea.KeySpace:
		m.query += " "
		m.filter()
	case tea.KeyRunes:
		m.query += string(km.Runes)
		m.filter()
	}
	return m, nil
}

func (m listPicker) View() string {
	st := newPickerStyles(m.theme)
	var b strings.Builder

	fmt.Fprintf(&b, "\n  %s", st.title.Render(m.title))
	if m.query != "" {
		fmt.Fprintf(&b, "  %s", st.active.Render("/"+m.query))
	}
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(st.dim.Render("    no matches") + "\n")
	}
	for i, item := range m.items {
		line := fmt.Sprintf("%-20s %s", item.Label, item.Desc)
		if i == m.cursor {
			b.WriteString("  " + st.active.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("    " + st.dim.Render(line) + "\n")
		}
	}

	if m.footer != "" {
		b.WriteString("\n  " + st.dim.Render(m.footer) + "\n")
	}
	b.WriteString("\n  " + st.dim.Render("type to filter · ↑/↓ move · enter open · esc cancel") + "\n")
	return b.String()
}

// result maps the chosen row back to the caller's index.
func (m listPicker) result() PickerResult {
	if m.aborted || !m.chosen {
		return PickerResult{Aborted: true}
	}
	return PickerResult{Index: m.origin[m.cursor]}
}

// RunPicker shows items in a filterable list and returns the chosen index.
func RunPicker(title string, items []PickerItem, footer string, theme *config.ThemeConfig) PickerResult {
	final, err := tea.NewProgram(newListPicker(title, items, footer, resolveTheme(theme))).Run()
	if err != nil {
		return PickerResult{Aborted: true}
	}
	return final.(listPicker).result()
}

// TextPromptResult holds the outcome of a text prompt.
type TextPromptResult struct {
	Value   string
	Aborted bool
}

// messagePrompt reads one non-blank line.
type messagePrompt struct {
	title   string
	input   textinput.Model
	hint    string
	aborted bool
	theme   config.ThemeConfig
}

func newMessagePrompt(title, placeholder string, theme config.ThemeConfig) messagePrompt {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	ti.Width = 60
	ti.Focus()
	return messagePrompt{title: title, input: ti, theme: theme}
}

func (m messagePrompt) Init() tea.Cmd { return textinput.Blink }

func (m messagePrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.Type {
		case tea.KeyEnter:
			if strings.TrimSpace(m.input.Value()) == "" {
				m.hint = "the message cannot be empty"
				return m, nil
			}
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.aborted = true
			return m, tea.Quit
		}
	}
	m.hint = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m messagePrompt) View() string {
	st := newPickerStyles(m.theme)
	help := st.dim.Render("enter confirm · esc cancel")
	if m.hint != "" {
		help = st.warn.Render(m.hint)
	}
	return fmt.Sprintf("\n  %s %s\n\n  %s\n", st.title.Render(m.title), m.input.View(), help)
}

// RunTextPrompt asks for a single line of text, such as a commit message.
func RunTextPrompt(title string, placeholder string, theme *config.ThemeConfig) TextPromptResult {
	final, err := tea.NewProgram(newMessagePrompt(title, placeholder, resolveTheme(theme))).Run()
	if err != nil {
		return TextPromptResult{Aborted: true}
	}
	p := final.(messagePrompt)
	if p.aborted {
		return TextPromptResult{Aborted: true}
	}
	return TextPromptResult{Value: strings.TrimSpace(p.input.Value())}
}
