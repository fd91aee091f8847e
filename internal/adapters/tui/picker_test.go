package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func confirmBar(embedded bool) choiceBar {
	return newConfirmBar("Delete tmp.txt?", resolveTheme(nil), embedded)
}

func TestChoiceBar_DefaultsToNo(t *testing.T) {
	bar := confirmBar(true)
	if bar.cursor != 1 {
		t.Errorf("cursor = %d, want the No answer", bar.cursor)
	}
}

func TestChoiceBar_EmbeddedDoesNotQuit(t *testing.T) {
	next, cmd := confirmBar(true).Update(key("y"))
	bar := next.(choiceBar)

	if !bar.chosen || bar.cursor != 0 {
		t.Errorf("y should choose Yes, got chosen=%v cursor=%d", bar.chosen, bar.cursor)
	}
	if cmd != nil {
		t.Error("an embedded bar must not quit the program")
	}
}

func TestChoiceBar_StandaloneQuits(t *testing.T) {
	next, cmd := confirmBar(false).Update(key("n"))
	bar := next.(choiceBar)

	if !bar.chosen || bar.cursor != 1 {
		t.Errorf("n should choose No, got chosen=%v cursor=%d", bar.chosen, bar.cursor)
	}
	if cmd == nil {
		t.Fatal("a standalone bar should quit once decided")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.Quit")
	}
}

func TestChoiceBar_Navigation(t *testing.T) {
	bar := confirmBar(true)
	next, _ := bar.Update(key("h"))
	bar = next.(choiceBar)
	if bar.cursor != 0 {
		t.Errorf("h should move left, cursor = %d", bar.cursor)
	}
	next, _ = bar.Update(key("h"))
	if c := next.(choiceBar).cursor; c != 0 {
		t.Errorf("cursor should stay on the first item, got %d", c)
	}
	next, _ = bar.Update(key("esc"))
	if !next.(choiceBar).aborted {
		t.Error("esc should abort")
	}
}

func TestChoiceBar_NumberKeys(t *testing.T) {
	bar := choiceBar{choices: choices{items: []PickerItem{{Label: "main"}, {Label: "dev"}}}, embedded: true}
	next, _ := bar.Update(key("3"))
	if next.(choiceBar).chosen {
		t.Error("3 should not choose in a two item bar")
	}
	next, _ = bar.Update(key("2"))
	if got := next.(choiceBar); !got.chosen || got.cursor != 1 {
		t.Errorf("2 should choose the second item, got chosen=%v cursor=%d", got.chosen, got.cursor)
	}
}

func TestChoiceBar_YesNoKeysOnlyForYesNo(t *testing.T) {
	bar := choiceBar{choices: choices{items: []PickerItem{{Label: "main"}, {Label: "dev"}}}, embedded: true}
	next, _ := bar.Update(key("y"))
	if next.(choiceBar).chosen {
		t.Error("y should not choose in a non yes/no bar")
	}
}

func TestChoiceBar_ViewLine(t *testing.T) {
	line := confirmBar(true).viewLine()
	if strings.Contains(line, "\n") {
		t.Error("viewLine() should be a single line")
	}
	if !strings.Contains(line, "Delete tmp.txt?") || !strings.Contains(line, "▸ No") {
		t.Errorf("viewLine() = %q", line)
	}
}

func recentItems() []PickerItem {
	return []PickerItem{
		{Label: "gitlanes", Desc: "/src/gitlanes"},
		{Label: "dotfiles", Desc: "/home/me/dotfiles"},
		{Label: "website", Desc: "/src/website"},
	}
}

func TestListPicker_FilterMapsBackToOriginalIndex(t *testing.T) {
	var m tea.Model = newListPicker("Open repository", recentItems(), "", resolveTheme(nil))
	for _, s := range []string{"w", "e", "b"} {
		m, _ = m.Update(key(s))
	}
	p := m.(listPicker)
	if len(p.items) != 1 || p.items[0].Label != "website" {
		t.Fatalf("filtered items = %v, want only website", p.items)
	}

	m, cmd := p.Update(key("enter"))
	if cmd == nil {
		t.Fatal("enter should quit the picker")
	}
	if got := m.(listPicker).result(); got.Aborted || got.Index != 2 {
		t.Errorf("result() = %+v, want index 2", got)
	}
}

func TestListPicker_NoMatches(t *testing.T) {
	var m tea.Model = newListPicker("Open repository", recentItems(), "", resolveTheme(nil))
	m, _ = m.Update(key("zzz"))
	if !strings.Contains(m.View(), "no matches") {
		t.Error("View() should say nothing matched")
	}

	m, cmd := m.Update(key("enter"))
	if cmd != nil {
		t.Error("enter with nothing listed should not quit")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if q := m.(listPicker).query; q != "zz" {
		t.Errorf("query after backspace = %q, want zz", q)
	}
}

func TestListPicker_AbortAndNavigate(t *testing.T) {
	var m tea.Model = newListPicker("Open repository", recentItems(), "", resolveTheme(nil))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if c := m.(listPicker).cursor; c != 2 {
		t.Errorf("cursor = %d, want it clamped at 2", c)
	}

	m, _ = m.Update(key("esc"))
	if got := m.(listPicker).result(); !got.Aborted {
		t.Error("esc should abort")
	}
}

func TestMessagePrompt_RequiresText(t *testing.T) {
	var m tea.Model = newMessagePrompt("Commit message:", "", resolveTheme(nil))
	m, cmd := m.Update(key("enter"))
	if cmd != nil {
		t.Error("a blank message should not submit")
	}
	if !strings.Contains(m.View(), "cannot be empty") {
		t.Error("View() should explain why enter was ignored")
	}

	m, _ = m.Update(key("fix typo"))
	m, cmd = m.Update(key("enter"))
	if cmd == nil {
		t.Fatal("enter should submit a message")
	}
	p := m.(messagePrompt)
	if p.aborted || p.input.Value() != "fix typo" {
		t.Errorf("prompt = %q aborted=%v", p.input.Value(), p.aborted)
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatAge(tt.age); got != tt.want {
				t.Errorf("formatAge(%v) = %q, want %q", tt.age, got, tt.want)
			}
		})
	}
}
