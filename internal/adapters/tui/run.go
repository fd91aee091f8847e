package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xvierd/gitlanes/internal/config"
	"github.com/xvierd/gitlanes/internal/domain"
)

// Run starts the full-screen interface and blocks until the user quits or
// ctx ends.
func Run(ctx context.Context, backend Backend, opts Options) error {
	m := NewModel(ctx, backend, opts)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// PickRepository lets the user choose among recently opened repositories.
func PickRepository(recent []*domain.RecentRepository, theme *config.ThemeConfig) (*domain.RecentRepository, bool) {
	if len(recent) == 0 {
		return nil, false
	}
	items := make([]PickerItem, 0, len(recent))
	for _, r := range recent {
		items = append(items, PickerItem{Label: r.Name, Desc: r.Path})
	}
	footer := fmt.Sprintf("last opened %s", formatAge(time.Since(recent[0].LastOpened)))

	res := RunPicker("Open repository", items, footer, theme)
	if res.Aborted {
		return nil, false
	}
	return recent[res.Index], true
}

// formatAge renders a duration the way the recent list shows it.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
