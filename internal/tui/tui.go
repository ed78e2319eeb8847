package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

func Run(ctx context.Context, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference()
	applyGlyphPreference()

	m := New(ctx, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
