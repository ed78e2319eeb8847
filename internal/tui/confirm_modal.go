package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type confirmFocus int

const (
	confirmFocusConfirm confirmFocus = iota
	confirmFocusCancel
)

// confirmDialog asks before a delete. taskID is empty for a bulk delete.
type confirmDialog struct {
	title        string
	body         string
	confirmLabel string
	taskID       string
	focus        confirmFocus
}

func (c confirmDialog) bulk() bool { return c.taskID == "" }

func (c *confirmDialog) toggleFocus() {
	if c.focus == confirmFocusConfirm {
		c.focus = confirmFocusCancel
	} else {
		c.focus = confirmFocusConfirm
	}
}

func (c confirmDialog) view(width int) string {
	// No nested borders: some terminals smear background colors across them.
	btnBase := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	btnActive := btnBase.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true)

	confirm := btnBase.Render(c.confirmLabel)
	cancel := btnBase.Render("Cancel")
	if c.focus == confirmFocusConfirm {
		confirm = btnActive.Render(c.confirmLabel)
	} else {
		cancel = btnActive.Render("Cancel")
	}
	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, " ", cancel)

	content := strings.Join([]string{
		styleHeader().Render(c.title),
		"",
		c.body,
		"",
		controls,
		"",
		styleMuted().Render("tab: focus   enter: select   y/n   esc: cancel"),
	}, "\n")
	return renderBox(width, content)
}

func boxWidth(width int) int {
	w := width - 4
	if w > 72 {
		w = 72
	}
	if w < 24 {
		w = 24
	}
	return w
}

func renderBox(width int, content string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(boxWidth(width)).
		Render(content)
}
