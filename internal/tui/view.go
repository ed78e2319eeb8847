package tui

import (
	"fmt"
	"strings"

	"taskdeck/internal/tasklist"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	parts := []string{m.viewHeader(width), hrule(width), m.viewBody(width)}

	switch m.mode {
	case modeEdit:
		parts = append(parts, m.edit.View())
	case modeAdd:
		parts = append(parts, m.form.view(width))
	case modeConfirm:
		parts = append(parts, m.confirm.view(width))
	}

	parts = append(parts, hrule(width), m.viewPager(width))
	if m.minibufferText != "" {
		parts = append(parts, fitWidth(m.minibufferText, width))
	}
	if m.list.Dragging() != nil {
		parts = append(parts, m.help.View(dragKeyMap{k: m.keys}))
	} else {
		parts = append(parts, m.help.View(m.keys))
	}
	return strings.Join(parts, "\n")
}

func (m Model) viewHeader(width int) string {
	title := styleHeader().Render("Tasks")
	info := []string{
		"filter: " + string(m.state.Filter()),
		fmt.Sprintf("%d total", m.list.Total()),
	}
	if n := m.state.SelectionLen(); n > 0 {
		info = append(info, fmt.Sprintf("%d selected", n))
	}
	left := title + "  " + styleMuted().Render(strings.Join(info, "  "))

	var right string
	switch {
	case m.list.Saving():
		right = lipgloss.NewStyle().Foreground(colorWorking).Render("Saving" + glyphEllipsis())
	case m.list.Phase() == tasklist.PhaseLoading:
		right = styleMuted().Render("Loading" + glyphEllipsis())
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return fitWidth(left, width)
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) viewBody(width int) string {
	pad := func(s string) string {
		lines := strings.Count(s, "\n") + 1
		if h := m.rows.Height(); lines < h {
			s += strings.Repeat("\n", h-lines)
		}
		return s
	}

	switch {
	case m.list.Phase() == tasklist.PhaseError:
		msg := "unknown error"
		if err := m.list.Err(); err != nil {
			msg = errorText(err)
		}
		return pad(strings.Join([]string{
			styleError().Render("Could not load tasks"),
			truncate(msg, width),
			"",
			styleMuted().Render("Press r to retry."),
		}, "\n"))

	case len(m.list.Tasks()) == 0 && m.list.Phase() == tasklist.PhaseLoading:
		return pad(styleMuted().Render("Loading tasks" + glyphEllipsis()))

	case len(m.list.Tasks()) == 0:
		return pad(styleMuted().Render(m.state.Filter().EmptyMessage()))
	}
	return m.rows.View()
}

func (m Model) viewPager(width int) string {
	total := m.list.Total()
	prev := "‹ prev (h)"
	next := "next (l) ›"
	if m.state.HasPrev() {
		prev = lipgloss.NewStyle().Foreground(colorAccent).Render(prev)
	} else {
		prev = styleMuted().Render(prev)
	}
	if m.state.HasNext(total) {
		next = lipgloss.NewStyle().Foreground(colorAccent).Render(next)
	} else {
		next = styleMuted().Render(next)
	}
	mid := fmt.Sprintf("page %d of %d", m.state.Page(), m.state.PageCount(total))
	return fitWidth(prev+"   "+mid+"   "+next, width)
}
