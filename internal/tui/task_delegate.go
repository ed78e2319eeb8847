package tui

import (
	"fmt"
	"io"
	"strings"

	"taskdeck/internal/model"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// taskItem is one row of the rendered buffer. The flags are captured when
// the rows are rebuilt so the delegate never reads session state.
type taskItem struct {
	task     model.Task
	selected bool
	grabbed  bool
	overdue  bool
}

func (i taskItem) FilterValue() string { return i.task.Text }

type taskDelegate struct {
	normal   lipgloss.Style
	cursor   lipgloss.Style
	grabbed  lipgloss.Style
	overdue  lipgloss.Style
	doneText lipgloss.Style
}

func newTaskDelegate() taskDelegate {
	return taskDelegate{
		normal: lipgloss.NewStyle(),
		cursor: lipgloss.NewStyle().
			Foreground(colorSelectedFg).
			Background(colorSelectedBg).
			Bold(true),
		grabbed: lipgloss.NewStyle().
			Foreground(colorAccentFg).
			Background(colorAccent).
			Bold(true),
		overdue:  lipgloss.NewStyle().Foreground(colorOverdue).Bold(true),
		doneText: styleMuted().Strikethrough(true),
	}
}

func (d taskDelegate) Height() int                             { return 1 }
func (d taskDelegate) Spacing() int                            { return 0 }
func (d taskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d taskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(taskItem)
	if !ok {
		return
	}
	width := m.Width()
	if width < 8 {
		fmt.Fprint(w, "")
		return
	}

	lead := "  "
	if it.grabbed {
		lead = glyphGrab() + " "
	} else if index == m.Index() {
		lead = glyphCursor() + " "
	}
	box := glyphUnchecked()
	if it.selected {
		box = glyphChecked()
	}

	status := fmt.Sprintf("%-11s", it.task.Status.Label())
	prio := fmt.Sprintf("%-6s", string(it.task.Priority))
	due := ""
	if it.task.DueDate != "" {
		due = "due " + it.task.DueDate
		if it.overdue {
			due += " !"
		}
	}

	// Fixed columns on the right, text takes what is left.
	right := status + " " + prio
	if due != "" {
		right += " " + due
	}
	left := lead + box + " "
	textW := width - xansi.StringWidth(left) - xansi.StringWidth(right) - 2
	text := it.task.Text
	if textW < 1 {
		text = ""
		textW = 0
	}
	text = fitWidth(text, textW)

	row := rowParts{left: left, text: text, status: status, prio: prio, due: due}
	switch {
	case it.grabbed:
		fmt.Fprint(w, d.grabbed.Render(fitWidth(row.plain(), width)))
	case index == m.Index():
		fmt.Fprint(w, d.cursor.Render(fitWidth(row.plain(), width)))
	default:
		fmt.Fprint(w, fitWidth(row.styled(d, it), width))
	}
}

type rowParts struct {
	left, text, status, prio, due string
}

func (r rowParts) plain() string {
	parts := []string{r.left + r.text, r.status, r.prio}
	if r.due != "" {
		parts = append(parts, r.due)
	}
	return strings.Join(parts, " ")
}

func (r rowParts) styled(d taskDelegate, it taskItem) string {
	text := d.normal.Render(r.text)
	if it.task.Status == model.StatusDone {
		text = d.doneText.Render(r.text)
	}
	parts := []string{
		r.left + text,
		styleStatus(string(it.task.Status)).Render(r.status),
		stylePriority(string(it.task.Priority)).Render(r.prio),
	}
	if r.due != "" {
		due := styleMuted().Render(r.due)
		if it.overdue {
			due = d.overdue.Render(r.due)
		}
		parts = append(parts, due)
	}
	return strings.Join(parts, " ")
}
