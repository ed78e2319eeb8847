package tui

import (
	"strings"

	"taskdeck/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type addField int

const (
	addFieldText addField = iota
	addFieldDue
	addFieldPriority
	addFieldCount
)

// addForm collects a new task: text, optional due date, priority.
type addForm struct {
	text     textinput.Model
	due      textinput.Model
	priority model.Priority
	focus    addField
	err      string
}

func newAddForm() addForm {
	text := textinput.New()
	text.Prompt = ""
	text.Placeholder = "What needs doing?"
	text.CharLimit = model.MaxTextLen * 2

	due := textinput.New()
	due.Prompt = ""
	due.Placeholder = "YYYY-MM-DD (optional)"
	due.CharLimit = len(model.DateLayout)

	return addForm{text: text, due: due, priority: model.PriorityMedium}
}

// open resets the form and focuses the text field.
func (f *addForm) open() tea.Cmd {
	f.text.SetValue("")
	f.due.SetValue("")
	f.priority = model.PriorityMedium
	f.err = ""
	return f.setFocus(addFieldText)
}

func (f *addForm) close() {
	f.text.Blur()
	f.due.Blur()
	f.err = ""
}

func (f *addForm) setFocus(field addField) tea.Cmd {
	f.focus = (field + addFieldCount) % addFieldCount
	f.text.Blur()
	f.due.Blur()
	switch f.focus {
	case addFieldText:
		return f.text.Focus()
	case addFieldDue:
		return f.due.Focus()
	}
	return nil
}

func (f addForm) draft() model.Draft {
	return model.Draft{
		Text:     f.text.Value(),
		DueDate:  strings.TrimSpace(f.due.Value()),
		Priority: f.priority,
	}
}

// update handles a key that is not submit or cancel.
func (f *addForm) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		return f.setFocus(f.focus + 1)
	case "shift+tab", "up":
		return f.setFocus(f.focus - 1)
	}
	var cmd tea.Cmd
	switch f.focus {
	case addFieldText:
		f.text, cmd = f.text.Update(msg)
	case addFieldDue:
		f.due, cmd = f.due.Update(msg)
	case addFieldPriority:
		switch msg.String() {
		case " ", "right", "l", "p":
			f.priority = f.priority.Next()
		case "left", "h":
			f.priority = f.priority.Next().Next()
		}
	}
	return cmd
}

func (f addForm) view(width int) string {
	labelW := 10
	fieldW := width - labelW - 4
	if fieldW < 10 {
		fieldW = 10
	}
	f.text.Width = fieldW
	f.due.Width = fieldW

	label := func(s string, field addField) string {
		st := lipgloss.NewStyle().Width(labelW)
		if f.focus == field {
			st = st.Foreground(colorAccent).Bold(true)
		} else {
			st = st.Inherit(styleMuted())
		}
		return st.Render(s)
	}

	var prio []string
	for _, p := range model.Priorities {
		if p == f.priority {
			prio = append(prio, stylePriority(string(p)).Reverse(true).Padding(0, 1).Render(string(p)))
		} else {
			prio = append(prio, styleMuted().Padding(0, 1).Render(string(p)))
		}
	}

	lines := []string{
		styleHeader().Render("New task"),
		label("Text", addFieldText) + f.text.View(),
		label("Due", addFieldDue) + f.due.View(),
		label("Priority", addFieldPriority) + strings.Join(prio, " "),
	}
	if f.err != "" {
		lines = append(lines, styleError().Render(f.err))
	}
	lines = append(lines, styleMuted().Render("tab: next field   space: change priority   enter: add   esc: cancel"))
	return renderBox(width, strings.Join(lines, "\n"))
}
