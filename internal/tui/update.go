package tui

import (
	"errors"
	"fmt"

	"taskdeck/internal/model"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case fetchMsg:
		if m.list.ApplyFetch(msg.result) {
			// Page came back empty; the cursor already stepped back.
			return m, m.fetch()
		}
		m.syncRows()
		return m, nil

	case opDoneMsg:
		err := msg.op.Settle(msg.err)
		m.syncRows()
		cmds := []tea.Cmd{m.fetch()}
		if err != nil {
			cmds = append(cmds, m.showError(err))
		} else if msg.op.Name() == "create" {
			cmds = append(cmds, m.showMinibuffer("Task added"))
		}
		return m, tea.Batch(cmds...)

	case clearMinibufferMsg:
		if msg.setAt.Equal(m.minibufferSetAt) {
			m.minibufferText = ""
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeAdd:
			return m.updateAdd(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		}
		if m.list.Dragging() != nil {
			return m.updateDrag(msg)
		}
		return m.updateList(msg)
	}

	if m.mode == modeEdit {
		var cmd tea.Cmd
		m.edit, cmd = m.edit.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.list.CancelFetch()
	return m, tea.Quit
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.rows.CursorUp()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.rows.CursorDown()
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if !m.state.HasPrev() {
			return m, nil
		}
		m.state.SetPage(m.state.Page() - 1)
		m.rows.Select(0)
		return m, m.fetch()

	case key.Matches(msg, m.keys.NextPage):
		if !m.state.HasNext(m.list.Total()) {
			return m, nil
		}
		m.state.SetPage(m.state.Page() + 1)
		m.rows.Select(0)
		return m, m.fetch()

	case key.Matches(msg, m.keys.Filter):
		var cmd tea.Cmd
		if err := m.state.SetFilter(m.state.Filter().Next()); err != nil {
			// The filter still applies for this session.
			m.log.Warn("save filter failed", "error", err)
			cmd = m.showError(err)
		}
		m.state.SetPage(1)
		m.rows.Select(0)
		return m, tea.Batch(m.fetch(), cmd)

	case key.Matches(msg, m.keys.Reload):
		return m, m.fetch()

	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		return m, m.form.open()

	case key.Matches(msg, m.keys.BulkDelete):
		n := m.state.SelectionLen()
		if n == 0 {
			return m, m.showMinibuffer("No tasks selected")
		}
		m.confirm = confirmDialog{
			title:        "Delete selected tasks",
			body:         fmt.Sprintf("Delete %d selected %s? This cannot be undone.", n, plural(n, "task", "tasks")),
			confirmLabel: fmt.Sprintf("Delete selected (%d)", n),
		}
		m.mode = modeConfirm
		return m, nil
	}

	t, ok := m.current()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Edit):
		m.state.BeginEdit(t)
		m.edit.SetValue(t.Text)
		m.edit.CursorEnd()
		m.mode = modeEdit
		return m, m.edit.Focus()

	case key.Matches(msg, m.keys.Status):
		return m, m.issue(m.orch.SetStatus(t.ID, t.Status.Next()))

	case key.Matches(msg, m.keys.Priority):
		next := t.Priority.Next()
		return m, m.issue(m.orch.Update(t.ID, model.Patch{Priority: &next}))

	case key.Matches(msg, m.keys.Select):
		m.state.Toggle(t.ID)
		m.syncRows()
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		m.confirm = confirmDialog{
			title:        "Delete task",
			body:         fmt.Sprintf("Delete %q? This cannot be undone.", truncate(t.Text, 48)),
			confirmLabel: "Delete",
			taskID:       t.ID,
		}
		m.mode = modeConfirm
		return m, nil

	case key.Matches(msg, m.keys.Grab):
		if _, err := m.list.StartDrag(t.ID); err != nil {
			return m, m.showError(err)
		}
		m.syncRows()
		return m, nil
	}
	return m, nil
}

func (m Model) updateDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	drag := m.list.Dragging()
	switch {
	case key.Matches(msg, m.keys.Quit):
		drag.Cancel()
		return m.quit()
	case key.Matches(msg, m.keys.Up):
		drag.Over(drag.Index() - 1)
	case key.Matches(msg, m.keys.Down):
		drag.Over(drag.Index() + 1)
	case key.Matches(msg, m.keys.Cancel):
		drag.Cancel()
	case key.Matches(msg, m.keys.Drop):
		r, changed := drag.Drop()
		if !changed {
			m.syncRows()
			return m, nil
		}
		return m, m.issue(m.orch.Reorder(r))
	}
	m.syncRows()
	return m, nil
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state.CancelEdit()
		m.edit.Blur()
		m.mode = modeList
		return m, nil
	case "enter":
		m.state.SetEditText(m.edit.Value())
		op, err := m.orch.SaveEdit()
		if errors.Is(err, model.ErrEmptyText) || errors.Is(err, model.ErrTextTooLong) {
			// The editor stays open.
			return m, m.showError(err)
		}
		m.edit.Blur()
		m.mode = modeList
		return m, m.issue(op, err)
	}
	var cmd tea.Cmd
	m.edit, cmd = m.edit.Update(msg)
	m.state.SetEditText(m.edit.Value())
	return m, cmd
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form.close()
		m.mode = modeList
		return m, nil
	case "enter":
		op, err := m.orch.Create(m.form.draft())
		if err != nil {
			m.form.err = errorText(err)
			return m, nil
		}
		m.form.close()
		m.mode = modeList
		return m, m.issue(op, nil)
	}
	return m, m.form.update(msg)
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "n", "q":
		m.mode = modeList
		return m, nil
	case "tab", "shift+tab", "left", "right", "h", "l":
		m.confirm.toggleFocus()
		return m, nil
	case "y":
		m.confirm.focus = confirmFocusConfirm
	case "enter":
	default:
		return m, nil
	}

	m.mode = modeList
	if m.confirm.focus != confirmFocusConfirm {
		return m, nil
	}
	if m.confirm.bulk() {
		return m, m.issue(m.orch.BulkDelete())
	}
	return m, m.issue(m.orch.Delete(m.confirm.taskID))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
