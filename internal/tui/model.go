package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"taskdeck/internal/api"
	"taskdeck/internal/model"
	"taskdeck/internal/mutate"
	"taskdeck/internal/session"
	"taskdeck/internal/tasklist"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const minibufferAutoClearAfter = 4 * time.Second

type mode int

const (
	modeList mode = iota
	modeEdit
	modeAdd
	modeConfirm
)

// Options wires the model to the client core.
type Options struct {
	Remote mutate.Remote
	State  *session.State
	Log    *slog.Logger
}

// Model is the task list screen. All engine and state access happens in
// Update; network calls run inside tea.Cmds and come back as messages.
type Model struct {
	ctx   context.Context
	state *session.State
	list  *tasklist.Engine
	orch  *mutate.Orchestrator
	log   *slog.Logger
	now   func() time.Time

	keys     keyMap
	help     help.Model
	rows     list.Model
	mode     mode
	showHelp bool

	edit    textinput.Model
	form    addForm
	confirm confirmDialog

	width  int
	height int

	minibufferText  string
	minibufferSetAt time.Time
	// minibufferTTL <= 0 keeps messages until replaced.
	minibufferTTL time.Duration
}

type fetchMsg struct{ result tasklist.FetchResult }

type opDoneMsg struct {
	op  mutate.Op
	err error
}

type clearMinibufferMsg struct{ setAt time.Time }

func New(ctx context.Context, opts Options) Model {
	if opts.Log == nil {
		opts.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	engine := tasklist.New(opts.Remote, opts.State)

	rows := list.New(nil, newTaskDelegate(), 80, opts.State.PageSize())
	rows.SetShowTitle(false)
	rows.SetShowStatusBar(false)
	rows.SetShowHelp(false)
	rows.SetShowPagination(false)
	rows.SetFilteringEnabled(false)
	rows.DisableQuitKeybindings()

	edit := textinput.New()
	edit.Prompt = "Edit: "
	edit.CharLimit = model.MaxTextLen * 2

	return Model{
		ctx:   ctx,
		state: opts.State,
		list:  engine,
		orch:  mutate.New(opts.Remote, engine, opts.State, opts.Log),
		log:   opts.Log,
		now:   time.Now,
		keys:  defaultKeyMap(),
		help:  help.New(),
		rows:  rows,
		edit:  edit,
		form:  newAddForm(),
		width: 80,

		minibufferTTL: minibufferAutoClearAfter,
	}
}

func (m Model) Init() tea.Cmd { return m.fetch() }

// fetch supersedes any fetch in flight.
func (m Model) fetch() tea.Cmd {
	f := m.list.BeginFetch(m.ctx)
	return func() tea.Msg { return fetchMsg{result: f.Run()} }
}

// issue starts op's backend call. The optimistic change is already applied.
func (m *Model) issue(op mutate.Op, err error) tea.Cmd {
	m.syncRows()
	if err != nil {
		return m.showError(err)
	}
	if op == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg { return opDoneMsg{op: op, err: op.Run(ctx)} }
}

func (m *Model) showMinibuffer(text string) tea.Cmd {
	m.minibufferText = text
	m.minibufferSetAt = m.now()
	if m.minibufferTTL <= 0 {
		return nil
	}
	at := m.minibufferSetAt
	return tea.Tick(m.minibufferTTL, func(time.Time) tea.Msg {
		return clearMinibufferMsg{setAt: at}
	})
}

func (m *Model) showError(err error) tea.Cmd {
	return m.showMinibuffer("Error: " + errorText(err))
}

// errorText turns client errors into one line for the minibuffer.
func errorText(err error) string {
	var (
		ve api.ValidationError
		nf api.NotFoundError
		se api.ServerError
		te api.TransportError
		be *api.BulkDeleteError
	)
	switch {
	case errors.As(err, &be):
		return fmt.Sprintf("%d deleted, %d failed (%s)", len(be.Deleted), len(be.Failed), strings.Join(be.FailedIDs(), ", "))
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &nf):
		return "task not found"
	case errors.As(err, &se):
		return se.Error()
	case errors.As(err, &te):
		return "cannot reach the server: " + te.Err.Error()
	default:
		return err.Error()
	}
}

// syncRows rebuilds the rendered rows from the engine buffer and session
// state. The cursor follows a grabbed task.
func (m *Model) syncRows() {
	tasks := m.list.Tasks()
	drag := m.list.Dragging()
	now := m.now()

	items := make([]list.Item, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, taskItem{
			task:     t,
			selected: m.state.IsSelected(t.ID),
			grabbed:  drag != nil && drag.TaskID() == t.ID,
			overdue:  t.Overdue(now),
		})
	}
	idx := m.rows.Index()
	m.rows.SetItems(items)
	if drag != nil {
		idx = drag.Index()
	}
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx < 0 {
		idx = 0
	}
	m.rows.Select(idx)

	// A refetch may have dropped the task under edit.
	if m.mode == modeEdit {
		if _, ok := m.state.Edit(); !ok {
			m.mode = modeList
			m.edit.Blur()
		}
	}
}

func (m Model) current() (model.Task, bool) {
	it, ok := m.rows.SelectedItem().(taskItem)
	if !ok {
		return model.Task{}, false
	}
	return it.task, true
}

func (m *Model) resize() {
	h := m.state.PageSize()
	if avail := m.height - 8; avail > 0 && avail < h {
		h = avail
	}
	m.rows.SetSize(m.width, h)
	m.help.Width = m.width
}
