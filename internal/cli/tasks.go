package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskdeck/internal/api"
	"taskdeck/internal/model"
	"taskdeck/internal/mutate"
	"taskdeck/internal/publish"
	"taskdeck/internal/session"
	"taskdeck/internal/tasklist"

	"github.com/spf13/cobra"
)

type envelope struct {
	Data any            `json:"data"`
	Meta map[string]any `json:"meta,omitempty"`
}

// taskTable is an envelope that also prints as a table.
type taskTable struct {
	envelope
	tasks []model.Task
}

func (t taskTable) Header() []string {
	return []string{"ID", "TEXT", "STATUS", "PRIORITY", "DUE", "ORDER"}
}

func (t taskTable) Rows() [][]string {
	now := time.Now()
	rows := make([][]string, 0, len(t.tasks))
	for _, tk := range t.tasks {
		due := tk.DueDate
		if tk.Overdue(now) {
			due += " (overdue)"
		}
		order := ""
		if tk.HasOrder() {
			order = strconv.FormatFloat(tk.OrderValue(), 'g', -1, 64)
		}
		rows = append(rows, []string{tk.ID, tk.Text, tk.Status.Label(), string(tk.Priority), due, order})
	}
	return rows
}

func tasksOut(tasks []model.Task, meta map[string]any) taskTable {
	if tasks == nil {
		tasks = []model.Task{}
	}
	return taskTable{envelope: envelope{Data: tasks, Meta: meta}, tasks: tasks}
}

func taskOut(t model.Task) taskTable {
	return taskTable{envelope: envelope{Data: t}, tasks: []model.Task{t}}
}

// deck wires the client core for one command invocation.
type deck struct {
	state *session.State
	list  *tasklist.Engine
	orch  *mutate.Orchestrator
}

func newDeck(cmd *cobra.Command, app *App, filter model.Filter, page int) *deck {
	c := app.client()
	st := session.New(filter, app.PageSize, nil)
	st.SetPage(page)
	list := tasklist.New(c, st)
	return &deck{
		state: st,
		list:  list,
		orch:  mutate.New(c, list, st, app.logger(cmd)),
	}
}

func (d *deck) meta() map[string]any {
	return map[string]any{
		"page":     d.state.Page(),
		"pageSize": d.state.PageSize(),
		"pages":    d.state.PageCount(d.list.Total()),
		"total":    d.list.Total(),
		"filter":   d.state.Filter(),
		"returned": len(d.list.Tasks()),
	}
}

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task commands",
	}

	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksAddCmd(app))
	cmd.AddCommand(newTasksUpdateCmd(app))
	cmd.AddCommand(newTasksRmCmd(app))
	cmd.AddCommand(newTasksMoveCmd(app))
	cmd.AddCommand(newTasksExportCmd(app))

	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var page int
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of tasks (manual order, newest first on ties)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := model.ParseFilter(filter)
			if err != nil {
				return writeErr(cmd, err)
			}
			d := newDeck(cmd, app, f, page)
			if err := d.list.Load(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, tasksOut(d.list.Tasks(), d.meta()))
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based); an empty page steps back to the last non-empty one")
	cmd.Flags().StringVar(&filter, "filter", "all", "Filter (all|active|completed)")

	return cmd
}

func newTasksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.client().Get(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, taskOut(t))
		},
	}
}

func newTasksAddCmd(app *App) *cobra.Command {
	var text, due, priority string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task (it is placed first in manual order)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeck(cmd, app, model.FilterAll, 1)
			op, err := d.orch.Create(model.Draft{Text: text, DueDate: due, Priority: model.Priority(strings.ToLower(strings.TrimSpace(priority)))})
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := d.orch.Do(cmd.Context(), op); err != nil {
				return writeErr(cmd, err)
			}
			t, _ := op.Result()
			return writeOut(cmd, app, taskOut(t))
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Task text (1-120 characters)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD, not in the past)")
	cmd.Flags().StringVar(&priority, "priority", string(model.PriorityMedium), "Priority (low|medium|high)")
	_ = cmd.MarkFlagRequired("text")

	return cmd
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var text, due, priority, status string
	var clearDue bool

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update a task (only the given fields change)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p model.Patch
			flags := cmd.Flags()
			if flags.Changed("text") {
				p.Text = &text
			}
			if clearDue {
				p.ClearDueDate = true
			} else if flags.Changed("due") {
				p.DueDate = &due
			}
			if flags.Changed("priority") {
				pr, err := model.ParsePriority(priority)
				if err != nil {
					return writeErr(cmd, err)
				}
				p.Priority = &pr
			}
			if flags.Changed("status") {
				st, err := model.ParseStatus(status)
				if err != nil {
					return writeErr(cmd, err)
				}
				p.Status = &st
			}
			if p.Empty() {
				return writeErr(cmd, errors.New("nothing to update; pass --text, --due, --clear-due, --priority or --status"))
			}

			id := strings.TrimSpace(args[0])
			d := newDeck(cmd, app, model.FilterAll, 1)
			op, err := d.orch.Update(id, p)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := d.orch.Do(cmd.Context(), op); err != nil {
				return writeErr(cmd, err)
			}
			t, ok := op.Result()
			if !ok {
				return writeErr(cmd, api.NotFoundError{Kind: "task", ID: id})
			}
			return writeOut(cmd, app, taskOut(t))
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "New text")
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	cmd.Flags().StringVar(&priority, "priority", "", "New priority (low|medium|high)")
	cmd.Flags().StringVar(&status, "status", "", "New status (todo|in-progress|done)")

	return cmd
}

func newTasksRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <task-id>...",
		Short: "Delete tasks (several ids are deleted concurrently, best effort per id)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeck(cmd, app, model.FilterAll, 1)
			var (
				op  mutate.Op
				err error
			)
			if len(args) == 1 {
				op, err = d.orch.Delete(strings.TrimSpace(args[0]))
			} else {
				for _, id := range args {
					d.state.Select(id)
				}
				op, err = d.orch.BulkDelete()
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := d.orch.Do(cmd.Context(), op); err != nil {
				var be *api.BulkDeleteError
				if errors.As(err, &be) {
					_ = writeOut(cmd, app, envelope{Data: map[string]any{"deleted": be.Deleted, "failed": be.FailedIDs()}})
				}
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, envelope{Data: map[string]any{"deleted": args, "failed": []string{}}})
		},
	}
}

func newTasksMoveCmd(app *App) *cobra.Command {
	var page, to int
	var filter string

	cmd := &cobra.Command{
		Use:   "move <task-id>",
		Short: "Move a task to another position on its page",
		Long: strings.TrimSpace(`
Moves a task within one page. The page keeps the order keys it already has;
they are reassigned to the new positions. Tasks cannot move across pages.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := model.ParseFilter(filter)
			if err != nil {
				return writeErr(cmd, err)
			}
			d := newDeck(cmd, app, f, page)
			if err := d.list.Load(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			if to < 1 || to > len(d.list.Tasks()) {
				return writeErr(cmd, fmt.Errorf("--to must be between 1 and %d", len(d.list.Tasks())))
			}
			drag, err := d.list.StartDrag(strings.TrimSpace(args[0]))
			if err != nil {
				return writeErr(cmd, err)
			}
			drag.Over(to - 1)
			r, changed := drag.Drop()
			if changed {
				op, err := d.orch.Reorder(r)
				if err != nil {
					return writeErr(cmd, err)
				}
				if err := d.orch.Do(cmd.Context(), op); err != nil {
					return writeErr(cmd, err)
				}
			}
			meta := d.meta()
			meta["changed"] = changed
			return writeOut(cmd, app, tasksOut(d.list.Tasks(), meta))
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page the task is on")
	cmd.Flags().StringVar(&filter, "filter", "all", "Filter the page is listed under (all|active|completed)")
	cmd.Flags().IntVar(&to, "to", 1, "Target position on the page (1-based)")

	return cmd
}

func newTasksExportCmd(app *App) *cobra.Command {
	var to, filter, title string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the task list as markdown (index.md plus one file per task)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := model.ParseFilter(filter)
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks, err := app.client().All(cmd.Context(), f)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := publish.WriteTasks(tasks, to, publish.WriteOptions{
				Title:     title,
				Filter:    f,
				Overwrite: overwrite,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, envelope{
				Data: res,
				Meta: map[string]any{"tasks": len(tasks), "filter": f},
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Output directory")
	cmd.Flags().StringVar(&filter, "filter", "all", "Filter (all|active|completed)")
	cmd.Flags().StringVar(&title, "title", "Tasks", "Index heading")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
