// Package mutate wraps each user action as an optimistic local change plus a
// backend call, and settles the pair once the call returns.
package mutate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"taskdeck/internal/api"
	"taskdeck/internal/model"
	"taskdeck/internal/session"
	"taskdeck/internal/tasklist"
)

// Remote is the write side of the backend plus the list read used for the
// refetch after every mutation.
type Remote interface {
	tasklist.Remote
	Create(ctx context.Context, d model.Draft) (model.Task, error)
	Update(ctx context.Context, id string, p model.Patch) (model.Task, error)
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) error
	Reorder(ctx context.Context, reordered, original []model.Task) error
}

// Op is one issued mutation. Constructing it applied the optimistic change.
// Run does only the backend call and is safe off the event loop; Settle must
// be called exactly once, on the event loop, with Run's error.
type Op interface {
	Name() string
	Run(ctx context.Context) error
	// Settle commits or rolls back the optimistic change and reports the
	// failure. A nil return means the list should simply be refetched.
	Settle(err error) error
	// Result is the task the backend returned, for create and update.
	Result() (model.Task, bool)
}

type Orchestrator struct {
	remote Remote
	list   *tasklist.Engine
	state  *session.State
	log    *slog.Logger
	now    func() time.Time
}

func New(remote Remote, list *tasklist.Engine, state *session.State, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{remote: remote, list: list, state: state, log: log, now: time.Now}
}

// Do runs op to completion and refetches the list. The mutation's error wins
// over the refetch's.
func (o *Orchestrator) Do(ctx context.Context, op Op) error {
	err := op.Settle(op.Run(ctx))
	if lerr := o.list.Load(ctx); err == nil {
		err = lerr
	}
	return err
}

type mutation struct {
	name   string
	run    func(ctx context.Context) error
	settle func(err error) error
	ended  bool
	o      *Orchestrator

	result    model.Task
	hasResult bool
}

func (p *mutation) Name() string { return p.name }

func (p *mutation) Result() (model.Task, bool) { return p.result, p.hasResult }

func (p *mutation) Run(ctx context.Context) error { return p.run(ctx) }

func (p *mutation) Settle(err error) error {
	if p.ended {
		return err
	}
	p.ended = true
	defer p.o.list.EndMutation()
	return p.settle(err)
}

func (o *Orchestrator) issue(name string, run func(context.Context) error, settle func(error) error) *mutation {
	o.list.BeginMutation()
	return &mutation{name: name, run: run, settle: settle, o: o}
}

// Create validates the draft and posts it. Nothing is inserted optimistically;
// the refetch brings the new task in.
func (o *Orchestrator) Create(d model.Draft) (Op, error) {
	if err := d.Validate(o.now()); err != nil {
		return nil, err
	}
	var m *mutation
	m = o.issue("create",
		func(ctx context.Context) error {
			t, err := o.remote.Create(ctx, d)
			if err == nil {
				m.result, m.hasResult = t, true
			}
			return err
		},
		func(err error) error {
			if err != nil {
				o.log.Error("create task failed", slog.String("op", "create"), slog.String("error", err.Error()))
				return err
			}
			o.log.Info("task created", slog.String("op", "create"), slog.String("task_id", m.result.ID))
			return nil
		},
	)
	return m, nil
}

// Update applies p to the cached task immediately and rolls back when the
// backend rejects it. A task that no longer exists counts as settled.
func (o *Orchestrator) Update(id string, p model.Patch) (Op, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Empty() {
		return nil, nil
	}
	tx := Begin[tasklist.View](o.list)
	eff := o.list.Patch(id, p)
	var m *mutation
	m = o.issue("update",
		func(ctx context.Context) error {
			t, err := o.remote.Update(ctx, id, p)
			if err == nil {
				m.result, m.hasResult = t, true
			}
			return err
		},
		func(err error) error {
			return o.settleByID(tx, eff, "update", id, err)
		},
	)
	return m, nil
}

// SetStatus is an Update of the status field alone.
func (o *Orchestrator) SetStatus(id string, s model.Status) (Op, error) {
	return o.Update(id, model.Patch{Status: &s})
}

// SaveEdit saves the edit buffer. Empty or over-long text is rejected without
// a request and the buffer stays open. Unchanged text closes the buffer and
// returns a nil Op. Otherwise the buffer is closed when the request is issued
// and is not restored on failure.
func (o *Orchestrator) SaveEdit() (Op, error) {
	buf, ok := o.state.Edit()
	if !ok {
		return nil, ErrNotEditing
	}
	text, err := model.NormalizeText(buf.Text)
	if err != nil {
		return nil, err
	}
	if cur, ok := o.list.Task(buf.TaskID); ok && cur.Text == text {
		o.state.CancelEdit()
		return nil, nil
	}
	o.state.CancelEdit()
	return o.Update(buf.TaskID, model.Patch{Text: &text})
}

// Delete removes the task from the cached page and the selection at once.
func (o *Orchestrator) Delete(id string) (Op, error) {
	tx := Begin[tasklist.View](o.list)
	eff := o.list.Hide(id)
	return o.issue("delete",
		func(ctx context.Context) error {
			return o.remote.Delete(ctx, id)
		},
		func(err error) error {
			return o.settleByID(tx, eff, "delete", id, err)
		},
	), nil
}

// BulkDelete removes every selected task and clears the selection. On any
// failure the whole page is restored, but the selection stays cleared.
func (o *Orchestrator) BulkDelete() (Op, error) {
	ids := o.state.Selected()
	if len(ids) == 0 {
		return nil, ErrNothingSelected
	}
	tx := Begin[tasklist.View](o.list)
	eff := o.list.Hide(ids...)
	o.state.ClearSelection()
	return o.issue("bulk delete",
		func(ctx context.Context) error {
			return o.remote.BulkDelete(ctx, ids)
		},
		func(err error) error {
			if settle(tx, eff, err) == nil {
				o.log.Info("tasks deleted", slog.String("op", "bulk_delete"), slog.Int("count", len(ids)))
				return nil
			}
			attrs := []any{slog.String("op", "bulk_delete"), slog.Int("count", len(ids)), slog.String("error", err.Error())}
			var be *api.BulkDeleteError
			if errors.As(err, &be) {
				attrs = append(attrs, slog.Any("failed", be.FailedIDs()), slog.Any("deleted", be.Deleted))
			}
			o.log.Error("bulk delete failed", attrs...)
			return err
		},
	), nil
}

// Reorder persists a dropped drag. The buffer already shows the new order;
// failure puts back the pre-drag view.
func (o *Orchestrator) Reorder(r tasklist.Reorder) (Op, error) {
	if len(r.Reordered) == 0 {
		return nil, nil
	}
	if _, err := api.PlanReorder(r.Reordered, r.Original); err != nil {
		return nil, err
	}
	tx := Resume[tasklist.View](o.list, r.Before)
	eff := o.list.Arrange(r.Reordered)
	return o.issue("reorder",
		func(ctx context.Context) error {
			return o.remote.Reorder(ctx, r.Reordered, r.Original)
		},
		func(err error) error {
			if settle(tx, eff, err) == nil {
				return nil
			}
			o.log.Error("reorder failed", slog.String("op", "reorder"), slog.Int("count", len(r.Reordered)), slog.String("error", err.Error()))
			return err
		},
	), nil
}

// settle commits or discards eff along with tx. The effect goes first so that
// a rollback re-applies only the other mutations' effects.
func settle(tx *Tx[tasklist.View], eff *tasklist.Effect, err error) error {
	if err != nil {
		eff.Discard()
	} else {
		eff.Commit()
	}
	return tx.Settle(err)
}

func (o *Orchestrator) settleByID(tx *Tx[tasklist.View], eff *tasklist.Effect, name, id string, err error) error {
	var nf api.NotFoundError
	if errors.As(err, &nf) {
		o.log.Info("task already gone", slog.String("op", name), slog.String("task_id", id))
		return settle(tx, eff, nil)
	}
	if settle(tx, eff, err) == nil {
		return nil
	}
	o.log.Error(name+" failed", slog.String("op", name), slog.String("task_id", id), slog.String("error", err.Error()))
	return err
}
