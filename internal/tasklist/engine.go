// Package tasklist reconciles the page of tasks fetched from the backend with
// local UI state: it owns the fetched page, the rendered buffer, the fetch
// generation and the drag buffer.
package tasklist

import (
	"context"
	"errors"
	"fmt"

	"taskdeck/internal/api"
	"taskdeck/internal/model"
	"taskdeck/internal/session"
)

// ErrNotReady is returned by operations that need a loaded, idle page.
var ErrNotReady = errors.New("task list is not ready")

// Remote is the read side of the backend.
type Remote interface {
	List(ctx context.Context, q api.Query) (api.Page, error)
}

// Phase is where the list view is in its fetch and mutation cycle.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseMutating
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseMutating:
		return "mutating"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// View is a snapshot of the cached page. Tasks is the fetched page; Buffer is
// what gets rendered and differs from Tasks only while a reorder is pending.
type View struct {
	Tasks  []model.Task
	Buffer []model.Task
	Total  int
}

func (v View) clone() View {
	return View{Tasks: model.CloneTasks(v.Tasks), Buffer: model.CloneTasks(v.Buffer), Total: v.Total}
}

// Engine is driven from a single goroutine (the UI event loop). Only
// Fetch.Run may run elsewhere.
type Engine struct {
	remote Remote
	state  *session.State

	phase Phase
	err   error
	view  View

	gen    uint64
	cancel context.CancelFunc
	loaded bool

	pending int
	effects []*Effect
	drag    *Drag
}

// New returns an engine in the loading phase. Nothing is fetched until
// BeginFetch or Load is called.
func New(remote Remote, state *session.State) *Engine {
	return &Engine{remote: remote, state: state, phase: PhaseLoading}
}

func (e *Engine) State() *session.State { return e.state }
func (e *Engine) Phase() Phase          { return e.phase }

// Err is the last fetch failure; nil unless the phase is PhaseError.
func (e *Engine) Err() error { return e.err }

// Tasks returns the rendered list.
func (e *Engine) Tasks() []model.Task { return e.view.Buffer }

func (e *Engine) Total() int { return e.view.Total }

// Generation identifies the most recent fetch.
func (e *Engine) Generation() uint64 { return e.gen }

// Saving reports whether any mutation is in flight.
func (e *Engine) Saving() bool { return e.pending > 0 }

// Task looks up a rendered task by id.
func (e *Engine) Task(id string) (model.Task, bool) {
	for _, t := range e.view.Buffer {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return model.Task{}, false
}

// Snapshot and Restore let optimistic mutations roll the cached page back
// verbatim.
func (e *Engine) Snapshot() View { return e.view.clone() }

// Restore puts v back, then re-applies the effects still tracked.
func (e *Engine) Restore(v View) {
	e.view = v.clone()
	e.drag = nil
	e.reapply(0)
}

// Fetch is one list request. Run performs the network call and may be
// executed off the event loop; the result goes back through ApplyFetch.
type Fetch struct {
	Gen   uint64
	Query api.Query

	ctx    context.Context
	remote Remote
}

type FetchResult struct {
	Gen   uint64
	Query api.Query
	Page  api.Page
	Err   error
}

func (f *Fetch) Run() FetchResult {
	page, err := f.remote.List(f.ctx, f.Query)
	return FetchResult{Gen: f.Gen, Query: f.Query, Page: page, Err: err}
}

// BeginFetch starts a fetch for the current cursor and filter. Any fetch
// still in flight is canceled and its result will be ignored.
func (e *Engine) BeginFetch(ctx context.Context) *Fetch {
	e.release()
	e.gen++
	fctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	if e.phase != PhaseMutating {
		e.phase = PhaseLoading
	}
	return &Fetch{Gen: e.gen, Query: e.state.Query(), ctx: fctx, remote: e.remote}
}

// CancelFetch abandons the in-flight fetch, if any. A page loaded earlier
// stays on screen as ready.
func (e *Engine) CancelFetch() {
	e.release()
	e.gen++
	if e.phase == PhaseLoading && e.loaded {
		e.phase = PhaseReady
	}
}

func (e *Engine) release() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// ApplyFetch reconciles a fetch result. Results from superseded fetches are
// dropped. When a page past the first comes back empty the cursor steps back
// one page and again is true: the caller must fetch once more.
func (e *Engine) ApplyFetch(r FetchResult) (again bool) {
	if r.Gen != e.gen {
		return false
	}
	e.release()

	if r.Err != nil {
		e.phase = PhaseError
		e.err = r.Err
		return false
	}
	if len(r.Page.Tasks) == 0 && r.Query.Page > 1 {
		e.state.SetPage(r.Query.Page - 1)
		return true
	}

	e.err = nil
	e.drag = nil
	e.loaded = true
	e.view = View{
		Tasks:  model.CloneTasks(r.Page.Tasks),
		Buffer: model.CloneTasks(r.Page.Tasks),
		Total:  r.Page.TotalCount,
	}
	e.reapply(r.Gen)
	e.state.Prune(e.view.Tasks)
	if e.pending > 0 {
		e.phase = PhaseMutating
	} else {
		e.phase = PhaseReady
	}
	return false
}

// Load fetches synchronously until the page settles.
func (e *Engine) Load(ctx context.Context) error {
	for {
		f := e.BeginFetch(ctx)
		if !e.ApplyFetch(f.Run()) {
			return e.err
		}
	}
}

// BeginMutation marks a mutation in flight and abandons any fetch started
// before it, whose result would predate the optimistic change. Every call must
// be paired with EndMutation.
func (e *Engine) BeginMutation() {
	e.CancelFetch()
	e.pending++
	if e.phase == PhaseReady {
		e.phase = PhaseMutating
	}
}

func (e *Engine) EndMutation() {
	if e.pending > 0 {
		e.pending--
	}
	if e.pending == 0 && e.phase == PhaseMutating {
		e.phase = PhaseReady
	}
}

// RemoveIDs drops tasks from the cached page and from the selection in the
// same step. It returns how many tasks were removed.
func (e *Engine) RemoveIDs(ids ...string) int {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	keep := func(in []model.Task) []model.Task {
		out := make([]model.Task, 0, len(in))
		for _, t := range in {
			if !drop[t.ID] {
				out = append(out, t)
			}
		}
		return out
	}
	before := len(e.view.Tasks)
	e.view.Tasks = keep(e.view.Tasks)
	e.view.Buffer = keep(e.view.Buffer)
	removed := before - len(e.view.Tasks)
	e.view.Total -= removed
	if e.view.Total < 0 {
		e.view.Total = 0
	}
	e.state.Deselect(ids...)
	return removed
}

// ReplaceTask swaps the cached copy of t in place. It reports false when t is
// not on the current page.
func (e *Engine) ReplaceTask(t model.Task) bool {
	found := false
	for _, list := range [][]model.Task{e.view.Tasks, e.view.Buffer} {
		for i := range list {
			if list[i].ID == t.ID {
				list[i] = t.Clone()
				found = true
			}
		}
	}
	return found
}
