package tasklist

import "taskdeck/internal/model"

// Effect is an optimistic change the engine re-applies whenever the cached
// page is replaced, by a fetch or by a rollback of some other mutation. A
// pending effect always applies. A committed one applies until a fetch begun
// after the commit lands, since that fetch already reflects it.
type Effect struct {
	e *Engine

	hide  []string
	id    string
	patch *model.Patch
	order []string

	committed bool
	at        uint64
}

// Hide removes ids from the page and the selection.
func (e *Engine) Hide(ids ...string) *Effect {
	return e.track(&Effect{e: e, hide: append([]string(nil), ids...)})
}

// Patch applies p to the cached task with id, if it is on the page.
func (e *Engine) Patch(id string, p model.Patch) *Effect {
	return e.track(&Effect{e: e, id: id, patch: &p})
}

// Arrange keeps the rendered buffer in the order of tasks. Tasks that are not
// on the page are skipped.
func (e *Engine) Arrange(tasks []model.Task) *Effect {
	order := make([]string, len(tasks))
	for i, t := range tasks {
		order[i] = t.ID
	}
	return e.track(&Effect{e: e, order: order})
}

func (e *Engine) track(f *Effect) *Effect {
	e.effects = append(e.effects, f)
	f.apply()
	return f
}

// Commit marks the change as accepted by the backend.
func (f *Effect) Commit() {
	if f.committed {
		return
	}
	f.committed = true
	f.at = f.e.gen
}

// Discard stops re-applying the change. It does not touch the page; the
// caller restores its snapshot afterwards.
func (f *Effect) Discard() {
	effects := f.e.effects[:0]
	for _, g := range f.e.effects {
		if g != f {
			effects = append(effects, g)
		}
	}
	f.e.effects = effects
}

func (f *Effect) apply() {
	e := f.e
	switch {
	case len(f.hide) > 0:
		e.RemoveIDs(f.hide...)
	case f.patch != nil:
		if cur, ok := e.Task(f.id); ok {
			e.ReplaceTask(f.patch.Apply(cur))
		}
	case len(f.order) > 0:
		arrange(e.view.Buffer, f.order)
	}
}

// reapply runs every tracked effect, oldest first, over the current page.
// Committed effects older than the fetch generation gen are dropped first.
func (e *Engine) reapply(gen uint64) {
	effects := e.effects[:0]
	for _, f := range e.effects {
		if f.committed && gen > f.at {
			continue
		}
		effects = append(effects, f)
	}
	e.effects = effects
	for _, f := range e.effects {
		f.apply()
	}
}

// arrange puts the tasks named in order into the slots they occupy in buf,
// following order.
func arrange(buf []model.Task, order []string) {
	want := make(map[string]bool, len(order))
	for _, id := range order {
		want[id] = true
	}
	byID := make(map[string]model.Task, len(order))
	var slots []int
	for i, t := range buf {
		if want[t.ID] {
			slots = append(slots, i)
			byID[t.ID] = t
		}
	}
	j := 0
	for _, id := range order {
		if t, ok := byID[id]; ok {
			buf[slots[j]] = t
			j++
		}
	}
}
