package tasklist

import (
	"fmt"

	"taskdeck/internal/model"
)

// Drag is an in-progress manual reorder of the current page. Only the
// rendered buffer moves; the fetched page stays as it was.
type Drag struct {
	e      *Engine
	id     string
	index  int
	before View
}

// Reorder is a completed drag ready to be persisted. Before is the view to
// restore if persisting fails.
type Reorder struct {
	Reordered []model.Task
	Original  []model.Task
	Before    View
}

// StartDrag grabs the task with id. Only one drag can be active.
func (e *Engine) StartDrag(id string) (*Drag, error) {
	if e.phase != PhaseReady {
		return nil, ErrNotReady
	}
	for i, t := range e.view.Buffer {
		if t.ID == id {
			e.drag = &Drag{e: e, id: id, index: i, before: e.Snapshot()}
			return e.drag, nil
		}
	}
	return nil, fmt.Errorf("drag: task %s is not on this page", id)
}

// Dragging returns the active drag, or nil.
func (e *Engine) Dragging() *Drag { return e.drag }

func (d *Drag) TaskID() string { return d.id }

// Index is the dragged task's current position in the buffer.
func (d *Drag) Index() int { return d.index }

// Over moves the dragged task to target with a splice-move: the task is
// taken out and reinserted, shifting the ones in between. Targets outside the
// page are ignored.
func (d *Drag) Over(target int) {
	if !d.active() {
		return
	}
	buf := d.e.view.Buffer
	if target < 0 || target >= len(buf) || target == d.index {
		return
	}
	moved := buf[d.index]
	buf = append(buf[:d.index], buf[d.index+1:]...)
	buf = append(buf[:target], append([]model.Task{moved}, buf[target:]...)...)
	d.e.view.Buffer = buf
	d.index = target
}

// Cancel puts the buffer back the way it was before the drag.
func (d *Drag) Cancel() {
	if !d.active() {
		return
	}
	d.e.view.Buffer = model.CloneTasks(d.before.Buffer)
	d.e.drag = nil
}

// Drop ends the drag. changed is false when the order is the same as before
// the drag; nothing needs persisting then. Otherwise the buffer stays as the
// rendered order until the next fetch replaces it.
func (d *Drag) Drop() (r Reorder, changed bool) {
	if !d.active() {
		return Reorder{}, false
	}
	d.e.drag = nil
	if sameOrder(d.e.view.Buffer, d.before.Buffer) {
		return Reorder{}, false
	}
	return Reorder{
		Reordered: model.CloneTasks(d.e.view.Buffer),
		Original:  model.CloneTasks(d.before.Buffer),
		Before:    d.before.clone(),
	}, true
}

func (d *Drag) active() bool { return d.e.drag == d }

func sameOrder(a, b []model.Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
