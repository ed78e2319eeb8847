// Package apitest provides an in-memory stand-in for api.Client.
package apitest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"taskdeck/internal/api"
	"taskdeck/internal/model"
)

type record struct {
	task model.Task
	seq  int
}

// Fake implements the api.Client method set over an in-memory list. Failures
// can be injected per operation and per id. It is safe for concurrent use.
type Fake struct {
	mu      sync.Mutex
	records []record
	nextSeq int

	// ListErr, when set, is returned by List.
	ListErr error
	// CreateErr, when set, is returned by Create.
	CreateErr error
	// UpdateErr and DeleteErr map task ids to injected failures.
	UpdateErr map[string]error
	DeleteErr map[string]error

	// Calls records every call as "op" or "op:id".
	Calls []string
}

func NewFake() *Fake {
	return &Fake{UpdateErr: map[string]error{}, DeleteErr: map[string]error{}}
}

// Seed creates t1..tN ("Task 1".."Task N") with order keys 1..N, so list
// order matches creation order.
func (f *Fake) Seed(n int) []model.Task {
	out := make([]model.Task, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, f.Put(model.Task{
			ID:       fmt.Sprintf("t%d", i),
			Text:     fmt.Sprintf("Task %d", i),
			Priority: model.PriorityMedium,
			Status:   model.StatusTodo,
			Order:    model.Float(float64(i)),
		}))
	}
	return out
}

// Put inserts or replaces a task verbatim.
func (f *Fake) Put(t model.Task) model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].task.ID == t.ID {
			f.records[i].task = t.Clone()
			return t
		}
	}
	f.nextSeq++
	f.records = append(f.records, record{task: t.Clone(), seq: f.nextSeq})
	return t
}

// All returns every task in list order.
func (f *Fake) All() []model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedLocked(model.FilterAll)
}

func (f *Fake) Has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexLocked(id) >= 0
}

func (f *Fake) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == op || (len(c) > len(op) && c[:len(op)+1] == op+":") {
			n++
		}
	}
	return n
}

func (f *Fake) ResetCalls() {
	f.mu.Lock()
	f.Calls = nil
	f.mu.Unlock()
}

func (f *Fake) List(ctx context.Context, q api.Query) (api.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "list")
	if err := ctx.Err(); err != nil {
		return api.Page{}, api.TransportError{Op: "list", Err: err}
	}
	if f.ListErr != nil {
		return api.Page{}, f.ListErr
	}
	all := f.sortedLocked(q.Filter)
	size := q.PageSize
	if size < 1 {
		size = api.DefaultPageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	end := start + size
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	return api.Page{Tasks: model.CloneTasks(all[start:end]), TotalCount: len(all)}, nil
}

func (f *Fake) Get(_ context.Context, id string) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "get:"+id)
	i := f.indexLocked(id)
	if i < 0 {
		return model.Task{}, api.NotFoundError{Kind: "task", ID: id}
	}
	return f.records[i].task.Clone(), nil
}

func (f *Fake) Create(_ context.Context, d model.Draft) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "create")
	if f.CreateErr != nil {
		return model.Task{}, f.CreateErr
	}
	order := 0.0
	for i, r := range f.records {
		if i == 0 || r.task.OrderValue()-1 < order {
			order = r.task.OrderValue() - 1
		}
	}
	f.nextSeq++
	t := model.Task{
		ID:       fmt.Sprintf("t%d", f.nextSeq),
		Text:     d.Text,
		DueDate:  d.DueDate,
		Priority: d.Priority,
		Status:   model.StatusTodo,
		Order:    model.Float(order),
	}
	for f.indexLocked(t.ID) >= 0 {
		f.nextSeq++
		t.ID = fmt.Sprintf("t%d", f.nextSeq)
	}
	f.records = append(f.records, record{task: t, seq: f.nextSeq})
	return t.Clone(), nil
}

func (f *Fake) Update(_ context.Context, id string, p model.Patch) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "update:"+id)
	if err := f.UpdateErr[id]; err != nil {
		return model.Task{}, err
	}
	i := f.indexLocked(id)
	if i < 0 {
		return model.Task{}, api.NotFoundError{Kind: "task", ID: id}
	}
	f.records[i].task = p.Apply(f.records[i].task)
	return f.records[i].task.Clone(), nil
}

func (f *Fake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteLocked(id)
}

func (f *Fake) deleteLocked(id string) error {
	f.Calls = append(f.Calls, "delete:"+id)
	if err := f.DeleteErr[id]; err != nil {
		return err
	}
	i := f.indexLocked(id)
	if i < 0 {
		return api.NotFoundError{Kind: "task", ID: id}
	}
	f.records = append(f.records[:i], f.records[i+1:]...)
	return nil
}

// BulkDelete mirrors api.Client.BulkDelete: every id is attempted, missing
// ids count as deleted, failures are reported per id.
func (f *Fake) BulkDelete(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := &api.BulkDeleteError{Failed: map[string]error{}}
	for _, id := range ids {
		err := f.deleteLocked(id)
		var nf api.NotFoundError
		if errors.As(err, &nf) {
			err = nil
		}
		if err != nil {
			res.Failed[id] = err
			continue
		}
		res.Deleted = append(res.Deleted, id)
	}
	if len(res.Failed) == 0 {
		return nil
	}
	return res
}

func (f *Fake) Reorder(ctx context.Context, reordered, original []model.Task) error {
	plan, err := api.PlanReorder(reordered, original)
	if err != nil {
		return err
	}
	for _, a := range plan {
		if _, err := f.Update(ctx, a.ID, model.Patch{Order: model.Float(a.Order)}); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fake) indexLocked(id string) int {
	for i := range f.records {
		if f.records[i].task.ID == id {
			return i
		}
	}
	return -1
}

func (f *Fake) sortedLocked(filter model.Filter) []model.Task {
	recs := make([]record, 0, len(f.records))
	for _, r := range f.records {
		if filter.Match(r.task.Status) {
			recs = append(recs, r)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		oi, oj := recs[i].task.OrderValue(), recs[j].task.OrderValue()
		if oi != oj {
			return oi < oj
		}
		return recs[i].seq > recs[j].seq
	})
	out := make([]model.Task, len(recs))
	for i, r := range recs {
		out[i] = r.task.Clone()
	}
	return out
}
