package mutate

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"taskdeck/internal/api"
	"taskdeck/internal/api/apitest"
	"taskdeck/internal/model"
	"taskdeck/internal/session"
	"taskdeck/internal/tasklist"
)

type fixture struct {
	fake  *apitest.Fake
	state *session.State
	list  *tasklist.Engine
	orch  *Orchestrator
	logs  *bytes.Buffer
}

func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	fake := apitest.NewFake()
	fake.Seed(n)
	state := session.New(model.FilterAll, 6, nil)
	list := tasklist.New(fake, state)
	logs := &bytes.Buffer{}
	orch := New(fake, list, state, slog.New(slog.NewTextHandler(logs, nil)))
	if err := list.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	fake.ResetCalls()
	return &fixture{fake: fake, state: state, list: list, orch: orch, logs: logs}
}

func ids(ts []model.Task) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func TestCreate_RoundTripShowsNewTaskFirst(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 3)
	ctx := context.Background()

	op, err := f.orch.Create(model.Draft{Text: "  Buy milk ", Priority: model.PriorityMedium})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !f.list.Saving() {
		t.Fatalf("expected saving while the create is in flight")
	}
	if err := f.orch.Do(ctx, op); err != nil {
		t.Fatalf("Do: %v", err)
	}

	first := f.list.Tasks()[0]
	if first.Text != "Buy milk" || first.Status != model.StatusTodo {
		t.Fatalf("unexpected first task: %+v", first)
	}
	for _, other := range f.list.Tasks()[1:] {
		if first.OrderValue() >= other.OrderValue() {
			t.Fatalf("new order %v not below %v", first.OrderValue(), other.OrderValue())
		}
	}
	if f.list.Saving() || f.list.Phase() != tasklist.PhaseReady {
		t.Fatalf("expected ready after settle, got %v", f.list.Phase())
	}
}

func TestCreate_InvalidDraftMakesNoCall(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	if _, err := f.orch.Create(model.Draft{Text: "   "}); !errors.Is(err, model.ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if _, err := f.orch.Create(model.Draft{Text: strings.Repeat("x", 121)}); !errors.Is(err, model.ErrTextTooLong) {
		t.Fatalf("expected ErrTextTooLong, got %v", err)
	}
	if len(f.fake.Calls) != 0 || f.list.Saving() {
		t.Fatalf("expected no calls, got %v", f.fake.Calls)
	}
}

func TestSaveEdit_EmptyTextKeepsBufferOpen(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 2)
	tk, _ := f.list.Task("t1")
	f.state.BeginEdit(tk)
	f.state.SetEditText("   \t ")

	op, err := f.orch.SaveEdit()
	if !errors.Is(err, model.ErrEmptyText) || op != nil {
		t.Fatalf("expected ErrEmptyText and no op, got %v %v", op, err)
	}
	if buf, ok := f.state.Edit(); !ok || buf.TaskID != "t1" {
		t.Fatalf("edit buffer must stay open")
	}
	if f.fake.CallCount("update") != 0 {
		t.Fatalf("no update call expected")
	}
}

func TestSaveEdit_UnchangedTextJustCloses(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 2)
	tk, _ := f.list.Task("t1")
	f.state.BeginEdit(tk)
	f.state.SetEditText(" " + tk.Text + " ")

	op, err := f.orch.SaveEdit()
	if err != nil || op != nil {
		t.Fatalf("expected nothing to save, got %v %v", op, err)
	}
	if _, ok := f.state.Edit(); ok {
		t.Fatalf("editor should close")
	}
	if len(f.fake.Calls) != 0 {
		t.Fatalf("expected no calls, got %v", f.fake.Calls)
	}
}

func TestSaveEdit_FailureRollsBackAndDiscardsBuffer(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 2)
	tk, _ := f.list.Task("t1")
	f.state.BeginEdit(tk)
	f.state.SetEditText("Renamed")
	f.fake.UpdateErr["t1"] = api.ServerError{Status: 500, Message: "boom"}

	op, err := f.orch.SaveEdit()
	if err != nil {
		t.Fatalf("SaveEdit: %v", err)
	}
	if got, _ := f.list.Task("t1"); got.Text != "Renamed" {
		t.Fatalf("expected optimistic text, got %q", got.Text)
	}
	if _, ok := f.state.Edit(); ok {
		t.Fatalf("buffer closes once the request is sent")
	}

	err = op.Settle(op.Run(context.Background()))
	var se api.ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if got, _ := f.list.Task("t1"); got.Text != tk.Text {
		t.Fatalf("expected rollback to %q, got %q", tk.Text, got.Text)
	}
	if _, ok := f.state.Edit(); ok {
		t.Fatalf("buffer is not restored after failure")
	}
	if !strings.Contains(f.logs.String(), "update failed") {
		t.Fatalf("expected failure to be logged, got %q", f.logs.String())
	}
}

func TestSetStatus_Optimistic(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 2)
	op, err := f.orch.SetStatus("t2", model.StatusInProgress)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got, _ := f.list.Task("t2"); got.Status != model.StatusInProgress {
		t.Fatalf("expected optimistic status, got %s", got.Status)
	}
	if err := f.orch.Do(context.Background(), op); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got, _ := f.list.Task("t2"); got.Status != model.StatusInProgress {
		t.Fatalf("expected persisted status, got %s", got.Status)
	}

	if _, err := f.orch.SetStatus("t2", "blocked"); !errors.Is(err, model.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestDelete_RemovesFromListAndSelection(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 3)
	f.state.Select("t2")
	op, err := f.orch.Delete("t2")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if f.state.IsSelected("t2") {
		t.Fatalf("deleted id must leave the selection at once")
	}
	if err := f.orch.Do(context.Background(), op); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if want := []string{"t1", "t3"}; !reflect.DeepEqual(ids(f.list.Tasks()), want) {
		t.Fatalf("tasks=%v want %v", ids(f.list.Tasks()), want)
	}
}

func TestDelete_FailureRestoresSnapshotVerbatim(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 3)
	before := f.list.Snapshot()
	f.fake.DeleteErr["t2"] = api.TransportError{Op: "delete", Err: errors.New("connection reset")}

	op, _ := f.orch.Delete("t2")
	err := op.Settle(op.Run(context.Background()))
	if err == nil {
		t.Fatalf("expected failure")
	}
	if !reflect.DeepEqual(f.list.Snapshot(), before) {
		t.Fatalf("snapshot not restored verbatim")
	}
}

func TestDelete_NotFoundCountsAsSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 3)
	if err := f.fake.Delete(context.Background(), "t2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	op, _ := f.orch.Delete("t2")
	if err := f.orch.Do(context.Background(), op); err != nil {
		t.Fatalf("expected success for a vanished task, got %v", err)
	}
	if f.fake.CallCount("list") != 1 {
		t.Fatalf("expected a refetch after settling")
	}
	if want := []string{"t1", "t3"}; !reflect.DeepEqual(ids(f.list.Tasks()), want) {
		t.Fatalf("tasks=%v want %v", ids(f.list.Tasks()), want)
	}
}

func TestDelete_LastOnPageStepsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 7)
	ctx := context.Background()
	f.state.SetPage(2)
	if err := f.list.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	f.fake.ResetCalls()

	op, _ := f.orch.Delete("t7")
	if err := f.orch.Do(ctx, op); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if f.state.Page() != 1 {
		t.Fatalf("expected page 1, got %d", f.state.Page())
	}
	if want := []string{"t1", "t2", "t3", "t4", "t5", "t6"}; !reflect.DeepEqual(ids(f.list.Tasks()), want) {
		t.Fatalf("tasks=%v want %v", ids(f.list.Tasks()), want)
	}
	if got := f.fake.CallCount("list"); got != 2 {
		t.Fatalf("expected 2 list calls, got %d", got)
	}
}

func TestBulkDelete_PartialFailureRollsBackAllAndClearsSelection(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 3)
	ctx := context.Background()
	f.state.Select("t1")
	f.state.Select("t2")
	f.fake.DeleteErr["t2"] = api.ServerError{Status: 500, Message: "boom"}

	op, err := f.orch.BulkDelete()
	if err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}
	if want := []string{"t3"}; !reflect.DeepEqual(ids(f.list.Tasks()), want) {
		t.Fatalf("optimistic tasks=%v want %v", ids(f.list.Tasks()), want)
	}
	if f.state.SelectionLen() != 0 {
		t.Fatalf("selection clears with the optimistic removal")
	}

	err = op.Settle(op.Run(ctx))
	var be *api.BulkDeleteError
	if !errors.As(err, &be) {
		t.Fatalf("expected BulkDeleteError, got %v", err)
	}
	if !reflect.DeepEqual(be.FailedIDs(), []string{"t2"}) || !reflect.DeepEqual(be.Deleted, []string{"t1"}) {
		t.Fatalf("unexpected outcome: failed=%v deleted=%v", be.FailedIDs(), be.Deleted)
	}
	if want := []string{"t1", "t2", "t3"}; !reflect.DeepEqual(ids(f.list.Tasks()), want) {
		t.Fatalf("rolled back tasks=%v want %v", ids(f.list.Tasks()), want)
	}
	if f.state.SelectionLen() != 0 {
		t.Fatalf("selection is not restored on failure")
	}

	if err := f.list.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := []string{"t2", "t3"}; !reflect.DeepEqual(ids(f.list.Tasks()), want) {
		t.Fatalf("refetched tasks=%v want %v", ids(f.list.Tasks()), want)
	}
	if !strings.Contains(f.logs.String(), "bulk delete failed") {
		t.Fatalf("expected failure to be logged, got %q", f.logs.String())
	}
}

func TestBulkDelete_NothingSelected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 2)
	if _, err := f.orch.BulkDelete(); !errors.Is(err, ErrNothingSelected) {
		t.Fatalf("expected ErrNothingSelected, got %v", err)
	}
}

func TestReorder_IndexTwoToZero(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 3)
	ctx := context.Background()
	original := f.list.Tasks()
	lowest := original[0].OrderValue()

	d, err := f.list.StartDrag("t3")
	if err != nil {
		t.Fatalf("StartDrag: %v", err)
	}
	d.Over(0)
	r, changed := d.Drop()
	if !changed {
		t.Fatalf("expected a change")
	}
	op, err := f.orch.Reorder(r)
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if !f.list.Saving() {
		t.Fatalf("expected saving indicator while reorder is pending")
	}
	if err := f.orch.Do(ctx, op); err != nil {
		t.Fatalf("Do: %v", err)
	}

	got := f.list.Tasks()
	if want := []string{"t3", "t1", "t2"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("tasks=%v want %v", ids(got), want)
	}
	if got[0].OrderValue() != lowest {
		t.Fatalf("moved task should take the smallest order %v, got %v", lowest, got[0].OrderValue())
	}
	if !(got[1].OrderValue() < got[2].OrderValue()) {
		t.Fatalf("others keep relative order")
	}
}

func TestReorder_FailureRestoresPreDragOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 3)
	f.fake.UpdateErr["t3"] = api.ServerError{Status: 500, Message: "boom"}

	d, _ := f.list.StartDrag("t3")
	d.Over(0)
	r, _ := d.Drop()
	op, err := f.orch.Reorder(r)
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if err := op.Settle(op.Run(context.Background())); err == nil {
		t.Fatalf("expected failure")
	}
	if want := []string{"t1", "t2", "t3"}; !reflect.DeepEqual(ids(f.list.Tasks()), want) {
		t.Fatalf("tasks=%v want %v", ids(f.list.Tasks()), want)
	}
	if f.list.Saving() {
		t.Fatalf("saving indicator must clear after settle")
	}
}

func TestMutation_AbandonsEarlierFetch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 3)
	ctx := context.Background()

	early := f.list.BeginFetch(ctx).Run()
	del, err := f.orch.Delete("t2")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	f.list.ApplyFetch(early)
	if want := []string{"t1", "t3"}; !reflect.DeepEqual(ids(f.list.Tasks()), want) {
		t.Fatalf("optimistic delete overwritten: tasks=%v", ids(f.list.Tasks()))
	}

	early = f.list.BeginFetch(ctx).Run()
	st, err := f.orch.SetStatus("t1", model.StatusDone)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	f.list.ApplyFetch(early)
	if got, _ := f.list.Task("t1"); got.Status != model.StatusDone {
		t.Fatalf("optimistic status overwritten: %s", got.Status)
	}

	if err := f.orch.Do(ctx, del); err != nil {
		t.Fatalf("Do delete: %v", err)
	}
	if err := f.orch.Do(ctx, st); err != nil {
		t.Fatalf("Do status: %v", err)
	}
	if want := []string{"t1", "t3"}; !reflect.DeepEqual(ids(f.list.Tasks()), want) {
		t.Fatalf("tasks=%v want %v", ids(f.list.Tasks()), want)
	}
	if got, _ := f.list.Task("t1"); got.Status != model.StatusDone {
		t.Fatalf("expected persisted status, got %s", got.Status)
	}
}

func TestDelete_FailureKeepsOverlappingDelete(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 3)
	ctx := context.Background()
	f.fake.DeleteErr["t1"] = api.ServerError{Status: 500, Message: "boom"}

	first, _ := f.orch.Delete("t1")
	second, _ := f.orch.Delete("t2")
	if err := second.Settle(second.Run(ctx)); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if err := first.Settle(first.Run(ctx)); err == nil {
		t.Fatalf("expected first delete to fail")
	}
	if want := []string{"t1", "t3"}; !reflect.DeepEqual(ids(f.list.Tasks()), want) {
		t.Fatalf("tasks=%v want %v", ids(f.list.Tasks()), want)
	}
	if f.list.Saving() {
		t.Fatalf("saving indicator must clear after both settle")
	}

	if err := f.list.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := []string{"t1", "t3"}; !reflect.DeepEqual(ids(f.list.Tasks()), want) {
		t.Fatalf("refetched tasks=%v want %v", ids(f.list.Tasks()), want)
	}
}

func TestDelete_FailureKeepsLaterPendingUpdate(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 3)
	ctx := context.Background()
	f.fake.DeleteErr["t1"] = api.ServerError{Status: 500, Message: "boom"}

	del, _ := f.orch.Delete("t1")
	st, _ := f.orch.SetStatus("t3", model.StatusInProgress)
	if err := del.Settle(del.Run(ctx)); err == nil {
		t.Fatalf("expected delete to fail")
	}
	if want := []string{"t1", "t2", "t3"}; !reflect.DeepEqual(ids(f.list.Tasks()), want) {
		t.Fatalf("tasks=%v want %v", ids(f.list.Tasks()), want)
	}
	if got, _ := f.list.Task("t3"); got.Status != model.StatusInProgress {
		t.Fatalf("pending status change was rolled back with the delete: %s", got.Status)
	}
	if !f.list.Saving() {
		t.Fatalf("status change is still pending")
	}

	if err := f.orch.Do(ctx, st); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got, _ := f.list.Task("t3"); got.Status != model.StatusInProgress {
		t.Fatalf("expected persisted status, got %s", got.Status)
	}
}

func TestDelete_PendingHidesTaskFromRefetch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 3)
	ctx := context.Background()

	op, _ := f.orch.Delete("t2")
	f.list.ApplyFetch(f.list.BeginFetch(ctx).Run())
	if want := []string{"t1", "t3"}; !reflect.DeepEqual(ids(f.list.Tasks()), want) {
		t.Fatalf("pending delete reappeared: tasks=%v", ids(f.list.Tasks()))
	}
	if err := f.orch.Do(ctx, op); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if f.fake.Has("t2") {
		t.Fatalf("t2 should be deleted")
	}
}
