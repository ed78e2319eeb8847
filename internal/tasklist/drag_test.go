package tasklist

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestDrag_SpliceMoveNotSwap(t *testing.T) {
	t.Parallel()

	e, _ := newEngine(t, 4)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	d, err := e.StartDrag("t4")
	if err != nil {
		t.Fatalf("StartDrag: %v", err)
	}
	d.Over(1)
	if want := []string{"t1", "t4", "t2", "t3"}; !reflect.DeepEqual(ids(e.Tasks()), want) {
		t.Fatalf("buffer=%v want %v", ids(e.Tasks()), want)
	}
	if d.Index() != 1 {
		t.Fatalf("expected index 1, got %d", d.Index())
	}

	r, changed := d.Drop()
	if !changed {
		t.Fatalf("expected a change")
	}
	if want := []string{"t1", "t2", "t3", "t4"}; !reflect.DeepEqual(ids(r.Original), want) {
		t.Fatalf("original=%v want %v", ids(r.Original), want)
	}
	if want := []string{"t1", "t4", "t2", "t3"}; !reflect.DeepEqual(ids(r.Reordered), want) {
		t.Fatalf("reordered=%v want %v", ids(r.Reordered), want)
	}
	if e.Dragging() != nil {
		t.Fatalf("drag must end on drop")
	}
	// The buffer stays as the rendered order after the drop.
	if want := []string{"t1", "t4", "t2", "t3"}; !reflect.DeepEqual(ids(e.Tasks()), want) {
		t.Fatalf("buffer=%v want %v", ids(e.Tasks()), want)
	}
}

func TestDrag_NoOpDropOnOwnPosition(t *testing.T) {
	t.Parallel()

	e, fake := newEngine(t, 3)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	fake.ResetCalls()

	d, err := e.StartDrag("t2")
	if err != nil {
		t.Fatalf("StartDrag: %v", err)
	}
	d.Over(0)
	d.Over(1)
	if _, changed := d.Drop(); changed {
		t.Fatalf("dropping on the original position must be a no-op")
	}
	if want := []string{"t1", "t2", "t3"}; !reflect.DeepEqual(ids(e.Tasks()), want) {
		t.Fatalf("buffer=%v want %v", ids(e.Tasks()), want)
	}
	if len(fake.Calls) != 0 {
		t.Fatalf("expected no network calls, got %v", fake.Calls)
	}
}

func TestDrag_OutOfRangeTargetIgnoredAndCancelRestores(t *testing.T) {
	t.Parallel()

	e, _ := newEngine(t, 3)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	d, err := e.StartDrag("t1")
	if err != nil {
		t.Fatalf("StartDrag: %v", err)
	}
	d.Over(-1)
	d.Over(3)
	if d.Index() != 0 {
		t.Fatalf("out of range targets must be ignored, index=%d", d.Index())
	}
	d.Over(2)
	d.Cancel()
	if want := []string{"t1", "t2", "t3"}; !reflect.DeepEqual(ids(e.Tasks()), want) {
		t.Fatalf("buffer=%v want %v", ids(e.Tasks()), want)
	}
	if _, changed := d.Drop(); changed {
		t.Fatalf("cancelled drag cannot be dropped")
	}
}

func TestDrag_RequiresReady(t *testing.T) {
	t.Parallel()

	e, _ := newEngine(t, 3)
	if _, err := e.StartDrag("t1"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := e.StartDrag("t9"); err == nil {
		t.Fatalf("expected error for task off the page")
	}
}

func TestDrag_FetchDiscardsBuffer(t *testing.T) {
	t.Parallel()

	e, _ := newEngine(t, 3)
	ctx := context.Background()
	if err := e.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	d, _ := e.StartDrag("t3")
	d.Over(0)
	if err := e.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e.Dragging() != nil {
		t.Fatalf("a fetch replaces the buffer and ends the drag")
	}
	if want := []string{"t1", "t2", "t3"}; !reflect.DeepEqual(ids(e.Tasks()), want) {
		t.Fatalf("buffer=%v want %v", ids(e.Tasks()), want)
	}
}
