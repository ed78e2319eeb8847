package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestTask_UnmarshalJSON_AcceptsNumericID(t *testing.T) {
	t.Parallel()

	var got Task
	if err := json.Unmarshal([]byte(`{"id":7,"text":"Buy milk","priority":"medium","status":"todo","order":-3}`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != "7" {
		t.Fatalf("expected id %q; got %q", "7", got.ID)
	}
	if got.Text != "Buy milk" || got.Status != StatusTodo || got.OrderValue() != -3 {
		t.Fatalf("unexpected task: %#v", got)
	}

	var str Task
	if err := json.Unmarshal([]byte(`{"id":"abc","text":"x","priority":"low","status":"done"}`), &str); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if str.ID != "abc" || str.HasOrder() {
		t.Fatalf("unexpected task: %#v", str)
	}
}

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{in: "  Buy milk ", want: "Buy milk"},
		{in: "   ", wantErr: ErrEmptyText},
		{in: "", wantErr: ErrEmptyText},
		{in: strings.Repeat("é", MaxTextLen), want: strings.Repeat("é", MaxTextLen)},
		{in: strings.Repeat("a", MaxTextLen+1), wantErr: ErrTextTooLong},
	}
	for _, tt := range tests {
		got, err := NormalizeText(tt.in)
		if err != tt.wantErr {
			t.Fatalf("NormalizeText(%q) err = %v; want %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("NormalizeText(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestTask_Overdue(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.Local)
	if !(Task{DueDate: "2025-03-09", Status: StatusTodo}).Overdue(now) {
		t.Fatalf("expected yesterday to be overdue")
	}
	if (Task{DueDate: "2025-03-10", Status: StatusTodo}).Overdue(now) {
		t.Fatalf("today is not overdue")
	}
	if (Task{DueDate: "2025-03-09", Status: StatusDone}).Overdue(now) {
		t.Fatalf("done tasks are never overdue")
	}
	if (Task{Status: StatusTodo}).Overdue(now) {
		t.Fatalf("unscheduled tasks are never overdue")
	}
}

func TestFilter_Match(t *testing.T) {
	t.Parallel()

	for _, st := range Statuses {
		if !FilterAll.Match(st) {
			t.Fatalf("all should match %s", st)
		}
		if got, want := FilterActive.Match(st), st != StatusDone; got != want {
			t.Fatalf("active.Match(%s) = %v", st, got)
		}
		if got, want := FilterCompleted.Match(st), st == StatusDone; got != want {
			t.Fatalf("completed.Match(%s) = %v", st, got)
		}
	}
	if _, err := ParseFilter("nope"); err != ErrInvalidFilter {
		t.Fatalf("expected ErrInvalidFilter; got %v", err)
	}
	if f, err := ParseFilter(""); err != nil || f != FilterAll {
		t.Fatalf("empty filter should default to all; got %q %v", f, err)
	}
}

func TestPatch_MarshalJSON_OnlySetFields(t *testing.T) {
	t.Parallel()

	st := StatusDone
	b, err := json.Marshal(Patch{Status: &st})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"status":"done"}` {
		t.Fatalf("unexpected body: %s", b)
	}

	b, err = json.Marshal(Patch{ClearDueDate: true, Order: Float(2)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"dueDate":null,"order":2}` {
		t.Fatalf("unexpected body: %s", b)
	}
}

func TestDraft_Validate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)

	d := Draft{Text: "  Buy milk  "}
	if err := d.Validate(now); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if d.Text != "Buy milk" || d.Priority != PriorityMedium {
		t.Fatalf("unexpected normalized draft: %#v", d)
	}

	past := Draft{Text: "x", DueDate: "2025-03-09", Priority: PriorityLow}
	if err := past.Validate(now); err != ErrDateInPast {
		t.Fatalf("expected ErrDateInPast; got %v", err)
	}
	bad := Draft{Text: "x", DueDate: "03/09/2025"}
	if err := bad.Validate(now); err != ErrInvalidDate {
		t.Fatalf("expected ErrInvalidDate; got %v", err)
	}
}

func TestStatus_NextCycles(t *testing.T) {
	t.Parallel()

	if StatusTodo.Next() != StatusInProgress || StatusInProgress.Next() != StatusDone || StatusDone.Next() != StatusTodo {
		t.Fatalf("unexpected status cycle")
	}
	if StatusInProgress.Label() != "IN PROGRESS" {
		t.Fatalf("unexpected label %q", StatusInProgress.Label())
	}
}
