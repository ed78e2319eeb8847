package tui

import (
	"bytes"
	"strings"
	"testing"

	"taskdeck/internal/model"

	"github.com/charmbracelet/bubbles/list"
	xansi "github.com/charmbracelet/x/ansi"
)

func TestFitWidth(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"abc", 5, "abc  "},
		{"abcdef", 4, "abc…"},
		{"abc", 3, "abc"},
		{"abc", 0, ""},
	}
	for _, tc := range cases {
		if got := fitWidth(tc.in, tc.width); got != tc.want {
			t.Fatalf("fitWidth(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}

func TestTaskDelegate_RowFitsWidth(t *testing.T) {
	items := []list.Item{
		taskItem{task: model.Task{ID: "1", Text: strings.Repeat("long text ", 20), Status: model.StatusTodo, Priority: model.PriorityHigh, DueDate: "2000-01-01"}, overdue: true},
		taskItem{task: model.Task{ID: "2", Text: "short", Status: model.StatusDone, Priority: model.PriorityLow}, selected: true},
	}
	d := newTaskDelegate()
	l := list.New(items, d, 60, 5)

	for i, it := range items {
		var buf bytes.Buffer
		d.Render(&buf, l, i, it)
		if w := xansi.StringWidth(buf.String()); w != 60 {
			t.Fatalf("row %d: width %d, want 60: %q", i, w, buf.String())
		}
	}

	var buf bytes.Buffer
	d.Render(&buf, l, 0, items[0])
	if !strings.Contains(xansi.Strip(buf.String()), "due 2000-01-01 !") {
		t.Fatalf("expected overdue marker, got %q", xansi.Strip(buf.String()))
	}
}
