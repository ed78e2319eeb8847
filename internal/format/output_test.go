package format

import (
	"bytes"
	"strings"
	"testing"
)

type rows struct{}

func (rows) Header() []string { return []string{"ID", "TEXT"} }
func (rows) Rows() [][]string { return [][]string{{"t1", "Buy milk"}} }

func TestWrite_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": []int{1}}, "", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"data":[1]}` {
		t.Fatalf("got %q", got)
	}
}

func TestWrite_Table(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, rows{}, "table", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ID", "TEXT", "t1", "Buy milk"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestWrite_TableFallsBackToJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, map[string]int{"n": 1}, "table", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"n":1}` {
		t.Fatalf("got %q", got)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	t.Parallel()

	if err := Write(&bytes.Buffer{}, 1, "edn", false); err == nil {
		t.Fatalf("expected error")
	}
}
