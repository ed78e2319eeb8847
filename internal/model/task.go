package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTextLen is the maximum task text length, in characters.
const MaxTextLen = 120

// DateLayout is the wire format for due dates (calendar date, no time).
const DateLayout = "2006-01-02"

var (
	ErrEmptyText       = errors.New("task text cannot be empty")
	ErrTextTooLong     = errors.New("task text cannot exceed 120 characters")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidFilter   = errors.New("invalid filter")
	ErrInvalidDate     = errors.New("invalid due date (want YYYY-MM-DD)")
	ErrDateInPast      = errors.New("due date cannot be in the past")
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists statuses in the order the status selector cycles through them.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// Next returns the status after s in selector order, wrapping around.
func (s Status) Next() Status {
	for i, st := range Statuses {
		if st == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return StatusTodo
}

// Label renders "in-progress" as "IN PROGRESS".
func (s Status) Label() string {
	return strings.ToUpper(strings.ReplaceAll(string(s), "-", " "))
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func (p Priority) Next() Priority {
	for i, pr := range Priorities {
		if pr == p {
			return Priorities[(i+1)%len(Priorities)]
		}
	}
	return PriorityMedium
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrInvalidPriority
	}
	return p, nil
}

type Task struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	DueDate  string   `json:"dueDate,omitempty"` // YYYY-MM-DD
	Priority Priority `json:"priority"`
	Status   Status   `json:"status"`
	Order    *float64 `json:"order,omitempty"`
}

// UnmarshalJSON accepts numeric ids as well as strings; json-server style
// backends hand out integers.
func (t *Task) UnmarshalJSON(b []byte) error {
	type wireTask Task
	aux := struct {
		ID json.RawMessage `json:"id"`
		*wireTask
	}{wireTask: (*wireTask)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	id, err := parseID(aux.ID)
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

func parseID(raw json.RawMessage) (string, error) {
	raw = json.RawMessage(strings.TrimSpace(string(raw)))
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", errors.New("task id must be a string or number")
	}
	return n.String(), nil
}

// HasOrder reports whether the task carries a manual sort key.
func (t Task) HasOrder() bool { return t.Order != nil }

// OrderValue returns the sort key, or 0 when unset.
func (t Task) OrderValue() float64 {
	if t.Order == nil {
		return 0
	}
	return *t.Order
}

// Due parses DueDate. ok is false when the task is not scheduled or the date is malformed.
func (t Task) Due() (time.Time, bool) {
	if strings.TrimSpace(t.DueDate) == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(t.DueDate), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Overdue reports whether the due date lies before the day of now and the task is not done.
func (t Task) Overdue(now time.Time) bool {
	if t.Status == StatusDone {
		return false
	}
	d, ok := t.Due()
	if !ok {
		return false
	}
	return d.Before(startOfDay(now))
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	if t.Order != nil {
		o := *t.Order
		t.Order = &o
	}
	return t
}

func CloneTasks(in []Task) []Task {
	if in == nil {
		return nil
	}
	out := make([]Task, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func Float(v float64) *float64 { return &v }

// NormalizeText trims and validates task text.
func NormalizeText(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyText
	}
	if utf8.RuneCountInString(s) > MaxTextLen {
		return "", ErrTextTooLong
	}
	return s, nil
}

// ParseDueDate validates a YYYY-MM-DD date. Empty input is allowed (unscheduled).
func ParseDueDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", ErrInvalidDate
	}
	return s, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
