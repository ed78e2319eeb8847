package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Draft is a task that has not been created yet. The backend assigns ID and
// Status; Order is filled in by the client right before the write.
type Draft struct {
	Text     string   `json:"text"`
	DueDate  string   `json:"dueDate,omitempty"`
	Priority Priority `json:"priority"`
}

// Validate normalizes the draft in place. Due dates may not be in the past
// relative to now.
func (d *Draft) Validate(now time.Time) error {
	text, err := NormalizeText(d.Text)
	if err != nil {
		return err
	}
	d.Text = text
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if !d.Priority.Valid() {
		return ErrInvalidPriority
	}
	due, err := ParseDueDate(d.DueDate)
	if err != nil {
		return err
	}
	d.DueDate = due
	if due != "" {
		if t, ok := (Task{DueDate: due}).Due(); ok && t.Before(startOfDay(now)) {
			return ErrDateInPast
		}
	}
	return nil
}

// Patch is a partial update. Nil fields are left untouched; ClearDueDate sends
// an explicit null for dueDate.
type Patch struct {
	Text         *string
	DueDate      *string
	ClearDueDate bool
	Priority     *Priority
	Status       *Status
	Order        *float64
}

func (p Patch) Empty() bool {
	return p.Text == nil && p.DueDate == nil && !p.ClearDueDate && p.Priority == nil && p.Status == nil && p.Order == nil
}

func (p Patch) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	if p.Text != nil {
		m["text"] = *p.Text
	}
	if p.ClearDueDate {
		m["dueDate"] = nil
	} else if p.DueDate != nil {
		m["dueDate"] = *p.DueDate
	}
	if p.Priority != nil {
		m["priority"] = *p.Priority
	}
	if p.Status != nil {
		m["status"] = *p.Status
	}
	if p.Order != nil {
		m["order"] = *p.Order
	}
	return json.Marshal(m)
}

// Validate normalizes text and checks enums.
func (p *Patch) Validate() error {
	if p.Text != nil {
		text, err := NormalizeText(*p.Text)
		if err != nil {
			return err
		}
		p.Text = &text
	}
	if p.DueDate != nil {
		due, err := ParseDueDate(*p.DueDate)
		if err != nil {
			return err
		}
		if due == "" {
			p.DueDate = nil
			p.ClearDueDate = true
		} else {
			p.DueDate = &due
		}
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return ErrInvalidPriority
	}
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Apply returns t with the patch applied.
func (p Patch) Apply(t Task) Task {
	t = t.Clone()
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.ClearDueDate {
		t.DueDate = ""
	} else if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Order != nil {
		t.Order = Float(*p.Order)
	}
	return t
}

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterActive, FilterCompleted:
		return true
	default:
		return false
	}
}

func (f Filter) Next() Filter {
	for i, x := range Filters {
		if x == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

func ParseFilter(s string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FilterAll, nil
	}
	if !f.Valid() {
		return "", ErrInvalidFilter
	}
	return f, nil
}

// Match is the filter predicate over status.
func (f Filter) Match(s Status) bool {
	switch f {
	case FilterActive:
		return s != StatusDone
	case FilterCompleted:
		return s == StatusDone
	default:
		return true
	}
}

// EmptyMessage is shown when a page under this filter has no tasks.
func (f Filter) EmptyMessage() string {
	switch f {
	case FilterActive:
		return "No active tasks."
	case FilterCompleted:
		return "No completed tasks."
	default:
		return "No tasks yet. Add one to get started!"
	}
}
