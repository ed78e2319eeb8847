// Package session holds client-only UI state: filter, page cursor, selection
// set and edit buffer. None of it is owned by the backend.
package session

import (
	"strings"

	"taskdeck/internal/api"
	"taskdeck/internal/model"
)

// FilterStore persists the last-used filter. It is the only state that
// survives a reload.
type FilterStore interface {
	SaveFilter(model.Filter) error
}

// EditBuffer is the in-progress text for the one task under edit.
type EditBuffer struct {
	TaskID string
	Text   string
}

// State is constructed once per UI session and passed to the list engine and
// the mutation orchestrator. It is not safe for concurrent use; the UI event
// loop owns it.
type State struct {
	filter   model.Filter
	page     int
	pageSize int

	selected map[string]struct{}
	order    []string // selection insertion order

	edit *EditBuffer

	store FilterStore
}

// New returns state on page 1. A zero pageSize uses api.DefaultPageSize; an
// invalid filter falls back to "all". store may be nil.
func New(filter model.Filter, pageSize int, store FilterStore) *State {
	if !filter.Valid() {
		filter = model.FilterAll
	}
	if pageSize < 1 {
		pageSize = api.DefaultPageSize
	}
	return &State{
		filter:   filter,
		page:     1,
		pageSize: pageSize,
		selected: map[string]struct{}{},
		store:    store,
	}
}

func (s *State) Filter() model.Filter { return s.filter }

// SetFilter changes the filter and persists it. The page cursor is left
// alone; callers decide whether a filter change also resets the page. The
// returned error comes from persistence only; the in-memory change always
// applies.
func (s *State) SetFilter(f model.Filter) error {
	if !f.Valid() {
		return model.ErrInvalidFilter
	}
	s.filter = f
	if s.store == nil {
		return nil
	}
	return s.store.SaveFilter(f)
}

func (s *State) Page() int     { return s.page }
func (s *State) PageSize() int { return s.pageSize }

// SetPage moves the cursor. Pages below 1 clamp to 1.
func (s *State) SetPage(p int) {
	if p < 1 {
		p = 1
	}
	s.page = p
}

// Query is the list request for the current cursor and filter.
func (s *State) Query() api.Query {
	return api.Query{Page: s.page, PageSize: s.pageSize, Filter: s.filter}
}

// PageCount returns ceil(total/pageSize), never less than 1.
func (s *State) PageCount(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + s.pageSize - 1) / s.pageSize
}

func (s *State) HasPrev() bool { return s.page > 1 }

func (s *State) HasNext(total int) bool { return s.page < s.PageCount(total) }

// Toggle flips id in the selection set and reports whether it is now selected.
func (s *State) Toggle(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	if _, ok := s.selected[id]; ok {
		s.remove(id)
		return false
	}
	s.Select(id)
	return true
}

func (s *State) Select(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	if _, ok := s.selected[id]; ok {
		return
	}
	s.selected[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *State) IsSelected(id string) bool {
	_, ok := s.selected[strings.TrimSpace(id)]
	return ok
}

// Selected returns the selected ids in the order they were selected.
func (s *State) Selected() []string {
	return append([]string(nil), s.order...)
}

func (s *State) SelectionLen() int { return len(s.order) }

func (s *State) ClearSelection() {
	s.selected = map[string]struct{}{}
	s.order = nil
}

// Deselect removes ids from the selection. Used when tasks are deleted.
func (s *State) Deselect(ids ...string) {
	for _, id := range ids {
		s.remove(strings.TrimSpace(id))
	}
}

// Prune drops every selected id that is not in visible, and the edit buffer
// when its task is gone. It returns the ids that were dropped.
func (s *State) Prune(visible []model.Task) []string {
	present := make(map[string]bool, len(visible))
	for _, t := range visible {
		present[t.ID] = true
	}
	var dropped []string
	for _, id := range s.order {
		if !present[id] {
			dropped = append(dropped, id)
		}
	}
	s.Deselect(dropped...)
	if s.edit != nil && !present[s.edit.TaskID] {
		s.edit = nil
	}
	return dropped
}

func (s *State) remove(id string) {
	if _, ok := s.selected[id]; !ok {
		return
	}
	delete(s.selected, id)
	for i, x := range s.order {
		if x == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// BeginEdit opens the edit buffer for t, replacing any edit in progress.
func (s *State) BeginEdit(t model.Task) {
	s.edit = &EditBuffer{TaskID: t.ID, Text: t.Text}
}

// SetEditText updates the buffer text. It is a no-op when nothing is being edited.
func (s *State) SetEditText(text string) {
	if s.edit != nil {
		s.edit.Text = text
	}
}

// Edit returns a copy of the edit buffer. ok is false when nothing is being edited.
func (s *State) Edit() (EditBuffer, bool) {
	if s.edit == nil {
		return EditBuffer{}, false
	}
	return *s.edit, true
}

func (s *State) Editing(id string) bool {
	return s.edit != nil && s.edit.TaskID == id
}

// CancelEdit discards the edit buffer.
func (s *State) CancelEdit() { s.edit = nil }
