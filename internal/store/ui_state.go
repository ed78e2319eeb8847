package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"taskdeck/internal/model"
)

const uiStateFileName = "ui_state.json"

// UIState is the only client state kept across launches. Everything else
// (page, selection, edit buffer) starts fresh.
//
// It is best effort: a missing or corrupt file loads as the default.
type UIState struct {
	Version int          `json:"version"`
	Filter  model.Filter `json:"filter,omitempty"`
}

// UIStateFile reads and writes ui_state.json in Dir. An empty Dir disables
// persistence.
type UIStateFile struct {
	Dir string
}

// DefaultUIStateFile lives in the config dir.
func DefaultUIStateFile() UIStateFile {
	dir, err := ConfigDir()
	if err != nil {
		return UIStateFile{}
	}
	return UIStateFile{Dir: dir}
}

func (s UIStateFile) path() string {
	return filepath.Join(s.Dir, uiStateFileName)
}

func (s UIStateFile) Load() (*UIState, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return &UIState{Version: 1, Filter: model.FilterAll}, nil
	}
	b, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &UIState{Version: 1, Filter: model.FilterAll}, nil
		}
		return nil, err
	}
	var st UIState
	if err := json.Unmarshal(b, &st); err != nil {
		// Corrupt file; treat as missing.
		return &UIState{Version: 1, Filter: model.FilterAll}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	if !st.Filter.Valid() {
		st.Filter = model.FilterAll
	}
	return &st, nil
}

// LoadFilter returns the last saved filter, or "all".
func (s UIStateFile) LoadFilter() model.Filter {
	st, err := s.Load()
	if err != nil {
		return model.FilterAll
	}
	return st.Filter
}

func (s UIStateFile) Save(st *UIState) error {
	if st == nil || strings.TrimSpace(s.Dir) == "" {
		return nil
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(s.Dir, uiStateFileName+".*.tmp", s.path(), b, 0o644)
}

// SaveFilter persists f. It satisfies session.FilterStore.
func (s UIStateFile) SaveFilter(f model.Filter) error {
	return s.Save(&UIState{Version: 1, Filter: f})
}
