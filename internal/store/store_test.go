package store

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"taskdeck/internal/model"
)

func TestUIState_SaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	s := UIStateFile{Dir: t.TempDir()}

	// Missing file => default state.
	st0, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st0.Version != 1 || st0.Filter != model.FilterAll {
		t.Fatalf("expected default state; got %#v", st0)
	}

	if err := s.SaveFilter(model.FilterCompleted); err != nil {
		t.Fatalf("SaveFilter: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load (after save): %v", err)
	}
	want := &UIState{Version: 1, Filter: model.FilterCompleted}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("roundtrip mismatch:\nwant: %#v\ngot:  %#v", want, got)
	}
	if s.LoadFilter() != model.FilterCompleted {
		t.Fatalf("LoadFilter mismatch")
	}
}

func TestUIState_CorruptOrUnknownFilterFallsBack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := UIStateFile{Dir: dir}
	if err := os.WriteFile(filepath.Join(dir, uiStateFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := s.LoadFilter(); got != model.FilterAll {
		t.Fatalf("expected all for corrupt file, got %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, uiStateFileName), []byte(`{"version":1,"filter":"someday"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := s.LoadFilter(); got != model.FilterAll {
		t.Fatalf("expected all for unknown filter, got %q", got)
	}
}

func TestUIState_EmptyDirDisablesPersistence(t *testing.T) {
	t.Parallel()

	var s UIStateFile
	if err := s.SaveFilter(model.FilterActive); err != nil {
		t.Fatalf("SaveFilter: %v", err)
	}
	if s.LoadFilter() != model.FilterAll {
		t.Fatalf("expected default")
	}
}

func TestConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TASKDECK_CONFIG_DIR", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ResolvedAPIURL() != DefaultAPIURL || cfg.ResolvedPageSize() != 6 || cfg.ResolvedServeAddr() != ":3001" {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	d, err := cfg.TimeoutDuration()
	if err != nil || d != 10*time.Second {
		t.Fatalf("timeout=%v err=%v", d, err)
	}
	db, err := cfg.ResolvedServeDB()
	if err != nil || filepath.Base(db) != "tasks.db" {
		t.Fatalf("db=%q err=%v", db, err)
	}
}

func TestConfig_SaveLoadYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TASKDECK_CONFIG_DIR", dir)

	want := &Config{
		APIURL:   "http://tasks.internal:8080/tasks",
		PageSize: 10,
		Timeout:  "3s",
		Serve:    ServeConfig{Addr: "127.0.0.1:4000", DB: "postgres://u:p@localhost/tasks?sslmode=disable"},
	}
	if err := SaveConfig(want); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !containsAll(string(b), "api_url:", "page_size: 10", "serve:") {
		t.Fatalf("unexpected yaml:\n%s", b)
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("roundtrip mismatch:\nwant: %#v\ngot:  %#v", want, got)
	}
}

func TestConfig_RejectsBadTimeout(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TASKDECK_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("timeout: soon\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for bad timeout")
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
