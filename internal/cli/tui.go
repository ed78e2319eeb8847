package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"taskdeck/internal/session"
	"taskdeck/internal/store"
	"taskdeck/internal/tui"
)

const tuiLogFileName = "taskdeck.log"

func runTUI(app *App) error {
	uiState := store.DefaultUIStateFile()
	st := session.New(uiState.LoadFilter(), app.PageSize, uiState)

	log, closeLog := tuiLogger()
	defer closeLog()
	log.Info("tui start", slog.String("api", app.APIURL), slog.String("filter", string(st.Filter())))

	return tui.Run(context.Background(), tui.Options{
		Remote: app.client(),
		State:  st,
		Log:    log,
	})
}

// tuiLogger appends to taskdeck.log in the config dir. The terminal belongs to
// the TUI, so when the file cannot be opened logs are discarded.
func tuiLogger() (*slog.Logger, func()) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir, err := store.ConfigDir()
	if err != nil {
		return discard, func() {}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return discard, func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, tuiLogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return discard, func() {}
	}
	return slog.New(slog.NewTextHandler(f, nil)), func() { _ = f.Close() }
}
