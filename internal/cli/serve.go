package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"taskdeck/internal/backend"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr, db string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a json-server compatible /tasks backend (SQLite, or Postgres via a postgres:// URL)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(addr) == "" {
				addr = app.cfg.ResolvedServeAddr()
			}
			if strings.TrimSpace(db) == "" {
				d, err := app.cfg.ResolvedServeDB()
				if err != nil {
					return writeErr(cmd, err)
				}
				db = d
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelInfo}))

			st, err := backend.Open(db, logger)
			if err != nil {
				logger.Error("unable to open database", slog.String("error", err.Error()))
				return err
			}
			defer st.Close()

			accessLog := cmd.ErrOrStderr()
			if quiet {
				accessLog = nil
			}
			srv := backend.New(st, logger, accessLog)

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, ln, srv.Engine(), logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("TASKDECK_ADDR", ""), "HTTP listen address (default from config, then :3001)")
	cmd.Flags().StringVar(&db, "db", envOr("TASKDECK_DB", ""), "SQLite path or postgres:// URL (default <config dir>/tasks.db)")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Disable the request log")

	return cmd
}

// serve runs until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, ln net.Listener, h http.Handler, logger *slog.Logger) error {
	httpServer := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", ln.Addr().String()))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
		return err
	}
	logger.Info("server stopped")
	return nil
}
