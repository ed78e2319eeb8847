package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"taskdeck/internal/api"
	"taskdeck/internal/format"
	"taskdeck/internal/store"

	"github.com/spf13/cobra"
)

type App struct {
	APIURL     string
	Timeout    time.Duration
	PageSize   int
	PrettyJSON bool
	Format     string
	Verbose    bool

	cfg *store.Config
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "taskdeck",
		Short:        "Task list client (TUI + scriptable CLI) for a json-server style /tasks backend",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  taskdeck

  # Run a local backend
  taskdeck serve

  # Scriptable commands
  taskdeck tasks list --filter active
  taskdeck tasks add --text "Buy milk" --priority medium

  # Direct task lookup (shortcut for: taskdeck tasks show <task-id>)
  taskdeck 42
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := store.LoadConfig()
		if err != nil {
			return writeErr(cmd, err)
		}
		app.cfg = cfg
		if strings.TrimSpace(app.APIURL) == "" {
			app.APIURL = cfg.ResolvedAPIURL()
		}
		if app.Timeout <= 0 {
			if app.Timeout, err = cfg.TimeoutDuration(); err != nil {
				return writeErr(cmd, err)
			}
		}
		if app.PageSize <= 0 {
			app.PageSize = cfg.ResolvedPageSize()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api", envOr("TASKDECK_API", ""), "Tasks collection URL (default from config, then "+api.DefaultBaseURL+")")
	cmd.PersistentFlags().DurationVar(&app.Timeout, "timeout", 0, "Request timeout (default from config, then 10s)")
	cmd.PersistentFlags().IntVar(&app.PageSize, "page-size", 0, "Tasks per page (default from config, then 6)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("TASKDECK_FORMAT", "json"), "Output format (json|table)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log mutations to stderr")

	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

func (app *App) client() *api.Client {
	return api.NewClient(app.APIURL, app.Timeout)
}

// logger writes to stderr with --verbose and discards otherwise; failures are
// already reported through writeErr.
func (app *App) logger(cmd *cobra.Command) *slog.Logger {
	if !app.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
