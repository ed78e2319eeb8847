package cli

import (
	"taskdeck/internal/store"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print effective settings (flags > env > config.yaml > defaults)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := store.ConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			db, err := app.cfg.ResolvedServeDB()
			if err != nil {
				return writeErr(cmd, err)
			}
			filter := store.DefaultUIStateFile().LoadFilter()
			return writeOut(cmd, app, envelope{
				Data: map[string]any{
					"apiUrl":     app.APIURL,
					"pageSize":   app.PageSize,
					"timeout":    app.Timeout.String(),
					"serveAddr":  app.cfg.ResolvedServeAddr(),
					"serveDb":    db,
					"lastFilter": filter,
				},
				Meta: map[string]any{"configPath": path},
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := store.ConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, envelope{Data: map[string]any{"path": path}})
		},
	})

	return cmd
}
