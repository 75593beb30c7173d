package commands

import (
	"github.com/spf13/cobra"

	"github.com/credstore/credstore/internal/db"
)

func NewInitCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database schema",
		Long: `Apply the credstore schema to the configured database.

The statements are idempotent, so running init against an existing
database is safe.

Examples:
  credstore init
  credstore init --config /etc/credstore/credstore.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(app)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := db.Bootstrap(cmd.Context(), rt.conn); err != nil {
				return err
			}
			app.Logger.Info("Database schema is up to date")
			return nil
		},
	}
}
