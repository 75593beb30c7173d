package commands

import (
	"database/sql"

	"github.com/spf13/cobra"
)

func NewDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a secret",
		Long: `Delete a secret. The deletion is recorded in the audit trail in the
same transaction as the removal.

Examples:
  credstore delete 7d9f1c2e-8a4b-4f1e-9c3d-2b5a6e7f8a9b`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(app)
			if err != nil {
				return err
			}
			defer rt.close()

			err = withTx(cmd.Context(), rt.conn, func(tx *sql.Tx) error {
				return rt.svc.Delete(cmd.Context(), tx, app.PrincipalID, args[0], cliOrigin)
			})
			if err != nil {
				return err
			}

			app.Logger.Info("Deleted secret %s", args[0])
			return nil
		},
	}
}
