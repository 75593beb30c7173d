package commands

import (
	"database/sql"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	cserrors "github.com/credstore/credstore/internal/errors"
	"github.com/credstore/credstore/internal/secrets"
)

func NewImportCommand(app *App) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Bulk import credentials from a YAML file",
		Long: `Import credentials from a profile-sectioned YAML document:

  default:
    AWS_ACCESS_KEY_ID: "AKIA..."
  production:
    AWS_ACCESS_KEY_ID: "AKIA..."

Rows are keyed by (name, profile): existing credentials are updated in
place, new ones are created. Invalid rows are skipped and reported; the
rest of the import proceeds.

Examples:
  credstore import credentials.yaml
  credstore import credentials.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return cserrors.UserError{
					Message:    "Failed to read import file",
					Details:    err.Error(),
					Suggestion: "Check the path and file permissions",
					Err:        err,
				}
			}

			rt, err := openRuntime(app)
			if err != nil {
				return err
			}
			defer rt.close()

			var result secrets.ImportResult
			err = withTx(cmd.Context(), rt.conn, func(tx *sql.Tx) error {
				var err error
				result, err = rt.svc.ImportYAML(cmd.Context(), tx, app.PrincipalID, string(data), cliOrigin)
				return err
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(result)
			}

			app.Logger.Info("Imported %d, updated %d, failed %d", result.Imported, result.Updated, result.Failed)
			for _, msg := range result.Errors {
				app.Logger.Warn("%s", msg)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}
