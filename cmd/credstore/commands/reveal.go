package commands

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/credstore/credstore/internal/secrets"
)

func NewRevealCommand(app *App) *cobra.Command {
	var (
		elevated   bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "reveal <id>",
		Short: "Disclose a secret's plaintext value",
		Long: `Decrypt and print a secret's plaintext. Disclosure requires the
--elevated flag, is rate limited per principal, and is recorded in the
audit trail.

By default only the raw value is printed, so the output is safe to use
in command substitution.

Examples:
  credstore reveal 7d9f1c2e... --elevated
  export DB_PASSWORD=$(credstore reveal 7d9f1c2e... --elevated)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(app)
			if err != nil {
				return err
			}
			defer rt.close()

			var revealed secrets.Decrypted
			err = withTx(cmd.Context(), rt.conn, func(tx *sql.Tx) error {
				var err error
				revealed, err = rt.svc.Decrypt(cmd.Context(), tx, app.PrincipalID, args[0], elevated, cliOrigin)
				return err
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(revealed)
			}

			fmt.Print(revealed.Value)
			return nil
		},
	}

	cmd.Flags().BoolVar(&elevated, "elevated", false, "Acknowledge elevated access for plaintext disclosure")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format with metadata")

	return cmd
}
