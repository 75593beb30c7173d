package commands

import (
	"database/sql"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	cserrors "github.com/credstore/credstore/internal/errors"
	"github.com/credstore/credstore/internal/secrets"
)

func NewSetCommand(app *App) *cobra.Command {
	var (
		key      string
		value    string
		category string
		profile  string
	)

	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Store a new secret",
		Long: `Encrypt and store a new secret. The name must be unique within the
profile. When --value is omitted the value is read from stdin, which
keeps it out of shell history.

Examples:
  credstore set database-password --key DB_PASSWORD --value hunter2
  credstore set api-key --key API_KEY --category AWS --profile production
  cat id_rsa | credstore set deploy-key --key DEPLOY_KEY --category SSH`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if key == "" {
				key = name
			}

			if value == "" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return cserrors.UserError{
						Message:    "Failed to read secret value from stdin",
						Details:    err.Error(),
						Suggestion: "Pass --value or pipe the value on stdin",
						Err:        err,
					}
				}
				value = strings.TrimRight(string(data), "\n")
			}
			if value == "" {
				return cserrors.UserError{
					Message:    "Secret value is empty",
					Suggestion: "Pass --value or pipe a non-empty value on stdin",
				}
			}

			in := secrets.CreateInput{Name: name, Key: key, Value: value}
			if category != "" {
				c, err := secrets.ParseCategory(category)
				if err != nil {
					return err
				}
				in.Category = c
			}
			if profile != "" {
				p, err := secrets.ParseProfile(profile)
				if err != nil {
					return err
				}
				in.Profile = p
			}

			rt, err := openRuntime(app)
			if err != nil {
				return err
			}
			defer rt.close()

			var masked secrets.Masked
			err = withTx(cmd.Context(), rt.conn, func(tx *sql.Tx) error {
				var err error
				masked, err = rt.svc.Create(cmd.Context(), tx, app.PrincipalID, in, cliOrigin)
				return err
			})
			if err != nil {
				return err
			}

			app.Logger.Info("Stored secret '%s' (id=%s)", masked.Name, masked.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Credential key (defaults to the name)")
	cmd.Flags().StringVar(&value, "value", "", "Secret value (read from stdin when omitted)")
	cmd.Flags().StringVar(&category, "category", "", "Category (AWS, Azure, GCP, Database, SSH, Custom)")
	cmd.Flags().StringVar(&profile, "profile", "", "Profile (default, development, staging, production)")

	return cmd
}
