package commands

import (
	"database/sql"

	"github.com/spf13/cobra"

	cserrors "github.com/credstore/credstore/internal/errors"
	"github.com/credstore/credstore/internal/secrets"
)

func NewUpdateCommand(app *App) *cobra.Command {
	var (
		name     string
		key      string
		value    string
		category string
		profile  string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an existing secret",
		Long: `Apply a partial update. Only the flags you pass change; the value is
re-encrypted only when --value is given.

Examples:
  credstore update 7d9f1c2e... --value new-password
  credstore update 7d9f1c2e... --name rotated-key --profile staging`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch secrets.Patch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("key") {
				patch.Key = &key
			}
			if cmd.Flags().Changed("value") {
				patch.Value = &value
			}
			if cmd.Flags().Changed("category") {
				c, err := secrets.ParseCategory(category)
				if err != nil {
					return err
				}
				patch.Category = &c
			}
			if cmd.Flags().Changed("profile") {
				p, err := secrets.ParseProfile(profile)
				if err != nil {
					return err
				}
				patch.Profile = &p
			}
			if patch == (secrets.Patch{}) {
				return cserrors.UserError{
					Message:    "Nothing to update",
					Suggestion: "Pass at least one of --name, --key, --value, --category, --profile",
				}
			}

			rt, err := openRuntime(app)
			if err != nil {
				return err
			}
			defer rt.close()

			var masked secrets.Masked
			err = withTx(cmd.Context(), rt.conn, func(tx *sql.Tx) error {
				var err error
				masked, err = rt.svc.Update(cmd.Context(), tx, app.PrincipalID, args[0], patch, cliOrigin)
				return err
			})
			if err != nil {
				return err
			}

			app.Logger.Info("Updated secret '%s' (id=%s)", masked.Name, masked.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&key, "key", "", "New credential key")
	cmd.Flags().StringVar(&value, "value", "", "New value (re-encrypted)")
	cmd.Flags().StringVar(&category, "category", "", "New category")
	cmd.Flags().StringVar(&profile, "profile", "", "New profile")

	return cmd
}
