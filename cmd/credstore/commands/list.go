package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/credstore/credstore/internal/secrets"
)

func NewListCommand(app *App) *cobra.Command {
	var (
		category   string
		profile    string
		search     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List secrets with masked values",
		Long: `List the principal's secrets. Values are always masked; use
'credstore reveal' to disclose a plaintext value.

Examples:
  credstore list
  credstore list --profile production --category aws
  credstore list --search database --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := secrets.Filter{Search: search}
			if category != "" {
				c, err := secrets.ParseCategory(category)
				if err != nil {
					return err
				}
				filter.Category = &c
			}
			if profile != "" {
				p, err := secrets.ParseProfile(profile)
				if err != nil {
					return err
				}
				filter.Profile = &p
			}

			rt, err := openRuntime(app)
			if err != nil {
				return err
			}
			defer rt.close()

			list, err := rt.svc.List(cmd.Context(), rt.conn, app.PrincipalID, filter)
			if err != nil {
				return err
			}

			if jsonOutput {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(list)
			}

			if len(list) == 0 {
				app.Logger.Info("No secrets found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tKEY\tCATEGORY\tPROFILE\tVALUE\tUPDATED")
			for _, s := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					s.ID, s.Name, s.Key, s.Category, s.Profile, s.MaskedValue,
					s.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Filter by category (AWS, Azure, GCP, Database, SSH, Custom)")
	cmd.Flags().StringVar(&profile, "profile", "", "Filter by profile (default, development, staging, production)")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive substring match on the name")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
