package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewGetCommand(app *App) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single secret with its value masked",
		Long: `Show one secret by id. The value is masked; use 'credstore reveal'
for the plaintext.

Examples:
  credstore get 7d9f1c2e-8a4b-4f1e-9c3d-2b5a6e7f8a9b
  credstore get 7d9f1c2e-8a4b-4f1e-9c3d-2b5a6e7f8a9b --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(app)
			if err != nil {
				return err
			}
			defer rt.close()

			masked, err := rt.svc.Get(cmd.Context(), rt.conn, app.PrincipalID, args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(masked)
			}

			fmt.Printf("ID:       %s\n", masked.ID)
			fmt.Printf("Name:     %s\n", masked.Name)
			fmt.Printf("Key:      %s\n", masked.Key)
			fmt.Printf("Category: %s\n", masked.Category)
			fmt.Printf("Profile:  %s\n", masked.Profile)
			fmt.Printf("Value:    %s\n", masked.MaskedValue)
			fmt.Printf("Created:  %s\n", masked.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("Updated:  %s\n", masked.UpdatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}
