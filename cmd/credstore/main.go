package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/credstore/credstore/cmd/credstore/commands"
	"github.com/credstore/credstore/internal/logging"
	"github.com/credstore/credstore/internal/metrics"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile string
		noColor    bool
		debug      bool
		principal  string
	)

	app := &commands.App{}

	rootCmd := &cobra.Command{
		Use:   "credstore",
		Short: "Encrypted credential storage and resolution",
		Long: `credstore keeps credentials encrypted at rest in your database and
resolves them at runtime from the store, the environment, credential
files and external secret managers.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.ConfigPath = configFile
			app.Logger = logging.New(debug, noColor)
			app.PrincipalID = principal
			metrics.Init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "credstore.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&principal, "principal", defaultPrincipal(), "Principal the operation runs as")

	rootCmd.AddCommand(
		commands.NewInitCommand(app),
		commands.NewListCommand(app),
		commands.NewGetCommand(app),
		commands.NewSetCommand(app),
		commands.NewUpdateCommand(app),
		commands.NewDeleteCommand(app),
		commands.NewRevealCommand(app),
		commands.NewImportCommand(app),
		commands.NewResolveCommand(app),
	)

	return rootCmd.Execute()
}

func defaultPrincipal() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}
