package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/credstore/credstore/internal/config"
	cserrors "github.com/credstore/credstore/internal/errors"
	"github.com/credstore/credstore/internal/loaders"
	"github.com/credstore/credstore/internal/resolve"
	"github.com/credstore/credstore/internal/secrets"
)

func NewResolveCommand(app *App) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "resolve <key> [key...]",
		Short: "Resolve credential keys through the loader chain",
		Long: `Resolve one or more credential keys through the configured loader
chain. The first source containing a key wins; the conventional order is
store, environment, file, then external secret managers.

With a single key the raw value is printed. With multiple keys (or
--json) each resolution is reported with its source.

Examples:
  credstore resolve DATABASE_URL
  credstore resolve AWS_ACCESS_KEY_ID AWS_SECRET_ACCESS_KEY --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(app)
			if err != nil {
				return err
			}
			defer rt.close()

			resolver, err := buildResolver(cmd.Context(), app, rt)
			if err != nil {
				return err
			}

			resolutions, err := resolver.ResolveAll(cmd.Context(), args)
			if err != nil {
				return err
			}

			resolved := make(map[string]resolve.Resolution, len(resolutions))
			for _, res := range resolutions {
				resolved[res.Key] = res
			}
			var missing []string
			for _, key := range args {
				if _, ok := resolved[key]; !ok {
					missing = append(missing, key)
				}
			}
			if len(missing) > 0 {
				return cserrors.UserError{
					Message:    fmt.Sprintf("Unresolved keys: %v", missing),
					Suggestion: "Store the credential, export the variable, or add it to the credentials file",
				}
			}

			if jsonOutput {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(resolutions)
			}

			if len(args) == 1 {
				fmt.Print(resolved[args[0]].Value)
				return nil
			}
			for _, key := range args {
				fmt.Printf("%s=%s\n", key, resolved[key].Value)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format with sources")
	return cmd
}

// buildResolver assembles the source chain in the order the config lists
// loaders.
func buildResolver(ctx context.Context, app *App, rt *runtime) (*resolve.Resolver, error) {
	profile, err := rt.cfg.ActiveProfile()
	if err != nil {
		return nil, err
	}

	var sources []loaders.Source
	for _, name := range rt.cfg.Loaders {
		src, err := buildSource(ctx, app, rt, name, profile)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return resolve.New(app.Logger, sources...), nil
}

func buildSource(ctx context.Context, app *App, rt *runtime, name string, profile secrets.Profile) (loaders.Source, error) {
	switch name {
	case "store":
		return loaders.NewStoreLoader(rt.svc, rt.conn, app.PrincipalID, profile), nil
	case "environment":
		return loaders.Static(loaders.NewEnvLoader()), nil
	case "file":
		if rt.cfg.CredentialsFile == "" {
			return nil, cserrors.ConfigError{
				Field:      "credentials_file",
				Message:    "the file loader is enabled but credentials_file is not set",
				Suggestion: "Set credentials_file in credstore.yaml or drop 'file' from loaders",
			}
		}
		fl, err := loaders.NewFileLoader(rt.cfg.CredentialsFile, profile)
		if err != nil {
			return nil, err
		}
		return loaders.Static(fl), nil
	case "keyring":
		return loaders.Static(loaders.NewKeyringLoader(rt.cfg.Keyring.Service, app.Logger)), nil
	case "aws-secretsmanager":
		l, err := loaders.NewAWSSecretsManagerLoader(ctx, awsLoaderConfig(rt.cfg), app.Logger)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "aws-ssm":
		l, err := loaders.NewAWSSSMLoader(ctx, awsLoaderConfig(rt.cfg), app.Logger)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "gcp-secretmanager":
		l, err := loaders.NewGCPSecretManagerLoader(ctx, loaders.GCPConfig{
			ProjectID:             rt.cfg.GCP.ProjectID,
			ServiceAccountKeyPath: rt.cfg.GCP.ServiceAccountKeyPath,
		}, app.Logger)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "azure-keyvault":
		l, err := loaders.NewAzureKeyVaultLoader(loaders.AzureConfig{
			VaultURL:     rt.cfg.Azure.VaultURL,
			TenantID:     rt.cfg.Azure.TenantID,
			ClientID:     rt.cfg.Azure.ClientID,
			ClientSecret: rt.cfg.Azure.ClientSecret,
		}, app.Logger)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, cserrors.ConfigError{
			Field:      "loaders",
			Value:      name,
			Message:    "unknown loader name",
			Suggestion: "Valid loaders: store, environment, file, keyring, aws-secretsmanager, aws-ssm, gcp-secretmanager, azure-keyvault",
		}
	}
}

func awsLoaderConfig(cfg *config.Config) loaders.AWSConfig {
	return loaders.AWSConfig{
		Region:          cfg.AWS.Region,
		Endpoint:        cfg.AWS.Endpoint,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
	}
}
