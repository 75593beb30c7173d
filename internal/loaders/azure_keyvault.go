package loaders

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	cserrors "github.com/credstore/credstore/internal/errors"
	"github.com/credstore/credstore/internal/logging"
)

// KeyVaultClientAPI is the subset of the Azure Key Vault client used by
// the loader, split out so tests can inject a mock.
type KeyVaultClientAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// AzureConfig holds Key Vault configuration. When the service principal
// triple is incomplete the default Azure credential chain is used, which
// covers managed identity and the az CLI.
type AzureConfig struct {
	VaultURL     string
	TenantID     string
	ClientID     string
	ClientSecret string
}

// AzureKeyVaultLoader resolves credentials from Azure Key Vault. Failures
// degrade to absent.
type AzureKeyVaultLoader struct {
	client KeyVaultClientAPI
	logger *logging.Logger
	cache  *valueCache
}

// AzureKeyVaultOption configures the loader.
type AzureKeyVaultOption func(*AzureKeyVaultLoader)

// WithKeyVaultClient injects a client, used by tests.
func WithKeyVaultClient(client KeyVaultClientAPI) AzureKeyVaultOption {
	return func(l *AzureKeyVaultLoader) {
		l.client = client
	}
}

// NewAzureKeyVaultLoader creates a Key Vault loader.
func NewAzureKeyVaultLoader(cfg AzureConfig, logger *logging.Logger, opts ...AzureKeyVaultOption) (*AzureKeyVaultLoader, error) {
	l := &AzureKeyVaultLoader{
		logger: logger,
		cache:  newValueCache(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.client == nil {
		if cfg.VaultURL == "" {
			return nil, cserrors.ConfigError{
				Field:      "vault_url",
				Message:    "vault_url is required for Azure Key Vault",
				Suggestion: "Provide the vault URL, e.g. https://my-vault.vault.azure.net/",
			}
		}
		if _, err := url.ParseRequestURI(cfg.VaultURL); err != nil {
			return nil, cserrors.ConfigError{
				Field:      "vault_url",
				Value:      cfg.VaultURL,
				Message:    "invalid vault_url",
				Suggestion: "Use the form https://vault-name.vault.azure.net/",
			}
		}

		cred, err := azureCredential(cfg)
		if err != nil {
			return nil, err
		}
		client, err := azsecrets.NewClient(cfg.VaultURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Key Vault client: %w", err)
		}
		l.client = client
	}
	return l, nil
}

func azureCredential(cfg AzureConfig) (azcore.TokenCredential, error) {
	if cfg.TenantID != "" && cfg.ClientID != "" && cfg.ClientSecret != "" {
		cred, err := azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure service principal credential: %w", err)
		}
		return cred, nil
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	return cred, nil
}

// Name returns the loader name.
func (l *AzureKeyVaultLoader) Name() string {
	return "azure-keyvault"
}

// Lookup fetches the secret named key. A "name@version" key pins a
// version; otherwise the latest version is read and cached.
func (l *AzureKeyVaultLoader) Lookup(ctx context.Context, key string) (string, bool, error) {
	name, version := splitVersion(key)
	if version == "" {
		if v, ok := l.cache.get(name); ok {
			return v, true, nil
		}
	}

	resp, err := l.client.GetSecret(ctx, name, version, nil)
	if err != nil {
		l.logger.Debug("azure-keyvault: lookup of %s failed: %v", logging.Secret(name), err)
		return "", false, nil
	}
	if resp.Value == nil {
		return "", false, nil
	}

	value := *resp.Value
	if version == "" {
		l.cache.set(name, value)
	}
	return value, true, nil
}
