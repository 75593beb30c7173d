// Package config loads and validates the credstore.yaml runtime
// configuration. The document is schema-checked before use so operators get
// one coherent list of problems instead of the first panic downstream.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	cserrors "github.com/credstore/credstore/internal/errors"
	"github.com/credstore/credstore/internal/secrets"
)

// DefaultKeyEnv is the environment variable consulted for encryption key
// material when the config does not name one.
const DefaultKeyEnv = "CREDSTORE_ENCRYPTION_KEY"

// Config is the parsed credstore.yaml.
type Config struct {
	Path string `yaml:"-" json:"-"`

	Encryption EncryptionConfig `yaml:"encryption" json:"encryption"`
	Database   DatabaseConfig   `yaml:"database" json:"database"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"`
	Profile    string           `yaml:"profile,omitempty" json:"profile,omitempty"`

	// Resolution chain configuration. Loaders lists source names in
	// priority order; unnamed sources are simply not part of the chain.
	Loaders         []string      `yaml:"loaders,omitempty" json:"loaders,omitempty"`
	CredentialsFile string        `yaml:"credentials_file,omitempty" json:"credentials_file,omitempty"`
	Keyring         KeyringConfig `yaml:"keyring,omitempty" json:"keyring,omitempty"`
	AWS             AWSConfig     `yaml:"aws,omitempty" json:"aws,omitempty"`
	GCP             GCPConfig     `yaml:"gcp,omitempty" json:"gcp,omitempty"`
	Azure           AzureConfig   `yaml:"azure,omitempty" json:"azure,omitempty"`
}

// EncryptionConfig names the environment variable holding key material.
// The key itself never appears in the file.
type EncryptionConfig struct {
	KeyEnv string `yaml:"key_env,omitempty" json:"key_env,omitempty"`
}

// DatabaseConfig holds the database connection settings.
type DatabaseConfig struct {
	URL string `yaml:"url" json:"url"`
}

// RateLimitConfig bounds plaintext disclosure per principal.
type RateLimitConfig struct {
	MaxRequests   int `yaml:"max_requests,omitempty" json:"max_requests,omitempty"`
	WindowSeconds int `yaml:"window_seconds,omitempty" json:"window_seconds,omitempty"`
}

// Window returns the configured window as a duration.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// KeyringConfig holds OS keyring settings.
type KeyringConfig struct {
	Service string `yaml:"service,omitempty" json:"service,omitempty"`
}

// AWSConfig holds settings shared by the AWS-backed loaders.
type AWSConfig struct {
	Region          string `yaml:"region,omitempty" json:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`
}

// GCPConfig holds GCP Secret Manager settings.
type GCPConfig struct {
	ProjectID             string `yaml:"project_id,omitempty" json:"project_id,omitempty"`
	ServiceAccountKeyPath string `yaml:"service_account_key_path,omitempty" json:"service_account_key_path,omitempty"`
}

// AzureConfig holds Azure Key Vault settings.
type AzureConfig struct {
	VaultURL     string `yaml:"vault_url,omitempty" json:"vault_url,omitempty"`
	TenantID     string `yaml:"tenant_id,omitempty" json:"tenant_id,omitempty"`
	ClientID     string `yaml:"client_id,omitempty" json:"client_id,omitempty"`
	ClientSecret string `yaml:"client_secret,omitempty" json:"client_secret,omitempty"`
}

// schema validates the structural shape of credstore.yaml. Semantic checks
// (key material present, profile known) happen after parsing.
const schema = `{
  "type": "object",
  "required": ["database"],
  "properties": {
    "encryption": {
      "type": "object",
      "properties": {
        "key_env": {"type": "string", "minLength": 1}
      }
    },
    "database": {
      "type": "object",
      "required": ["url"],
      "properties": {
        "url": {"type": "string", "minLength": 1}
      }
    },
    "rate_limit": {
      "type": "object",
      "properties": {
        "max_requests": {"type": "integer", "minimum": 1},
        "window_seconds": {"type": "integer", "minimum": 1}
      }
    },
    "profile": {"type": "string", "enum": ["default", "development", "staging", "production"]},
    "loaders": {
      "type": "array",
      "items": {
        "type": "string",
        "enum": ["store", "environment", "file", "keyring", "aws-secretsmanager", "aws-ssm", "gcp-secretmanager", "azure-keyvault"]
      }
    },
    "credentials_file": {"type": "string"},
    "keyring": {"type": "object", "properties": {"service": {"type": "string"}}},
    "aws": {"type": "object"},
    "gcp": {"type": "object"},
    "azure": {"type": "object"}
  }
}`

// Load reads, parses and validates the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cserrors.ConfigError{
				Field:      "path",
				Value:      path,
				Message:    "configuration file not found",
				Suggestion: "Create a credstore.yaml or pass --config with the right path",
			}
		}
		return nil, cserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, cserrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
		}
	}
	cfg.Path = path

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func validate(cfg *Config) error {
	jsonData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return cserrors.ConfigError{
			Field:      "config",
			Value:      cfg.Path,
			Message:    fmt.Sprintf("configuration is invalid:\n  - %s", strings.Join(problems, "\n  - ")),
			Suggestion: "Fix the listed fields in your credstore.yaml",
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Encryption.KeyEnv == "" {
		c.Encryption.KeyEnv = DefaultKeyEnv
	}
	if c.Profile == "" {
		c.Profile = string(secrets.ProfileDefault)
	}
	if len(c.Loaders) == 0 {
		c.Loaders = []string{"store", "environment", "file"}
	}
}

// EncryptionKey reads key material from the configured environment
// variable.
func (c *Config) EncryptionKey() (string, error) {
	key := os.Getenv(c.Encryption.KeyEnv)
	if key == "" {
		return "", cserrors.ConfigError{
			Field:      "encryption.key_env",
			Value:      c.Encryption.KeyEnv,
			Message:    "encryption key environment variable is not set",
			Suggestion: fmt.Sprintf("Export %s with at least 32 characters of key material", c.Encryption.KeyEnv),
		}
	}
	return key, nil
}

// ActiveProfile returns the configured profile.
func (c *Config) ActiveProfile() (secrets.Profile, error) {
	return secrets.ParseProfile(c.Profile)
}
