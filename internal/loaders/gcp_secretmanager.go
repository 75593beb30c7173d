package loaders

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	cserrors "github.com/credstore/credstore/internal/errors"
	"github.com/credstore/credstore/internal/logging"
)

// SecretAccessorAPI is the subset of the GCP Secret Manager client used by
// the loader, split out so tests can inject a mock.
type SecretAccessorAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// GCPConfig holds Secret Manager configuration.
type GCPConfig struct {
	ProjectID             string
	ServiceAccountKeyPath string
}

// GCPSecretManagerLoader resolves credentials from Google Cloud Secret
// Manager. Failures degrade to absent.
type GCPSecretManagerLoader struct {
	client    SecretAccessorAPI
	projectID string
	logger    *logging.Logger
	cache     *valueCache
}

// GCPSecretManagerOption configures the loader.
type GCPSecretManagerOption func(*GCPSecretManagerLoader)

// WithSecretAccessorClient injects a client, used by tests.
func WithSecretAccessorClient(client SecretAccessorAPI) GCPSecretManagerOption {
	return func(l *GCPSecretManagerLoader) {
		l.client = client
	}
}

// NewGCPSecretManagerLoader creates a Secret Manager loader. The project
// id is required; GOOGLE_CLOUD_PROJECT serves as a fallback.
func NewGCPSecretManagerLoader(ctx context.Context, cfg GCPConfig, logger *logging.Logger, opts ...GCPSecretManagerOption) (*GCPSecretManagerLoader, error) {
	if cfg.ProjectID == "" {
		cfg.ProjectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if cfg.ProjectID == "" {
		return nil, cserrors.ConfigError{
			Field:      "project_id",
			Message:    "project_id is required for GCP Secret Manager",
			Suggestion: "Set project_id in the loader config or export GOOGLE_CLOUD_PROJECT",
		}
	}

	l := &GCPSecretManagerLoader{
		projectID: cfg.ProjectID,
		logger:    logger,
		cache:     newValueCache(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.client == nil {
		var clientOpts []option.ClientOption
		if cfg.ServiceAccountKeyPath != "" {
			keyPath := cfg.ServiceAccountKeyPath
			if strings.HasPrefix(keyPath, "~/") {
				home, err := os.UserHomeDir()
				if err != nil {
					return nil, fmt.Errorf("failed to resolve home directory: %w", err)
				}
				keyPath = filepath.Join(home, keyPath[2:])
			}
			clientOpts = append(clientOpts, option.WithCredentialsFile(keyPath))
		}

		client, err := secretmanager.NewClient(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCP Secret Manager client: %w", err)
		}
		l.client = client
	}
	return l, nil
}

// Name returns the loader name.
func (l *GCPSecretManagerLoader) Name() string {
	return "gcp-secretmanager"
}

// Lookup fetches the secret named key. A "name@version" key pins a
// version number; otherwise "latest" is read and the result cached.
func (l *GCPSecretManagerLoader) Lookup(ctx context.Context, key string) (string, bool, error) {
	name, version := splitVersion(key)
	if version == "" {
		if v, ok := l.cache.get(name); ok {
			return v, true, nil
		}
		version = "latest"
	}

	resource := fmt.Sprintf("projects/%s/secrets/%s/versions/%s", l.projectID, name, version)
	resp, err := l.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resource,
	})
	if err != nil {
		l.logger.Debug("gcp-secretmanager: lookup of %s failed: %v", logging.Secret(name), err)
		return "", false, nil
	}
	if resp.Payload == nil {
		return "", false, nil
	}

	value := string(resp.Payload.Data)
	if version == "latest" {
		l.cache.set(name, value)
	}
	return value, true, nil
}
