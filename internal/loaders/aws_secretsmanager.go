package loaders

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/credstore/credstore/internal/logging"
)

// SecretsManagerClientAPI is the subset of the AWS Secrets Manager client
// used by the loader, split out so tests can inject a mock.
type SecretsManagerClientAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSConfig holds shared configuration for the AWS-backed loaders. The
// endpoint and static credentials exist for LocalStack and tests; real
// deployments rely on the default credential chain.
type AWSConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// AWSSecretsManagerLoader resolves credentials from AWS Secrets Manager.
// Lookups are best effort: any service error makes the key absent so the
// resolution chain can fall through to the next source.
type AWSSecretsManagerLoader struct {
	client SecretsManagerClientAPI
	region string
	logger *logging.Logger
	cache  *valueCache
}

// AWSSecretsManagerOption configures the loader.
type AWSSecretsManagerOption func(*AWSSecretsManagerLoader)

// WithSecretsManagerClient injects a client, used by tests.
func WithSecretsManagerClient(client SecretsManagerClientAPI) AWSSecretsManagerOption {
	return func(l *AWSSecretsManagerLoader) {
		l.client = client
	}
}

// NewAWSSecretsManagerLoader creates a Secrets Manager loader. When no
// client is injected, one is built from the default AWS config chain plus
// whatever cfg overrides.
func NewAWSSecretsManagerLoader(ctx context.Context, cfg AWSConfig, logger *logging.Logger, opts ...AWSSecretsManagerOption) (*AWSSecretsManagerLoader, error) {
	l := &AWSSecretsManagerLoader{
		region: cfg.Region,
		logger: logger,
		cache:  newValueCache(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.client == nil {
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		var clientOpts []func(*secretsmanager.Options)
		if cfg.Endpoint != "" {
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			})
		}
		l.client = secretsmanager.NewFromConfig(awsCfg, clientOpts...)
	}
	return l, nil
}

func loadAWSConfig(ctx context.Context, cfg AWSConfig) (aws.Config, error) {
	var configOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		configOpts = append(configOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// Name returns the loader name.
func (l *AWSSecretsManagerLoader) Name() string {
	return "aws-secretsmanager"
}

// Lookup fetches the secret named key. A "name@version" key pins a
// specific version: UUID-shaped versions select a version id, anything
// else a staging label. Only default-version results are cached.
func (l *AWSSecretsManagerLoader) Lookup(ctx context.Context, key string) (string, bool, error) {
	name, version := splitVersion(key)
	if version == "" {
		if v, ok := l.cache.get(name); ok {
			return v, true, nil
		}
	}

	input := &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	}
	if version != "" {
		if looksLikeVersionID(version) {
			input.VersionId = aws.String(version)
		} else {
			input.VersionStage = aws.String(version)
		}
	}

	result, err := l.client.GetSecretValue(ctx, input)
	if err != nil {
		l.logger.Debug("aws-secretsmanager: lookup of %s failed: %v", logging.Secret(name), err)
		return "", false, nil
	}

	var value string
	switch {
	case result.SecretString != nil:
		value = *result.SecretString
	case result.SecretBinary != nil:
		value = string(result.SecretBinary)
	default:
		return "", false, nil
	}

	if version == "" {
		l.cache.set(name, value)
	}
	return value, true, nil
}

// splitVersion splits "name@version" into its parts; no "@" means the
// default version.
func splitVersion(key string) (name, version string) {
	if idx := strings.LastIndex(key, "@"); idx != -1 {
		return key[:idx], key[idx+1:]
	}
	return key, ""
}

// looksLikeVersionID reports whether the version string is shaped like an
// AWS version id (a UUID) rather than a staging label.
func looksLikeVersionID(version string) bool {
	return len(version) == 36 && strings.Count(version, "-") == 4
}
