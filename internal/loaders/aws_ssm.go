package loaders

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/credstore/credstore/internal/logging"
)

// SSMClientAPI is the subset of the SSM client used by the loader, split
// out so tests can inject a mock.
type SSMClientAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// AWSSSMLoader resolves credentials from AWS Systems Manager Parameter
// Store. SecureString parameters are decrypted server side. Like the other
// external loaders, failures degrade to absent.
type AWSSSMLoader struct {
	client SSMClientAPI
	logger *logging.Logger
	cache  *valueCache
}

// AWSSSMOption configures the loader.
type AWSSSMOption func(*AWSSSMLoader)

// WithSSMClient injects a client, used by tests.
func WithSSMClient(client SSMClientAPI) AWSSSMOption {
	return func(l *AWSSSMLoader) {
		l.client = client
	}
}

// NewAWSSSMLoader creates a Parameter Store loader.
func NewAWSSSMLoader(ctx context.Context, cfg AWSConfig, logger *logging.Logger, opts ...AWSSSMOption) (*AWSSSMLoader, error) {
	l := &AWSSSMLoader{
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
		var clientOpts []func(*ssm.Options)
		if cfg.Endpoint != "" {
			clientOpts = append(clientOpts, func(o *ssm.Options) {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			})
		}
		l.client = ssm.NewFromConfig(awsCfg, clientOpts...)
	}
	return l, nil
}

// Name returns the loader name.
func (l *AWSSSMLoader) Name() string {
	return "aws-ssm"
}

// Lookup fetches the parameter named key, decrypting SecureStrings.
func (l *AWSSSMLoader) Lookup(ctx context.Context, key string) (string, bool, error) {
	if v, ok := l.cache.get(key); ok {
		return v, true, nil
	}

	result, err := l.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(key),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		l.logger.Debug("aws-ssm: lookup of %s failed: %v", logging.Secret(key), err)
		return "", false, nil
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", false, nil
	}

	value := *result.Parameter.Value
	l.cache.set(key, value)
	return value, true, nil
}
