package loaders

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credstore/credstore/internal/logging"
)

type mockSecretsManagerClient struct {
	outputs map[string]*secretsmanager.GetSecretValueOutput
	err     error
	calls   []secretsmanager.GetSecretValueInput
}

func (m *mockSecretsManagerClient) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	m.calls = append(m.calls, *params)
	if m.err != nil {
		return nil, m.err
	}
	out, ok := m.outputs[*params.SecretId]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func newSMLoader(t *testing.T, client SecretsManagerClientAPI) *AWSSecretsManagerLoader {
	t.Helper()
	l, err := NewAWSSecretsManagerLoader(context.Background(), AWSConfig{Region: "us-east-1"},
		logging.New(false, true), WithSecretsManagerClient(client))
	require.NoError(t, err)
	return l
}

func TestAWSSecretsManagerLookup(t *testing.T) {
	t.Parallel()

	client := &mockSecretsManagerClient{outputs: map[string]*secretsmanager.GetSecretValueOutput{
		"db-password": {SecretString: strPtr("hunter2")},
	}}
	l := newSMLoader(t, client)

	v, found, err := l.Lookup(context.Background(), "db-password")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hunter2", v)
}

func TestAWSSecretsManagerBinaryValue(t *testing.T) {
	t.Parallel()

	client := &mockSecretsManagerClient{outputs: map[string]*secretsmanager.GetSecretValueOutput{
		"cert": {SecretBinary: []byte("pem-bytes")},
	}}
	l := newSMLoader(t, client)

	v, found, err := l.Lookup(context.Background(), "cert")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "pem-bytes", v)
}

func TestAWSSecretsManagerErrorIsAbsent(t *testing.T) {
	t.Parallel()

	client := &mockSecretsManagerClient{err: errors.New("AccessDenied")}
	l := newSMLoader(t, client)

	_, found, err := l.Lookup(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAWSSecretsManagerVersionPinning(t *testing.T) {
	t.Parallel()

	client := &mockSecretsManagerClient{outputs: map[string]*secretsmanager.GetSecretValueOutput{
		"api-key": {SecretString: strPtr("v")},
	}}
	l := newSMLoader(t, client)

	// UUID shape selects a version id.
	_, _, err := l.Lookup(context.Background(), "api-key@123e4567-e89b-12d3-a456-426614174000")
	require.NoError(t, err)
	require.Len(t, client.calls, 1)
	require.NotNil(t, client.calls[0].VersionId)
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", *client.calls[0].VersionId)
	assert.Nil(t, client.calls[0].VersionStage)

	// Anything else selects a staging label.
	_, _, err = l.Lookup(context.Background(), "api-key@AWSPREVIOUS")
	require.NoError(t, err)
	require.Len(t, client.calls, 2)
	require.NotNil(t, client.calls[1].VersionStage)
	assert.Equal(t, "AWSPREVIOUS", *client.calls[1].VersionStage)
}

func TestAWSSecretsManagerCachesDefaultVersion(t *testing.T) {
	t.Parallel()

	client := &mockSecretsManagerClient{outputs: map[string]*secretsmanager.GetSecretValueOutput{
		"cached": {SecretString: strPtr("once")},
	}}
	l := newSMLoader(t, client)

	for i := 0; i < 3; i++ {
		v, found, err := l.Lookup(context.Background(), "cached")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "once", v)
	}
	assert.Len(t, client.calls, 1)

	// Pinned versions bypass the cache.
	_, _, err := l.Lookup(context.Background(), "cached@AWSPREVIOUS")
	require.NoError(t, err)
	assert.Len(t, client.calls, 2)
}
