package loaders

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cserrors "github.com/credstore/credstore/internal/errors"
	"github.com/credstore/credstore/internal/logging"
)

type mockKeyVaultClient struct {
	secrets map[string]string
	err     error
	calls   int
	lastVer string
}

func (m *mockKeyVaultClient) GetSecret(_ context.Context, name string, version string, _ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	m.calls++
	m.lastVer = version
	if m.err != nil {
		return azsecrets.GetSecretResponse{}, m.err
	}
	v, ok := m.secrets[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, errors.New("SecretNotFound")
	}
	return azsecrets.GetSecretResponse{Secret: azsecrets.Secret{Value: &v}}, nil
}

func newVaultLoader(t *testing.T, client KeyVaultClientAPI) *AzureKeyVaultLoader {
	t.Helper()
	l, err := NewAzureKeyVaultLoader(AzureConfig{}, logging.New(false, true), WithKeyVaultClient(client))
	require.NoError(t, err)
	return l
}

func TestAzureKeyVaultLookup(t *testing.T) {
	t.Parallel()

	client := &mockKeyVaultClient{secrets: map[string]string{"db-password": "hunter2"}}
	l := newVaultLoader(t, client)

	v, found, err := l.Lookup(context.Background(), "db-password")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hunter2", v)
	assert.Empty(t, client.lastVer)
}

func TestAzureKeyVaultVersionPinning(t *testing.T) {
	t.Parallel()

	client := &mockKeyVaultClient{secrets: map[string]string{"api-key": "v"}}
	l := newVaultLoader(t, client)

	_, found, err := l.Lookup(context.Background(), "api-key@abc123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "abc123", client.lastVer)
}

func TestAzureKeyVaultErrorIsAbsent(t *testing.T) {
	t.Parallel()

	l := newVaultLoader(t, &mockKeyVaultClient{err: errors.New("Forbidden")})

	_, found, err := l.Lookup(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAzureKeyVaultCachesLatest(t *testing.T) {
	t.Parallel()

	client := &mockKeyVaultClient{secrets: map[string]string{"cached": "once"}}
	l := newVaultLoader(t, client)

	for i := 0; i < 3; i++ {
		_, found, err := l.Lookup(context.Background(), "cached")
		require.NoError(t, err)
		require.True(t, found)
	}
	assert.Equal(t, 1, client.calls)
}

func TestAzureKeyVaultRequiresVaultURL(t *testing.T) {
	t.Parallel()

	_, err := NewAzureKeyVaultLoader(AzureConfig{}, logging.New(false, true))
	var cfgErr cserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "vault_url", cfgErr.Field)
}
