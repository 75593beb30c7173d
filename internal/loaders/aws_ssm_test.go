package loaders

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credstore/credstore/internal/logging"
)

type mockSSMClient struct {
	params map[string]string
	err    error
	calls  []ssm.GetParameterInput
}

func (m *mockSSMClient) GetParameter(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	m.calls = append(m.calls, *params)
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.params[*params.Name]
	if !ok {
		return nil, errors.New("ParameterNotFound")
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: &v}}, nil
}

func newSSMLoader(t *testing.T, client SSMClientAPI) *AWSSSMLoader {
	t.Helper()
	l, err := NewAWSSSMLoader(context.Background(), AWSConfig{Region: "eu-west-1"},
		logging.New(false, true), WithSSMClient(client))
	require.NoError(t, err)
	return l
}

func TestAWSSSMLookup(t *testing.T) {
	t.Parallel()

	client := &mockSSMClient{params: map[string]string{"/app/db/password": "s3cret"}}
	l := newSSMLoader(t, client)

	v, found, err := l.Lookup(context.Background(), "/app/db/password")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "s3cret", v)

	// SecureString decryption is requested server side.
	require.Len(t, client.calls, 1)
	require.NotNil(t, client.calls[0].WithDecryption)
	assert.True(t, *client.calls[0].WithDecryption)
}

func TestAWSSSMMissingParameterIsAbsent(t *testing.T) {
	t.Parallel()

	l := newSSMLoader(t, &mockSSMClient{params: map[string]string{}})

	_, found, err := l.Lookup(context.Background(), "/missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAWSSSMCachesLookups(t *testing.T) {
	t.Parallel()

	client := &mockSSMClient{params: map[string]string{"/app/key": "v"}}
	l := newSSMLoader(t, client)

	for i := 0; i < 3; i++ {
		_, found, err := l.Lookup(context.Background(), "/app/key")
		require.NoError(t, err)
		require.True(t, found)
	}
	assert.Len(t, client.calls, 1)
}
