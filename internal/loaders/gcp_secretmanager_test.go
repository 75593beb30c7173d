package loaders

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cserrors "github.com/credstore/credstore/internal/errors"
	"github.com/credstore/credstore/internal/logging"
)

type mockSecretAccessor struct {
	payloads map[string]string
	err      error
	requests []string
}

func (m *mockSecretAccessor) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	m.requests = append(m.requests, req.Name)
	if m.err != nil {
		return nil, m.err
	}
	payload, ok := m.payloads[req.Name]
	if !ok {
		return nil, errors.New("NotFound")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Name:    req.Name,
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(payload)},
	}, nil
}

func newGCPLoader(t *testing.T, client SecretAccessorAPI) *GCPSecretManagerLoader {
	t.Helper()
	l, err := NewGCPSecretManagerLoader(context.Background(), GCPConfig{ProjectID: "test-project"},
		logging.New(false, true), WithSecretAccessorClient(client))
	require.NoError(t, err)
	return l
}

func TestGCPSecretManagerLookup(t *testing.T) {
	t.Parallel()

	client := &mockSecretAccessor{payloads: map[string]string{
		"projects/test-project/secrets/db-password/versions/latest": "hunter2",
	}}
	l := newGCPLoader(t, client)

	v, found, err := l.Lookup(context.Background(), "db-password")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hunter2", v)
}

func TestGCPSecretManagerVersionPinning(t *testing.T) {
	t.Parallel()

	client := &mockSecretAccessor{payloads: map[string]string{
		"projects/test-project/secrets/api-key/versions/7": "pinned",
	}}
	l := newGCPLoader(t, client)

	v, found, err := l.Lookup(context.Background(), "api-key@7")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "pinned", v)
	require.Len(t, client.requests, 1)
	assert.Equal(t, "projects/test-project/secrets/api-key/versions/7", client.requests[0])
}

func TestGCPSecretManagerErrorIsAbsent(t *testing.T) {
	t.Parallel()

	l := newGCPLoader(t, &mockSecretAccessor{err: errors.New("PermissionDenied")})

	_, found, err := l.Lookup(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGCPSecretManagerCachesLatest(t *testing.T) {
	t.Parallel()

	client := &mockSecretAccessor{payloads: map[string]string{
		"projects/test-project/secrets/cached/versions/latest": "once",
	}}
	l := newGCPLoader(t, client)

	for i := 0; i < 3; i++ {
		_, found, err := l.Lookup(context.Background(), "cached")
		require.NoError(t, err)
		require.True(t, found)
	}
	assert.Len(t, client.requests, 1)
}

func TestGCPSecretManagerRequiresProject(t *testing.T) {
	// No t.Parallel: reads GOOGLE_CLOUD_PROJECT.
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")

	_, err := NewGCPSecretManagerLoader(context.Background(), GCPConfig{}, logging.New(false, true))
	var cfgErr cserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "project_id", cfgErr.Field)
}
