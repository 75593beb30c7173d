package loaders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvLoader(t *testing.T) {
	t.Setenv("CREDSTORE_TEST_VAR", "value-from-env")
	t.Setenv("CREDSTORE_TEST_EMPTY", "")

	l := NewEnvLoader()
	assert.Equal(t, "environment", l.Name())

	v, ok := l.Get("CREDSTORE_TEST_VAR")
	require.True(t, ok)
	assert.Equal(t, "value-from-env", v)

	// Set-but-empty counts as present.
	v, ok = l.Get("CREDSTORE_TEST_EMPTY")
	require.True(t, ok)
	assert.Empty(t, v)
	assert.True(t, l.Contains("CREDSTORE_TEST_EMPTY"))

	assert.False(t, l.Contains("CREDSTORE_TEST_UNSET"))
}

func TestStaticAdapter(t *testing.T) {
	t.Parallel()

	src := Static(NewFileLoaderFromValues(map[string]string{"KEY": "value"}))
	assert.Equal(t, "file", src.Name())

	v, found, err := src.Lookup(context.Background(), "KEY")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "value", v)

	_, found, err = src.Lookup(context.Background(), "MISSING")
	require.NoError(t, err)
	assert.False(t, found)
}
