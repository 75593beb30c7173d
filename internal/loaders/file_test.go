package loaders

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cserrors "github.com/credstore/credstore/internal/errors"
	"github.com/credstore/credstore/internal/secrets"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileLoaderFlatDocument(t *testing.T) {
	t.Parallel()

	path := writeTempYAML(t, `
AWS_ACCESS_KEY_ID: "AKIAEXAMPLE"
DB_PORT: 5432
DEBUG: true
`)

	l, err := NewFileLoader(path, secrets.ProfileDefault)
	require.NoError(t, err)

	v, ok := l.Get("AWS_ACCESS_KEY_ID")
	require.True(t, ok)
	assert.Equal(t, "AKIAEXAMPLE", v)

	// Non-string scalars are stringified.
	v, ok = l.Get("DB_PORT")
	require.True(t, ok)
	assert.Equal(t, "5432", v)

	v, ok = l.Get("DEBUG")
	require.True(t, ok)
	assert.Equal(t, "true", v)

	assert.False(t, l.Contains("MISSING"))
}

func TestFileLoaderProfileSections(t *testing.T) {
	t.Parallel()

	content := `
default:
  API_KEY: "default-key"
production:
  API_KEY: "prod-key"
  EXTRA: "only-in-prod"
`
	path := writeTempYAML(t, content)

	def, err := NewFileLoader(path, secrets.ProfileDefault)
	require.NoError(t, err)
	v, ok := def.Get("API_KEY")
	require.True(t, ok)
	assert.Equal(t, "default-key", v)
	assert.False(t, def.Contains("EXTRA"))

	prod, err := NewFileLoader(path, secrets.ProfileProduction)
	require.NoError(t, err)
	v, ok = prod.Get("API_KEY")
	require.True(t, ok)
	assert.Equal(t, "prod-key", v)
	assert.True(t, prod.Contains("EXTRA"))
}

func TestFileLoaderProfileSectionAmongOtherKeys(t *testing.T) {
	t.Parallel()

	// A document may carry unrelated top-level keys next to the profile
	// section; the section still wins for that profile.
	path := writeTempYAML(t, `
default:
  API_KEY: "from-section"
EXTRA_KEY: "x"
`)

	l, err := NewFileLoader(path, secrets.ProfileDefault)
	require.NoError(t, err)

	v, ok := l.Get("API_KEY")
	require.True(t, ok)
	assert.Equal(t, "from-section", v)
	assert.False(t, l.Contains("EXTRA_KEY"))
	assert.False(t, l.Contains("default"))
}

func TestFileLoaderEmptyProfileSection(t *testing.T) {
	t.Parallel()

	// A present-but-empty section means the profile exists with no
	// credentials, not a malformed document.
	l, err := NewFileLoader(writeTempYAML(t, "default:\n"), secrets.ProfileDefault)
	require.NoError(t, err)
	assert.False(t, l.Contains("ANYTHING"))
}

func TestFileLoaderMissingProfileSection(t *testing.T) {
	t.Parallel()

	path := writeTempYAML(t, `
default:
  API_KEY: "default-key"
`)

	_, err := NewFileLoader(path, secrets.ProfileStaging)
	var cfgErr cserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "profile", cfgErr.Field)
}

func TestFileLoaderSectionNotMapping(t *testing.T) {
	t.Parallel()

	path := writeTempYAML(t, `
default: just-a-string
production:
  API_KEY: "ok"
`)

	_, err := NewFileLoader(path, secrets.ProfileDefault)
	var cfgErr cserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestFileLoaderInvalidYAML(t *testing.T) {
	t.Parallel()

	path := writeTempYAML(t, "key: [unclosed")

	_, err := NewFileLoader(path, secrets.ProfileDefault)
	var cfgErr cserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "credentials_file", cfgErr.Field)
}

func TestFileLoaderMissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewFileLoader(filepath.Join(t.TempDir(), "nope.yaml"), secrets.ProfileDefault)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestFileLoaderEmptyDocument(t *testing.T) {
	t.Parallel()

	l, err := NewFileLoader(writeTempYAML(t, ""), secrets.ProfileDefault)
	require.NoError(t, err)
	assert.False(t, l.Contains("ANYTHING"))
}
