package loaders

import (
	"github.com/zalando/go-keyring"

	"github.com/credstore/credstore/internal/logging"
)

// DefaultKeyringService is the service name credentials are filed under in
// the OS keyring when the config does not name one.
const DefaultKeyringService = "credstore"

// KeyringLoader reads credentials from the operating system keyring
// (Keychain on macOS, Secret Service on Linux, Credential Manager on
// Windows). The keyring API is synchronous, so this is a plain Loader; a
// missing entry or an unavailable keyring makes the key absent.
type KeyringLoader struct {
	service string
	logger  *logging.Logger
}

// NewKeyringLoader creates a keyring loader for the given service name.
func NewKeyringLoader(service string, logger *logging.Logger) *KeyringLoader {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringLoader{service: service, logger: logger}
}

// Name returns the loader name.
func (l *KeyringLoader) Name() string {
	return "keyring"
}

// Contains reports whether the keyring holds an entry for key.
func (l *KeyringLoader) Contains(key string) bool {
	_, ok := l.Get(key)
	return ok
}

// Get reads the keyring entry for key.
func (l *KeyringLoader) Get(key string) (string, bool) {
	value, err := keyring.Get(l.service, key)
	if err != nil {
		if err != keyring.ErrNotFound {
			l.logger.Debug("keyring: lookup of %s failed: %v", logging.Secret(key), err)
		}
		return "", false
	}
	return value, true
}
