package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned by Open after Destroy has been called.
var ErrDestroyed = errors.New("key buffer has been destroyed")

// KeyBuffer holds key material in a memguard enclave so the raw bytes are
// encrypted at rest in memory and kept out of swap. The enclave itself has
// no destroy primitive; Destroy marks the buffer unusable and drops the
// reference, and callers wanting full cleanup run memguard.Purge at exit.
type KeyBuffer struct {
	enclave   *memguard.Enclave
	mu        sync.RWMutex
	destroyed bool
}

// NewKeyBuffer copies data into a protected memory region. The caller should
// zero its own copy afterwards.
func NewKeyBuffer(data []byte) *KeyBuffer {
	return &KeyBuffer{enclave: memguard.NewEnclave(data)}
}

// Open decrypts the enclave into a locked buffer. The caller must call
// Destroy on the returned buffer when finished with the plaintext bytes.
func (k *KeyBuffer) Open() (*memguard.LockedBuffer, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.destroyed {
		return nil, ErrDestroyed
	}
	return k.enclave.Open()
}

// Destroy prevents further use of the buffer. Idempotent.
func (k *KeyBuffer) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.destroyed {
		return
	}
	k.enclave = nil
	k.destroyed = true
}
