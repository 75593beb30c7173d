// Package crypto implements the symmetric engine used to protect stored
// credential values. Values are sealed with AES-256-GCM and transported as
// URL-safe base64 strings; the derived key lives in a memguard enclave for
// the lifetime of the engine.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	cserrors "github.com/credstore/credstore/internal/errors"
	"github.com/credstore/credstore/internal/secure"
)

// MinimumKeyLength is the minimum number of characters of key material.
const MinimumKeyLength = 32

// keySize is the derived AES-256 key size in bytes.
const keySize = 32

// DecryptionError indicates a ciphertext that is malformed, was produced
// with a different key, or failed its integrity check.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e DecryptionError) Error() string {
	if e.Reason != "" {
		return "failed to decrypt secret: " + e.Reason
	}
	return "failed to decrypt secret"
}

func (e DecryptionError) Unwrap() error {
	return e.Err
}

// Engine encrypts and decrypts single string values. It is safe for
// concurrent use once constructed.
type Engine struct {
	key *secure.KeyBuffer
}

// New derives a fixed-length key from keyMaterial and returns a ready
// engine. Key material shorter than MinimumKeyLength characters is a hard
// configuration error. The length check counts characters, not bytes, so
// multi-byte runes each count once.
func New(keyMaterial string) (*Engine, error) {
	if n := utf8.RuneCountInString(keyMaterial); n < MinimumKeyLength {
		return nil, cserrors.ConfigError{
			Field:      "encryption_key",
			Message:    fmt.Sprintf("encryption key must be at least %d characters long, got %d", MinimumKeyLength, n),
			Suggestion: "Generate one with: openssl rand -base64 32",
		}
	}

	// First 32 bytes of the UTF-8 encoding, zero padded. Padding is
	// unreachable given the length check but keeps the derivation total.
	derived := make([]byte, keySize)
	copy(derived, keyMaterial)

	eng := &Engine{key: secure.NewKeyBuffer(derived)}
	for i := range derived {
		derived[i] = 0
	}
	return eng, nil
}

// Close destroys the enclave holding the derived key. The engine is
// unusable afterwards.
func (e *Engine) Close() {
	e.key.Destroy()
}

func (e *Engine) aead() (cipher.AEAD, error) {
	buf, err := e.key.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open key enclave: %w", err)
	}
	defer buf.Destroy()

	block, err := aes.NewCipher(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under a fresh random nonce and returns the
// nonce-prefixed ciphertext as a URL-safe base64 string. Any UTF-8 input is
// accepted, including the empty string.
func (e *Engine) Encrypt(plaintext string) (string, error) {
	aead, err := e.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. It returns a DecryptionError for anything that
// is not a ciphertext produced by this engine's key; no partial output is
// ever returned.
func (e *Engine) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", DecryptionError{Reason: "invalid encoding", Err: err}
	}

	aead, err := e.aead()
	if err != nil {
		return "", err
	}

	if len(raw) < aead.NonceSize() {
		return "", DecryptionError{Reason: "ciphertext too short"}
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", DecryptionError{Reason: "integrity check failed or wrong key", Err: err}
	}
	return string(plaintext), nil
}
