// Package secret seals credentials held in memory by the session registry.
package secret

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrInvalidKey is returned for a key that is not 32 bytes of base64.
	ErrInvalidKey = errors.New("encryption key must be 32 bytes, base64 encoded")
	// ErrCiphertext is returned when a sealed value fails authentication.
	ErrCiphertext = errors.New("ciphertext is malformed or was tampered with")
)

// Codec encrypts and decrypts short secrets with XChaCha20-Poly1305.
// The random nonce is prepended to each ciphertext.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a Codec from a base64 (std or URL alphabet) 32-byte key.
func NewCodec(key string) (*Codec, error) {
	raw, err := decodeKey(key)
	if err != nil {
		return nil, err
	}
	return newCodec(raw)
}

// NewEphemeralCodec uses a random key that lives only as long as the
// process. Sessions sealed with it do not survive a restart.
func NewEphemeralCodec() (*Codec, error) {
	raw := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return newCodec(raw)
}

func newCodec(key []byte) (*Codec, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &Codec{aead: aead}, nil
}

func decodeKey(key string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding} {
		raw, err := enc.DecodeString(key)
		if err == nil && len(raw) == chacha20poly1305.KeySize {
			return raw, nil
		}
	}
	return nil, ErrInvalidKey
}

// Encrypt seals plaintext.
func (c *Codec) Encrypt(plaintext string) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decrypt opens a value produced by Encrypt.
func (c *Codec) Decrypt(sealed []byte) (string, error) {
	if len(sealed) < c.aead.NonceSize()+c.aead.Overhead() {
		return "", ErrCiphertext
	}

	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrCiphertext
	}
	return string(plaintext), nil
}
