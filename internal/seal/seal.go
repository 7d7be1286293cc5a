// Package seal provides authenticated encryption for the session envelope:
// the token pair at rest in the vault and the cookie handed to the browser.
package seal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrInvalidEnvelope is returned when an envelope fails to authenticate,
// is truncated, or was sealed under a different secret.
var ErrInvalidEnvelope = errors.New("seal: invalid envelope")

// Sealer seals and opens byte envelopes with ChaCha20-Poly1305. The key is
// derived from the configured signing secret, so any secret length works.
type Sealer struct {
	key [chacha20poly1305.KeySize]byte
}

// New derives a sealer from the signing secret. The secret must be
// non-empty.
func New(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.New("seal: empty secret")
	}
	s := &Sealer{key: sha256.Sum256([]byte(secret))}
	return s, nil
}

// Seal encrypts plaintext into a nonce-prefixed ciphertext.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s.key[:])
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("seal: nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a nonce-prefixed ciphertext produced by Seal.
func (s *Sealer) Open(envelope []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s.key[:])
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}
	if len(envelope) < aead.NonceSize() {
		return nil, ErrInvalidEnvelope
	}
	nonce, ciphertext := envelope[:aead.NonceSize()], envelope[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidEnvelope
	}
	return plaintext, nil
}

// SealString seals plaintext and encodes it for cookie transport.
func (s *Sealer) SealString(plaintext []byte) (string, error) {
	raw, err := s.Seal(plaintext)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// OpenString reverses SealString.
func (s *Sealer) OpenString(encoded string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidEnvelope
	}
	return s.Open(raw)
}
