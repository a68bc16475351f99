// Package crypto seals the credentials the console keeps at rest.
//
// The session table holds each staff member's backend access token and refresh
// cookie. Both are bearer credentials, so they are never written in clear text:
// Sealer encrypts them with AES-256-GCM before they reach SQLite.
//
// AES-256-GCM in short:
//   - AES-256: symmetric encryption with a 32-byte key
//   - GCM: authenticated mode, tampering is detected on Open
//   - nonce: 12 random bytes per Seal, so equal plaintexts never produce equal
//     ciphertexts
//
// The session id is passed as additional data, which binds a ciphertext to its
// row: a token copied into another session row fails to open.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

// DeriveKey decodes a 64-hex-character string into a 32-byte AES-256 key.
func DeriveKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid hex key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be exactly 32 bytes (64 hex chars), got %d bytes", len(key))
	}
	return key, nil
}

// Sealer encrypts and decrypts short secrets with a fixed key.
// A Sealer is safe for concurrent use.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer builds a Sealer from a 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return &Sealer{aead: gcm}, nil
}

// Seal encrypts plaintext bound to context (the owning row id).
// The empty string seals to the empty string so a cleared slot stays empty.
func (s *Sealer) Seal(plaintext, context string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce generation: %w", err)
	}

	// nonce is the prefix of the output; Open splits it back off.
	ciphertext := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(context))

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Open reverses Seal. context must match the value used when sealing.
func (s *Sealer) Open(encoded, context string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(context))
	if err != nil {
		return "", fmt.Errorf("gcm.Open (wrong key, wrong row or corrupted data): %w", err)
	}

	return string(plaintext), nil
}
