package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
)

// KeySize is the length in bytes of the token encryption key.
const KeySize = chacha20poly1305.KeySize

// Cipher encrypts bearer credentials for storage. It is built once at
// startup from the configured key and shared by every request; it holds no
// mutable state.
type Cipher struct {
	key []byte
}

// NewCipher returns a Cipher for a raw 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: encryption key must be %d bytes, got %d", apperrors.ErrConfiguration, KeySize, len(key))
	}
	k := make([]byte, KeySize)
	copy(k, key)
	return &Cipher{key: k}, nil
}

// NewCipherFromString parses a base64 key (see ParseKey) and returns a Cipher.
func NewCipherFromString(encoded string) (*Cipher, error) {
	key, err := ParseKey(encoded)
	if err != nil {
		return nil, err
	}
	return NewCipher(key)
}

// ParseKey decodes a 32-byte key given as URL-safe or standard base64,
// padded or not.
func ParseKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: encryption key is not set", apperrors.ErrConfiguration)
	}
	for _, enc := range []*base64.Encoding{
		base64.URLEncoding,
		base64.RawURLEncoding,
		base64.StdEncoding,
		base64.RawStdEncoding,
	} {
		if b, err := enc.DecodeString(encoded); err == nil && len(b) == KeySize {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: encryption key must be base64 encoding of %d bytes", apperrors.ErrConfiguration, KeySize)
}

// GenerateKey returns a new random key, URL-safe base64 encoded.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("[token GenerateKey] %w", err)
	}
	return base64.URLEncoding.EncodeToString(key), nil
}

// Encrypt seals plaintext under a fresh random nonce. Two calls with the
// same input return different ciphertexts.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("[Cipher Encrypt] %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("[Cipher Encrypt] nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Malformed input and values
// sealed under another key fail with ErrDecryption.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(ciphertext, "="))
	if err != nil {
		return "", fmt.Errorf("%w: decode: %v", apperrors.ErrDecryption, err)
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("[Cipher Decrypt] %w", err)
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", apperrors.ErrDecryption)
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrDecryption, err)
	}
	return string(plaintext), nil
}

// DeriveKey expands the cipher key into an independent key for another
// purpose (e.g. signing session cookies), so a deployment only needs one
// secret.
func (c *Cipher) DeriveKey(purpose string, size int) ([]byte, error) {
	out := make([]byte, size)
	r := hkdf.New(sha256.New, c.key, nil, []byte(purpose))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("[Cipher DeriveKey] %w", err)
	}
	return out, nil
}
