// Package security implements the Security Store (C5): opaque
// encrypted credential and token persistence for OAuth access/refresh
// tokens and expiries. Values are encrypted at rest with AES-256-GCM
// under a key derived from a machine-stable secret via PBKDF2, and
// persisted through the same kvstore.Store the other components use.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/larsgrootkarzijn/audiocontrold/internal/store/kvstore"
)

const (
	keyLen     = 32 // AES-256
	pbkdf2Iter = 100_000
	saltLen    = 16
)

// Store is an encrypted-at-rest key-value store for short secret
// strings (OAuth access tokens, refresh tokens, expiry timestamps).
type Store struct {
	kv     *kvstore.Store
	secret []byte
}

// New wires a Store over an already-open kvstore.Store, deriving the
// encryption key from secret (typically a machine id or a configured
// passphrase; see cmd/audiocontrold for where it comes from).
func New(kv *kvstore.Store, secret []byte) *Store {
	return &Store{kv: kv, secret: secret}
}

func (s *Store) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(s.secret, salt, pbkdf2Iter, keyLen, sha256.New)
}

// encrypt returns salt||nonce||ciphertext.
func (s *Store) encrypt(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("security: read salt: %w", err)
	}
	block, err := aes.NewCipher(s.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("security: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("security: new gcm: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("security: read nonce: %w", err)
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

func (s *Store) decrypt(blob []byte) ([]byte, error) {
	if len(blob) < saltLen {
		return nil, fmt.Errorf("security: ciphertext too short")
	}
	salt, rest := blob[:saltLen], blob[saltLen:]

	block, err := aes.NewCipher(s.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("security: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("security: new gcm: %w", err)
	}
	if len(rest) < gcm.NonceSize() {
		return nil, fmt.Errorf("security: ciphertext too short")
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("security: decrypt: %w", err)
	}
	return plaintext, nil
}

// Set encrypts value and writes it under key.
func (s *Store) Set(key, value string) error {
	blob, err := s.encrypt([]byte(value))
	if err != nil {
		return err
	}
	return s.kv.Set(key, blob)
}

// Get decrypts and returns the value at key. ok is false on miss or
// decryption failure (e.g. the secret changed) — both are surfaced to
// the caller as "not present" rather than as a hard error, matching
// the confidentiality-only guarantee in §4.5: a caller cannot tell a
// tampered value from a missing one.
func (s *Store) Get(key string) (string, bool) {
	blob, ok := s.kv.Get(key)
	if !ok {
		return "", false
	}
	plaintext, err := s.decrypt(blob)
	if err != nil {
		return "", false
	}
	return string(plaintext), true
}

// Remove deletes key.
func (s *Store) Remove(key string) (bool, error) {
	return s.kv.Remove(key)
}

// Token is the standard OAuth credential shape stored by the
// streaming-provider adapters (access token, refresh token, absolute
// expiry as RFC3339).
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// SetToken encrypts and stores tok as JSON under key.
func (s *Store) SetToken(key string, tok Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("security: marshal token: %w", err)
	}
	return s.Set(key, string(raw))
}

// GetToken decrypts and decodes the token at key.
func (s *Store) GetToken(key string) (Token, bool) {
	raw, ok := s.Get(key)
	if !ok {
		return Token{}, false
	}
	var tok Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return Token{}, false
	}
	return tok, true
}
