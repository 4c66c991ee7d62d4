package session

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"booknest/internal/model"
)

const sealedPrefix = "sealed:v1:"

var sealedKeys = []string{model.KeyToken, model.KeyRefreshToken}

// SealedStore encrypts bearer and refresh tokens before they reach the
// underlying store. Other keys are stored as-is.
type SealedStore struct {
	inner Store
	aead  cipher.AEAD
}

func NewSealedStore(inner Store, secret string) (*SealedStore, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("sealing secret is required")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("booknest session tokens"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create sealing cipher: %w", err)
	}

	return &SealedStore{inner: inner, aead: aead}, nil
}

func (s *SealedStore) Load(ctx context.Context, sessionID string) (map[string]string, error) {
	values, err := s.inner.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := maps.Clone(values)
	for _, key := range sealedKeys {
		raw, ok := out[key]
		if !ok || raw == "" {
			continue
		}
		opened, err := s.open(sessionID, key, raw)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", key, err)
		}
		out[key] = opened
	}
	return out, nil
}

func (s *SealedStore) Save(ctx context.Context, sessionID string, values map[string]string, expiresAt time.Time) error {
	out := maps.Clone(values)
	for _, key := range sealedKeys {
		raw, ok := out[key]
		if !ok || raw == "" {
			continue
		}
		sealed, err := s.seal(sessionID, key, raw)
		if err != nil {
			return fmt.Errorf("seal %s: %w", key, err)
		}
		out[key] = sealed
	}
	return s.inner.Save(ctx, sessionID, out, expiresAt)
}

func (s *SealedStore) Delete(ctx context.Context, sessionID string) error {
	return s.inner.Delete(ctx, sessionID)
}

func (s *SealedStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.inner.PurgeExpired(ctx, now)
}

// The session id and key are bound as associated data so a sealed value
// cannot be replayed into another session or slot.
func (s *SealedStore) seal(sessionID string, key string, plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ciphertext := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(sessionID+"|"+key))
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

func (s *SealedStore) open(sessionID string, key string, sealed string) (string, error) {
	if !strings.HasPrefix(sealed, sealedPrefix) {
		return "", errors.New("value is not sealed")
	}

	data, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	if err != nil {
		return "", err
	}
	if len(data) < s.aead.NonceSize() {
		return "", errors.New("sealed value too short")
	}

	nonce, ciphertext := data[:s.aead.NonceSize()], data[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(sessionID+"|"+key))
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
