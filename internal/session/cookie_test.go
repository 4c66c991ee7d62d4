package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "cookie-secret-cookie-secret-cookie-secret"

func TestCookieCodecRoundTrip(t *testing.T) {
	codec, err := NewCookieCodec(testSecret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, codec.TTL())

	id := NewSessionID()
	value, err := codec.Issue(id)
	require.NoError(t, err)

	got, err := codec.Parse(value)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestCookieCodecRejects(t *testing.T) {
	codec, err := NewCookieCodec(testSecret, time.Hour)
	require.NoError(t, err)
	other, err := NewCookieCodec("a-different-secret-a-different-secret", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Issue(NewSessionID())
	require.NoError(t, err)

	wrongType, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": NewSessionID(),
		"typ": "access",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "not-a-uuid",
		"typ": cookieTokenType,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": NewSessionID(),
		"typ": cookieTokenType,
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not.a.jwt",
		"wrong secret": foreign,
		"wrong type":   wrongType,
		"bad subject":  badSubject,
		"expired":      expired,
	}

	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Parse(value)
			assert.ErrorIs(t, err, ErrInvalidCookie)
		})
	}
}

func TestNewCookieCodecValidation(t *testing.T) {
	_, err := NewCookieCodec("", time.Hour)
	assert.Error(t, err)

	_, err = NewCookieCodec(testSecret, 0)
	assert.Error(t, err)
}
