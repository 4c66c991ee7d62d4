package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const cookieTokenType = "session"

var ErrInvalidCookie = errors.New("invalid session cookie")

// CookieCodec signs the opaque session id that the browser carries. No
// backend token ever leaves the gateway.
type CookieCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewCookieCodec(secret string, ttl time.Duration) (*CookieCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &CookieCodec{secret: []byte(secret), ttl: ttl}, nil
}

func (c *CookieCodec) TTL() time.Duration {
	return c.ttl
}

func NewSessionID() string {
	return uuid.NewString()
}

func (c *CookieCodec) Issue(sessionID string) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sessionID,
		"typ": cookieTokenType,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(c.ttl).Unix(),
	})
	return token.SignedString(c.secret)
}

func (c *CookieCodec) Parse(value string) (string, error) {
	parsed, err := jwt.Parse(value, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCookie
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidCookie
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidCookie
	}

	typ, _ := claims["typ"].(string)
	if typ != cookieTokenType {
		return "", ErrInvalidCookie
	}

	sessionID, _ := claims["sub"].(string)
	if _, err := uuid.Parse(sessionID); err != nil {
		return "", ErrInvalidCookie
	}

	return sessionID, nil
}
