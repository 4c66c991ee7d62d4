package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_UnlimitedGeneral(t *testing.T) {
	handler := NewRateLimitMiddleware(0, 1).Handler(okHandler())

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimitMiddleware_LimitedLogin(t *testing.T) {
	handler := NewRateLimitMiddleware(0, 1).Handler(okHandler())

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	assert.Equal(t, http.StatusOK, rec1.Code)

	// Burst of 1: the second immediate attempt has no token left.
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
	assert.Equal(t, "60", rec2.Header().Get("Retry-After"))
	assert.Contains(t, rec2.Body.String(), "RATE_LIMITED")

	// Reading the current user is not an auth attempt.
	rec3 := httptest.NewRecorder()
	handler.ServeHTTP(rec3, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	assert.Equal(t, http.StatusOK, rec3.Code)
}

func TestRateLimitMiddleware_PerClient(t *testing.T) {
	handler := NewRateLimitMiddleware(1, 10).Handler(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	first.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.9")
	second := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	second.Header.Set("X-Real-IP", "10.0.0.2")

	for _, req := range []*http.Request{first, second} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	again := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	again.Header.Set("X-Forwarded-For", "10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, again)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitMiddleware_Configuration(t *testing.T) {
	mw := NewRateLimitMiddleware(-1, 0)
	assert.Equal(t, -1, mw.generalRPM)
	assert.Equal(t, 10, mw.authRPM)
}
