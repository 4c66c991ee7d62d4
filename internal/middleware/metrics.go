package middleware

import (
	"net/http"
	"time"
)

type requestObserver interface {
	ObserveRequest(method string, route string, status int, d time.Duration)
}

// Metrics records every request under its chi route pattern.
func Metrics(observer requestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			observer.ObserveRequest(r.Method, routePattern(r), wrapped.status, time.Since(started))
		})
	}
}
