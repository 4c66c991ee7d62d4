package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the storefront origins to call the gateway with the session
// cookie attached.
func CORS(origins []string) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		MaxAge:           3600,
		AllowCredentials: true,
	}
	if len(origins) == 0 {
		options.AllowedOrigins = nil
		options.AllowCredentials = false
	}

	return cors.New(options).Handler
}
