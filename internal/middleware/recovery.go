package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"booknest/internal/model"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				slog.Error("panic recovered",
					"error", fmt.Sprintf("%v", recovered),
					"path", r.URL.Path,
					"session_id", SessionIDFromContext(r.Context()),
					"stack", string(debug.Stack()),
				)
				writeFailure(w, http.StatusInternalServerError, &model.APIError{
					Code:    "INTERNAL_ERROR",
					Message: "An unexpected error occurred.",
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
