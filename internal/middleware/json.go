package middleware

import (
	"encoding/json"
	"net/http"

	"booknest/internal/model"
)

func jsonEncode(w http.ResponseWriter, value any) error {
	return json.NewEncoder(w).Encode(value)
}

func writeFailure(w http.ResponseWriter, status int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonEncode(w, model.APIResponse{Success: false, Error: apiErr})
}
