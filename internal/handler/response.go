package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"booknest/internal/model"
	"booknest/internal/service"
	"booknest/pkg/apierror"
)

const maxBodyBytes = 1 << 20

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// writeError renders err into the envelope. Service failures already carry
// their display message; the status and redirect hint follow the kind.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "An unexpected error occurred.",
	}

	var apiErr *apierror.APIError
	var failure *service.Failure
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
		body.Redirect = apiErr.Redirect
	} else if errors.As(err, &failure) {
		status, body.Code = failureStatus(failure)
		body.Message = failure.Message
		body.Fields = failure.Fields
		body.Redirect = failureRedirect(failure)
		if status >= http.StatusInternalServerError {
			slog.Warn("backend failure surfaced", "kind", failure.Kind, "status", failure.Status, "error", err)
		}
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid request data"
	} else {
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

func failureStatus(f *service.Failure) (int, string) {
	switch f.Kind {
	case service.KindAuthRequired:
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case service.KindSessionExpired:
		return http.StatusUnauthorized, "SESSION_EXPIRED"
	case service.KindInvalidCredentials:
		return http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case service.KindRoleMismatch:
		return http.StatusForbidden, "ROLE_MISMATCH"
	case service.KindForbidden:
		return http.StatusForbidden, "FORBIDDEN"
	case service.KindValidation:
		return http.StatusBadRequest, "BAD_REQUEST"
	case service.KindNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case service.KindConflict:
		return http.StatusConflict, "CONFLICT"
	case service.KindRejected:
		return http.StatusUnprocessableEntity, "REJECTED"
	case service.KindServer:
		return http.StatusBadGateway, "BACKEND_ERROR"
	case service.KindNetwork:
		return http.StatusBadGateway, "BACKEND_UNREACHABLE"
	case service.KindTimeout:
		return http.StatusGatewayTimeout, "BACKEND_TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// failureRedirect sends expired or anonymous sessions to the login view and
// gate rejections to the unauthorized view. A backend 403 keeps the caller
// where it is.
func failureRedirect(f *service.Failure) string {
	switch {
	case f.Kind == service.KindAuthRequired, f.Kind == service.KindSessionExpired:
		return "/login"
	case f.Kind == service.KindRoleMismatch && errors.Is(f, model.ErrForbidden):
		return "/unauthorized"
	default:
		return ""
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return apierror.New("BAD_REQUEST", "invalid JSON body", err.Error(), http.StatusBadRequest)
	}
	return nil
}
