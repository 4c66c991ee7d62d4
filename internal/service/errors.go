package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"booknest/internal/backend"
	"booknest/internal/model"
)

type Kind string

const (
	KindAuthRequired   Kind = "auth_required"
	KindRoleMismatch   Kind = "role_mismatch"
	KindSessionExpired Kind = "session_expired"
	KindForbidden      Kind = "forbidden"
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindServer         Kind = "server"
	KindNetwork        Kind = "network"
	KindTimeout        Kind = "timeout"
	KindRejected       Kind = "rejected"
	KindUnknown        Kind = "unknown"

	KindInvalidCredentials Kind = "invalid_credentials"
)

// Failure is an operation error already turned into a display message.
// It unwraps to both the model sentinel for its kind (when one exists) and
// the underlying cause.
type Failure struct {
	Kind    Kind
	Message string
	Status  int
	Fields  map[string]string

	sentinel error
	cause    error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() []error {
	out := make([]error, 0, 2)
	if f.sentinel != nil {
		out = append(out, f.sentinel)
	}
	if f.cause != nil {
		out = append(out, f.cause)
	}
	return out
}

func newFailure(kind Kind, message string, sentinel error) *Failure {
	return &Failure{Kind: kind, Message: message, sentinel: sentinel}
}

// messages customises the display text per operation. Empty fields fall
// back to the generic wording.
type messages struct {
	sessionExpired string
	forbidden      string
	validation     string
	notFound       string
	conflict       string
	server         string
	network        string
	timeout        string
	// otherPrefix wraps server messages for statuses with no dedicated text.
	otherPrefix string
	fallback    string
}

var genericMessages = messages{
	sessionExpired: "Your session has expired. Please log in again.",
	forbidden:      "Access denied. You do not have permission to perform this action.",
	validation:     "Invalid request data",
	notFound:       "The requested resource was not found.",
	conflict:       "The request conflicts with the current state of the resource.",
	server:         "Server error. Please try again later.",
	network:        "Unable to reach the BookNest service. Check your connection and try again.",
	timeout:        "Request timed out. Please try again.",
	fallback:       "An unexpected error occurred.",
}

func (m messages) or(field func(messages) string) string {
	if v := field(m); v != "" {
		return v
	}
	return field(genericMessages)
}

// classify maps a failed call onto the error taxonomy: 401 session expired,
// 403 forbidden, 400 validation (server text verbatim), 404, 409, 5xx,
// network and timeout.
func classify(err error, m messages) *Failure {
	if err == nil {
		return nil
	}

	var existing *Failure
	if errors.As(err, &existing) {
		return existing
	}

	var apiErr *backend.Error
	if !errors.As(err, &apiErr) {
		return &Failure{Kind: KindUnknown, Message: m.or(func(x messages) string { return x.fallback }), cause: err}
	}

	f := &Failure{Status: apiErr.Status, cause: err}
	switch {
	case apiErr.Network && apiErr.Timeout:
		f.Kind = KindTimeout
		f.Message = m.or(func(x messages) string { return x.timeout })
	case apiErr.Network:
		f.Kind = KindNetwork
		f.Message = m.or(func(x messages) string { return x.network })
	case apiErr.Rejected:
		f.Kind = KindRejected
		f.Message = firstNonEmpty(apiErr.Message, m.or(func(x messages) string { return x.fallback }))
	case apiErr.Status == http.StatusUnauthorized:
		f.Kind = KindSessionExpired
		f.Message = m.or(func(x messages) string { return x.sessionExpired })
		f.sentinel = model.ErrSessionExpired
	case apiErr.Status == http.StatusForbidden:
		f.Kind = KindForbidden
		f.Message = m.or(func(x messages) string { return x.forbidden })
		f.sentinel = model.ErrForbidden
	case apiErr.Status == http.StatusBadRequest:
		f.Kind = KindValidation
		f.Message = firstNonEmpty(apiErr.Message, m.or(func(x messages) string { return x.validation }))
		f.sentinel = model.ErrInvalidInput
	case apiErr.Status == http.StatusNotFound:
		f.Kind = KindNotFound
		f.Message = m.or(func(x messages) string { return x.notFound })
	case apiErr.Status == http.StatusConflict:
		f.Kind = KindConflict
		f.Message = firstNonEmpty(m.conflict, apiErr.Message, genericMessages.conflict)
	case apiErr.Status >= 500:
		f.Kind = KindServer
		f.Message = m.or(func(x messages) string { return x.server })
	case apiErr.Message != "" && m.otherPrefix != "":
		f.Kind = KindRejected
		f.Message = fmt.Sprintf("%s: %s", m.otherPrefix, apiErr.Message)
	default:
		f.Kind = KindRejected
		f.Message = firstNonEmpty(apiErr.Message, m.or(func(x messages) string { return x.fallback }))
	}

	return f
}

// Describe renders any error with the generic wording.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	return classify(err, messages{}).Message
}

// KindOf reports the taxonomy bucket of err, KindUnknown when unclassified.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return classify(err, messages{}).Kind
}

func backendMessage(err error) string {
	var apiErr *backend.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
