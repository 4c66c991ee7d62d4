package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"booknest/internal/backend"
	"booknest/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     Kind
		message  string
		sentinel error
	}{
		{"timeout", &backend.Error{Network: true, Timeout: true, Err: context.DeadlineExceeded}, KindTimeout, genericMessages.timeout, nil},
		{"network", &backend.Error{Network: true, Err: errors.New("refused")}, KindNetwork, genericMessages.network, nil},
		{"unauthorized", &backend.Error{Status: 401}, KindSessionExpired, genericMessages.sessionExpired, model.ErrSessionExpired},
		{"forbidden", &backend.Error{Status: 403}, KindForbidden, genericMessages.forbidden, model.ErrForbidden},
		{"validation keeps server text", &backend.Error{Status: 400, Message: "Quantity must be positive"}, KindValidation, "Quantity must be positive", model.ErrInvalidInput},
		{"validation default", &backend.Error{Status: 400}, KindValidation, genericMessages.validation, model.ErrInvalidInput},
		{"not found", &backend.Error{Status: 404}, KindNotFound, genericMessages.notFound, nil},
		{"conflict", &backend.Error{Status: 409, Message: "Already in cart"}, KindConflict, "Already in cart", nil},
		{"server", &backend.Error{Status: 500, Message: "stack trace"}, KindServer, genericMessages.server, nil},
		{"rejected", &backend.Error{Status: 200, Rejected: true, Message: "Out of stock"}, KindRejected, "Out of stock", nil},
		{"wrapped", fmt.Errorf("cart: %w", &backend.Error{Status: 404}), KindNotFound, genericMessages.notFound, nil},
		{"plain", errors.New("boom"), KindUnknown, genericMessages.fallback, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.message, Describe(tt.err))

			f := classify(tt.err, messages{})
			assert.ErrorIs(t, f, tt.err)
			if tt.sentinel != nil {
				assert.ErrorIs(t, f, tt.sentinel)
			}
		})
	}
}

func TestClassifyCustomMessages(t *testing.T) {
	m := messages{notFound: "Order not found", fallback: "Order failed"}

	assert.Equal(t, "Order not found", classify(&backend.Error{Status: 404}, m).Message)
	assert.Equal(t, genericMessages.forbidden, classify(&backend.Error{Status: 403}, m).Message)
	assert.Equal(t, "Order failed", classify(errors.New("x"), m).Message)
}

func TestClassifyKeepsFailure(t *testing.T) {
	f := newFailure(KindRoleMismatch, "members only", model.ErrMemberOnly)
	wrapped := fmt.Errorf("view: %w", f)

	assert.Same(t, f, classify(wrapped, messages{}))
	assert.Equal(t, KindRoleMismatch, KindOf(wrapped))
	assert.Equal(t, "members only", Describe(wrapped))
	assert.Empty(t, Describe(nil))
}
