package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"booknest/internal/backend"
	"booknest/internal/event"
	"booknest/internal/model"
	"booknest/internal/session"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) GetCart(ctx context.Context, token string) (backend.Cart, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(backend.Cart), args.Error(1)
}

func (m *mockBackend) AddToCart(ctx context.Context, token string, bookID int64, quantity int) error {
	return m.Called(ctx, token, bookID, quantity).Error(0)
}

func (m *mockBackend) RemoveFromCart(ctx context.Context, token string, bookID int64) error {
	return m.Called(ctx, token, bookID).Error(0)
}

func (m *mockBackend) UpdateCartItem(ctx context.Context, token string, bookID int64, quantity int) error {
	return m.Called(ctx, token, bookID, quantity).Error(0)
}

func (m *mockBackend) ClearCart(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockBackend) AllOrders(ctx context.Context, token string) ([]backend.Order, error) {
	args := m.Called(ctx, token)
	orders, _ := args.Get(0).([]backend.Order)
	return orders, args.Error(1)
}

func (m *mockBackend) ProcessOrder(ctx context.Context, token string, userID string, claimCode string) error {
	return m.Called(ctx, token, userID, claimCode).Error(0)
}

func (m *mockBackend) SendProcessingNotification(ctx context.Context, token string, n backend.ProcessingNotification) (backend.EmailReceipt, error) {
	args := m.Called(ctx, token, n)
	return args.Get(0).(backend.EmailReceipt), args.Error(1)
}

func (m *mockBackend) ResendConfirmation(ctx context.Context, token string, orderID string) (backend.EmailReceipt, error) {
	args := m.Called(ctx, token, orderID)
	return args.Get(0).(backend.EmailReceipt), args.Error(1)
}

func (m *mockBackend) CountBooks(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

func (m *mockBackend) CountDiscounts(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

func (m *mockBackend) CountOrders(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

func (m *mockBackend) Register(ctx context.Context, payload backend.RegisterPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) Login(ctx context.Context, email string, password string) (*backend.LoginResult, error) {
	args := m.Called(ctx, email, password)
	result, _ := args.Get(0).(*backend.LoginResult)
	return result, args.Error(1)
}

func (m *mockBackend) FetchAsset(ctx context.Context, ref string, maxBytes int64) ([]byte, string, error) {
	args := m.Called(ctx, ref, maxBytes)
	data, _ := args.Get(0).([]byte)
	return data, args.String(1), args.Error(2)
}

// newScope returns a memory-backed scope, signed in as role when role is
// not empty.
func newScope(t *testing.T, role model.Role) (*session.Scope, session.Store) {
	t.Helper()

	store := session.NewMemoryStore()
	scope := session.NewScope(store, "session-1", time.Hour)
	if role != "" {
		require.NoError(t, scope.Save(context.Background(), model.Session{
			AuthToken:    "tok",
			RefreshToken: "ref",
			UserID:       "u-1",
			Role:         role,
		}))
	}
	return scope, store
}

// drain returns every event already buffered on ch.
func drain(ch <-chan event.Event) []event.Event {
	var out []event.Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func eventTypes(events []event.Event) []event.Type {
	out := make([]event.Type, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
