package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"booknest/internal/backend"
	"booknest/internal/event"
	"booknest/internal/model"
)

func TestDashboardService_Stats(t *testing.T) {
	api := new(mockBackend)
	scope, _ := newScope(t, model.RoleAdmin)
	svc := NewDashboardService(api, nil)

	api.On("CountBooks", mock.Anything, "tok").Return(120, nil).Once()
	api.On("CountDiscounts", mock.Anything, "tok").Return(8, nil).Once()
	api.On("CountOrders", mock.Anything, "tok").Return(31, nil).Once()

	stats, err := svc.Stats(context.Background(), scope)
	require.NoError(t, err)
	assert.Equal(t, model.DashboardStats{TotalBooks: 120, BooksOnSale: 8, TotalOrders: 31}, stats)
	api.AssertExpectations(t)
}

func TestDashboardService_RequiresAdmin(t *testing.T) {
	api := new(mockBackend)
	scope, _ := newScope(t, model.RoleStaff)
	svc := NewDashboardService(api, nil)

	_, err := svc.Stats(context.Background(), scope)
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.Equal(t, "This feature requires Admin role. Your current role is Staff.", err.Error())

	anonymous, _ := newScope(t, "")
	_, err = svc.Stats(context.Background(), anonymous)
	assert.ErrorIs(t, err, model.ErrAuthRequired)

	api.AssertExpectations(t)
}

func TestDashboardService_UnauthorizedExpiresSession(t *testing.T) {
	api := new(mockBackend)
	scope, _ := newScope(t, model.RoleAdmin)
	bus := event.NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()
	svc := NewDashboardService(api, bus)

	api.On("CountBooks", mock.Anything, "tok").Return(0, &backend.Error{Status: 401}).Once()
	api.On("CountDiscounts", mock.Anything, "tok").Return(8, nil).Maybe()
	api.On("CountOrders", mock.Anything, "tok").Return(31, nil).Maybe()

	_, err := svc.Stats(context.Background(), scope)
	assert.Equal(t, KindSessionExpired, KindOf(err))

	sess, loadErr := scope.Load(context.Background())
	require.NoError(t, loadErr)
	assert.False(t, sess.Authenticated())
	assert.Equal(t, []event.Type{event.TypeSessionExpired}, eventTypes(drain(events)))
}

func TestDashboardService_ServerFailure(t *testing.T) {
	api := new(mockBackend)
	scope, _ := newScope(t, model.RoleAdmin)
	svc := NewDashboardService(api, nil)

	api.On("CountBooks", mock.Anything, "tok").Return(120, nil).Maybe()
	api.On("CountDiscounts", mock.Anything, "tok").Return(0, &backend.Error{Status: 502}).Once()
	api.On("CountOrders", mock.Anything, "tok").Return(31, nil).Maybe()

	_, err := svc.Stats(context.Background(), scope)
	assert.Equal(t, KindServer, KindOf(err))

	sess, loadErr := scope.Load(context.Background())
	require.NoError(t, loadErr)
	assert.True(t, sess.Authenticated())
}
