package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"booknest/internal/backend"
	"booknest/internal/event"
	"booknest/internal/model"
)

func cartWith(quantity int) backend.Cart {
	return backend.Cart{
		Items: []backend.CartItem{{
			BookID:             7,
			BookTitle:          "Dune",
			UnitPrice:          30,
			Quantity:           quantity,
			LineTotal:          30 * float64(quantity),
			DiscountPercentage: ptr(25.0),
			OriginalPrice:      ptr(40.0),
		}},
		ItemCount: quantity,
	}
}

func TestCartSynchronizer_NonMemberNeverCallsBackend(t *testing.T) {
	tests := []struct {
		role    model.Role
		message string
	}{
		{model.RoleStaff, msgCartStaffAdmin},
		{model.RoleAdmin, msgCartStaffAdmin},
		{model.RoleUnknown, msgCartMemberOnly},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			api := new(mockBackend)
			scope, _ := newScope(t, tt.role)
			cart := NewCartSynchronizer(api, scope, nil)

			err := cart.Refresh(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrMemberOnly)
			assert.Equal(t, KindRoleMismatch, KindOf(err))
			assert.Equal(t, tt.message, err.Error())

			err = cart.AddItem(context.Background(), 7, 1)
			assert.ErrorIs(t, err, model.ErrMemberOnly)
			assert.Equal(t, msgCartMemberOnly, cart.LastError())

			assert.Empty(t, cart.Items())
			assert.Zero(t, cart.ItemCount())
			assert.Equal(t, tt.role, cart.Role())
			api.AssertNotCalled(t, "GetCart", mock.Anything, mock.Anything)
			api.AssertNotCalled(t, "AddToCart", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCartSynchronizer_RequiresToken(t *testing.T) {
	api := new(mockBackend)
	scope, _ := newScope(t, "")
	cart := NewCartSynchronizer(api, scope, nil)

	err := cart.Refresh(context.Background())
	assert.ErrorIs(t, err, model.ErrAuthRequired)
	assert.Equal(t, msgCartLoginRequired, err.Error())
	assert.Equal(t, model.CartUnauthenticated, cart.Snapshot().State)

	err = cart.AddItem(context.Background(), 7, 1)
	assert.ErrorIs(t, err, model.ErrAuthRequired)
	assert.Equal(t, "You must be logged in to add items to cart", err.Error())

	err = cart.Clear(context.Background())
	assert.Equal(t, "You must be logged in to clear cart", err.Error())

	api.AssertExpectations(t)
}

func TestCartSynchronizer_AddItemResynchronises(t *testing.T) {
	api := new(mockBackend)
	scope, _ := newScope(t, model.RoleMember)
	bus := event.NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()
	cart := NewCartSynchronizer(api, scope, bus)

	api.On("AddToCart", mock.Anything, "tok", int64(7), 1).Return(nil).Twice()
	api.On("GetCart", mock.Anything, "tok").Return(cartWith(1), nil).Once()
	api.On("GetCart", mock.Anything, "tok").Return(cartWith(2), nil).Once()

	require.NoError(t, cart.AddItem(context.Background(), 7, 1))
	assert.Equal(t, 1, cart.ItemCount())

	require.NoError(t, cart.AddItem(context.Background(), 7, 0))
	assert.Equal(t, 2, cart.ItemCount())
	assert.Equal(t, 2, cart.LineCount())
	assert.InDelta(t, 60.0, cart.TotalPrice(), 1e-9)
	assert.False(t, cart.IsLoading())
	assert.Empty(t, cart.LastError())

	snap := cart.Snapshot()
	assert.Equal(t, model.CartReady, snap.State)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Dune", snap.Items[0].Title)

	assert.Equal(t, []event.Type{event.TypeCartUpdated, event.TypeCartUpdated}, eventTypes(drain(events)))
	api.AssertExpectations(t)
}

func TestCartSynchronizer_RejectsInvalidBook(t *testing.T) {
	api := new(mockBackend)
	scope, _ := newScope(t, model.RoleMember)
	cart := NewCartSynchronizer(api, scope, nil)

	err := cart.RemoveItem(context.Background(), 0)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Equal(t, KindValidation, KindOf(err))

	err = cart.SetQuantity(context.Background(), -4, 2)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	err = cart.AddItem(context.Background(), -1, 1)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	for _, quantity := range []int{0, -1} {
		err = cart.SetQuantity(context.Background(), 7, quantity)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
		assert.Equal(t, KindValidation, KindOf(err))
		assert.Equal(t, "Quantity must be at least 1", cart.LastError())
	}

	api.AssertNotCalled(t, "AddToCart", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "UpdateCartItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "RemoveFromCart", mock.Anything, mock.Anything, mock.Anything)
	api.AssertExpectations(t)
}

func TestCartSynchronizer_MutationsReplaceSnapshot(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(api *mockBackend)
		run       func(cart *CartSynchronizer) error
		server    backend.Cart
		wantLines int
		wantCount int
	}{
		{
			name: "remove",
			setup: func(api *mockBackend) {
				api.On("RemoveFromCart", mock.Anything, "tok", int64(7)).Return(nil).Once()
			},
			run:    func(cart *CartSynchronizer) error { return cart.RemoveItem(context.Background(), 7) },
			server: backend.Cart{},
		},
		{
			name: "set quantity",
			setup: func(api *mockBackend) {
				api.On("UpdateCartItem", mock.Anything, "tok", int64(7), 3).Return(nil).Once()
			},
			run:       func(cart *CartSynchronizer) error { return cart.SetQuantity(context.Background(), 7, 3) },
			server:    cartWith(3),
			wantLines: 1,
			wantCount: 3,
		},
		{
			name: "clear",
			setup: func(api *mockBackend) {
				api.On("ClearCart", mock.Anything, "tok").Return(nil).Once()
			},
			run:    func(cart *CartSynchronizer) error { return cart.Clear(context.Background()) },
			server: backend.Cart{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(mockBackend)
			scope, _ := newScope(t, model.RoleMember)
			bus := event.NewBus()
			events, unsubscribe := bus.Subscribe()
			defer unsubscribe()
			cart := NewCartSynchronizer(api, scope, bus)

			api.On("GetCart", mock.Anything, "tok").Return(cartWith(2), nil).Once()
			require.NoError(t, cart.Refresh(context.Background()))
			drain(events)

			tt.setup(api)
			api.On("GetCart", mock.Anything, "tok").Return(tt.server, nil).Once()

			require.NoError(t, tt.run(cart))
			assert.Len(t, cart.Items(), tt.wantLines)
			assert.Equal(t, tt.wantCount, cart.ItemCount())
			assert.Equal(t, tt.wantCount, cart.LineCount())
			assert.Empty(t, cart.LastError())
			assert.Equal(t, model.CartReady, cart.Snapshot().State)
			assert.Equal(t, []event.Type{event.TypeCartUpdated}, eventTypes(drain(events)))

			api.AssertExpectations(t)
			api.AssertNumberOfCalls(t, "GetCart", 2)
		})
	}
}

func TestCartSynchronizer_AddNewBookAddsLine(t *testing.T) {
	api := new(mockBackend)
	scope, _ := newScope(t, model.RoleMember)
	cart := NewCartSynchronizer(api, scope, nil)

	emma := backend.CartItem{BookID: 9, BookTitle: "Emma", UnitPrice: 10, Quantity: 1, LineTotal: 10}
	twoBooks := cartWith(1)
	twoBooks.Items = append(twoBooks.Items, emma)
	twoBooks.ItemCount = 2
	sameBookTwice := cartWith(2)
	sameBookTwice.Items = append(sameBookTwice.Items, emma)
	sameBookTwice.ItemCount = 3

	api.On("GetCart", mock.Anything, "tok").Return(cartWith(1), nil).Once()
	require.NoError(t, cart.Refresh(context.Background()))
	require.Len(t, cart.Items(), 1)

	api.On("AddToCart", mock.Anything, "tok", int64(9), 1).Return(nil).Once()
	api.On("GetCart", mock.Anything, "tok").Return(twoBooks, nil).Once()
	require.NoError(t, cart.AddItem(context.Background(), 9, 1))
	assert.Len(t, cart.Items(), 2)

	api.On("AddToCart", mock.Anything, "tok", int64(7), 1).Return(nil).Once()
	api.On("GetCart", mock.Anything, "tok").Return(sameBookTwice, nil).Once()
	require.NoError(t, cart.AddItem(context.Background(), 7, 1))
	assert.Len(t, cart.Items(), 2)
	assert.Equal(t, 3, cart.LineCount())

	api.AssertExpectations(t)
}

func TestCartSynchronizer_UnauthorizedExpiresSession(t *testing.T) {
	api := new(mockBackend)
	scope, store := newScope(t, model.RoleMember)
	bus := event.NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()
	cart := NewCartSynchronizer(api, scope, bus)

	api.On("UpdateCartItem", mock.Anything, "tok", int64(7), 3).Return(&backend.Error{Status: 401}).Once()

	err := cart.SetQuantity(context.Background(), 7, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSessionExpired)
	assert.Equal(t, KindSessionExpired, KindOf(err))
	assert.Equal(t, genericMessages.sessionExpired, cart.LastError())

	_, loadErr := store.Load(context.Background(), scope.ID())
	assert.ErrorIs(t, loadErr, model.ErrSessionNotFound)

	sess, err := scope.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	assert.Empty(t, sess.RefreshToken)
	assert.Empty(t, sess.UserID)
	assert.Empty(t, sess.User)
	assert.Equal(t, model.RoleUnknown, sess.Role)

	types := eventTypes(drain(events))
	assert.Contains(t, types, event.TypeSessionExpired)
	assert.Contains(t, types, event.TypeCartFailed)
	api.AssertNotCalled(t, "GetCart", mock.Anything, mock.Anything)
}

func TestCartSynchronizer_RefreshFailureClearsItems(t *testing.T) {
	api := new(mockBackend)
	scope, _ := newScope(t, model.RoleMember)
	cart := NewCartSynchronizer(api, scope, nil)

	api.On("GetCart", mock.Anything, "tok").Return(cartWith(2), nil).Once()
	api.On("GetCart", mock.Anything, "tok").Return(backend.Cart{}, &backend.Error{Status: 500}).Once()

	require.NoError(t, cart.Refresh(context.Background()))
	require.Len(t, cart.Items(), 1)

	err := cart.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindServer, KindOf(err))
	assert.Empty(t, cart.Items())
	assert.Zero(t, cart.ItemCount())
	assert.Equal(t, genericMessages.server, cart.LastError())
	assert.Equal(t, model.CartError, cart.Snapshot().State)
}

func TestCartSynchronizer_ForbiddenUsesCartMessage(t *testing.T) {
	api := new(mockBackend)
	scope, _ := newScope(t, model.RoleMember)
	cart := NewCartSynchronizer(api, scope, nil)

	api.On("ClearCart", mock.Anything, "tok").Return(&backend.Error{Status: 403}).Once()

	err := cart.Clear(context.Background())
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.Equal(t, msgCartAccessDenied, err.Error())
}

func TestCartSynchronizer_WriteFallbackMessage(t *testing.T) {
	api := new(mockBackend)
	scope, _ := newScope(t, model.RoleMember)
	cart := NewCartSynchronizer(api, scope, nil)

	api.On("RemoveFromCart", mock.Anything, "tok", int64(7)).Return(errors.New("boom")).Once()

	err := cart.RemoveItem(context.Background(), 7)
	assert.Equal(t, KindUnknown, KindOf(err))
	assert.Equal(t, "Failed to remove item from cart", err.Error())
}
