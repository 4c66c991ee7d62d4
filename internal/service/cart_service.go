package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"booknest/internal/backend"
	"booknest/internal/event"
	"booknest/internal/model"
)

type cartAPI interface {
	GetCart(ctx context.Context, token string) (backend.Cart, error)
	AddToCart(ctx context.Context, token string, bookID int64, quantity int) error
	RemoveFromCart(ctx context.Context, token string, bookID int64) error
	UpdateCartItem(ctx context.Context, token string, bookID int64, quantity int) error
	ClearCart(ctx context.Context, token string) error
}

const (
	msgCartLoginRequired = "You must be logged in to view your cart."
	msgCartStaffAdmin    = "Cart functionality is not available for Admin and Staff users."
	msgCartMemberOnly    = "Cart functionality is only available for Member users."
	msgCartAccessDenied  = "Access denied. Cart functionality is only available for Member users."
)

// CartSynchronizer mirrors the remote cart of one session. Every successful
// mutation is followed by a full refresh, so after any completed call the
// items equal the server's cart; there is no optimistic local patching.
//
// Concurrent mutations are not sequenced. Two overlapping quantity changes
// race at the backend and whichever refresh lands last wins.
type CartSynchronizer struct {
	api   cartAPI
	scope SessionScope
	bus   event.Bus

	mu        sync.Mutex
	items     []model.CartLine
	itemCount int
	inFlight  int
	lastError string
	role      model.Role
	state     model.CartState
}

func NewCartSynchronizer(api cartAPI, scope SessionScope, bus event.Bus) *CartSynchronizer {
	if bus == nil {
		bus = event.Nop{}
	}
	return &CartSynchronizer{
		api:   api,
		scope: scope,
		bus:   bus,
		items: []model.CartLine{},
		role:  model.RoleUnknown,
		state: model.CartUnauthenticated,
	}
}

var cartReadMessages = messages{
	forbidden: msgCartAccessDenied,
	fallback:  "Failed to fetch cart. Please try again later.",
}

func cartWriteMessages(fallback string) messages {
	return messages{
		forbidden:  msgCartAccessDenied,
		validation: "Invalid request data",
		fallback:   fallback,
	}
}

// Refresh re-reads the whole cart. Non-Member sessions never reach the
// network: their cart is emptied and an explanatory error recorded.
func (c *CartSynchronizer) Refresh(ctx context.Context) error {
	sess, err := c.scope.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	c.mu.Lock()
	c.role = sess.Role
	c.mu.Unlock()

	if !sess.Authenticated() {
		f := newFailure(KindAuthRequired, msgCartLoginRequired, model.ErrAuthRequired)
		c.reset(f.Message, model.CartUnauthenticated)
		return f
	}

	if sess.Role != model.RoleMember {
		message := msgCartMemberOnly
		if sess.Role == model.RoleAdmin || sess.Role == model.RoleStaff {
			message = msgCartStaffAdmin
		}
		f := newFailure(KindRoleMismatch, message, model.ErrMemberOnly)
		c.reset(f.Message, model.CartError)
		return f
	}

	c.begin()
	cart, err := c.api.GetCart(ctx, sess.AuthToken)
	if err != nil {
		f := classify(err, cartReadMessages)
		expireOnUnauthorized(ctx, c.scope, c.bus, err)
		// Items are dropped along with the count so the view never shows a
		// cart that no longer matches the server.
		c.finish(func() {
			c.items = []model.CartLine{}
			c.itemCount = 0
			c.lastError = f.Message
			c.state = model.CartError
		})
		c.bus.Publish(event.New(c.scope.ID(), event.TypeCartFailed, map[string]string{"error": f.Message}))
		slog.Warn("cart refresh failed", "session_id", c.scope.ID(), "kind", f.Kind, "error", err)
		return f
	}

	lines := cart.Lines()
	c.finish(func() {
		c.items = lines
		c.itemCount = cart.ItemCount
		c.lastError = ""
		c.state = model.CartReady
	})
	c.bus.Publish(event.New(c.scope.ID(), event.TypeCartUpdated, c.Snapshot()))

	return nil
}

// AddItem adds quantity copies of a book; quantity below 1 means 1.
func (c *CartSynchronizer) AddItem(ctx context.Context, bookID int64, quantity int) error {
	if quantity <= 0 {
		quantity = 1
	}
	return c.mutate(ctx, "add items to cart", "Failed to add item to cart", validBook(bookID), func(token string) error {
		return c.api.AddToCart(ctx, token, bookID, quantity)
	})
}

func (c *CartSynchronizer) RemoveItem(ctx context.Context, bookID int64) error {
	return c.mutate(ctx, "remove items from cart", "Failed to remove item from cart", validBook(bookID), func(token string) error {
		return c.api.RemoveFromCart(ctx, token, bookID)
	})
}

// SetQuantity replaces a line's quantity. Quantities below 1 are refused;
// RemoveItem drops a line.
func (c *CartSynchronizer) SetQuantity(ctx context.Context, bookID int64, quantity int) error {
	check := validBook(bookID)
	if check == nil && quantity < 1 {
		check = newFailure(KindValidation, "Quantity must be at least 1", model.ErrInvalidInput)
	}
	return c.mutate(ctx, "update cart", "Failed to update cart", check, func(token string) error {
		return c.api.UpdateCartItem(ctx, token, bookID, quantity)
	})
}

func (c *CartSynchronizer) Clear(ctx context.Context) error {
	return c.mutate(ctx, "clear cart", "Failed to clear cart", nil, func(token string) error {
		return c.api.ClearCart(ctx, token)
	})
}

func validBook(bookID int64) *Failure {
	if bookID <= 0 {
		return newFailure(KindValidation, "A valid book is required", model.ErrInvalidInput)
	}
	return nil
}

// mutate checks the token and the Member role, then the input failure if
// any, before any network call. It runs the write and then resynchronises.
func (c *CartSynchronizer) mutate(ctx context.Context, action string, fallback string, invalid *Failure, write func(token string) error) error {
	sess, err := c.scope.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	if err := requireAuthenticated(sess, "You must be logged in to "+action); err != nil {
		c.recordError(err.Error())
		return err
	}
	if sess.Role != model.RoleMember {
		f := newFailure(KindRoleMismatch, msgCartMemberOnly, model.ErrMemberOnly)
		c.recordError(f.Message)
		return f
	}
	if invalid != nil {
		c.recordError(invalid.Message)
		return invalid
	}

	c.begin()
	err = write(sess.AuthToken)
	c.finish(nil)

	if err != nil {
		f := classify(err, cartWriteMessages(fallback))
		expireOnUnauthorized(ctx, c.scope, c.bus, err)
		c.recordError(f.Message)
		c.bus.Publish(event.New(c.scope.ID(), event.TypeCartFailed, map[string]string{"error": f.Message}))
		slog.Warn("cart mutation failed", "session_id", c.scope.ID(), "action", action, "kind", f.Kind, "error", err)
		return f
	}

	return c.Refresh(ctx)
}

// TotalPrice is recomputed from the current lines on every call.
func (c *CartSynchronizer) TotalPrice() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.TotalPrice(c.items)
}

// LineCount sums quantities; len(Items()) counts distinct books instead.
func (c *CartSynchronizer) LineCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.LineCount(c.items)
}

func (c *CartSynchronizer) Items() []model.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

func (c *CartSynchronizer) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.itemCount
}

func (c *CartSynchronizer) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

func (c *CartSynchronizer) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

func (c *CartSynchronizer) Role() model.Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

func (c *CartSynchronizer) IsMember() bool { return c.Role() == model.RoleMember }
func (c *CartSynchronizer) IsStaff() bool  { return c.Role() == model.RoleStaff }
func (c *CartSynchronizer) IsAdmin() bool  { return c.Role() == model.RoleAdmin }

func (c *CartSynchronizer) Snapshot() model.CartSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := slices.Clone(c.items)
	if items == nil {
		items = []model.CartLine{}
	}

	return model.CartSnapshot{
		Items:      items,
		ItemCount:  c.itemCount,
		LineCount:  model.LineCount(items),
		TotalPrice: model.TotalPrice(items),
		IsLoading:  c.inFlight > 0,
		State:      c.state,
		LastError:  c.lastError,
		Role:       c.role,
	}
}

func (c *CartSynchronizer) begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight++
	c.state = model.CartLoading
	c.lastError = ""
}

func (c *CartSynchronizer) finish(apply func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight > 0 {
		c.inFlight--
	}
	if apply != nil {
		apply()
	}
	if c.inFlight == 0 && c.state == model.CartLoading {
		c.state = model.CartReady
	}
}

func (c *CartSynchronizer) reset(message string, state model.CartState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = []model.CartLine{}
	c.itemCount = 0
	c.lastError = message
	c.state = state
}

func (c *CartSynchronizer) recordError(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = message
	c.state = model.CartError
}
