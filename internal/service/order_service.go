package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"booknest/internal/backend"
	"booknest/internal/event"
	"booknest/internal/model"
)

type orderAPI interface {
	AllOrders(ctx context.Context, token string) ([]backend.Order, error)
	ProcessOrder(ctx context.Context, token string, userID string, claimCode string) error
	SendProcessingNotification(ctx context.Context, token string, n backend.ProcessingNotification) (backend.EmailReceipt, error)
	ResendConfirmation(ctx context.Context, token string, orderID string) (backend.EmailReceipt, error)
}

const (
	msgOrderNoEmail        = "Order processed successfully! The customer has no email address on file."
	msgOrderEmailSent      = "Order processed successfully! Confirmation email sent to %s."
	msgOrderEmailPartial   = "Order processed successfully! However, there was an issue sending the confirmation email: %s"
	msgOrderRetryOK        = "Order processing retry successful!"
	msgOrderResendOK       = "Confirmation email resent successfully!"
	msgOrderBusy           = "This order is already being processed."
	msgOrderUnknownFailure = "Unknown error"
)

var loadOrderMessages = messages{
	fallback: "Failed to fetch orders. Please try again later.",
}

var processOrderMessages = messages{
	sessionExpired: "Your session has expired. Please log in again and try processing the order.",
	forbidden:      "You do not have permission to process orders. Please contact your administrator.",
	validation:     "Invalid request. Please check the order details and try again.",
	notFound:       "Order not found or endpoint does not exist. Please refresh the page and try again.",
	server:         "Server error occurred. Please try again in a few minutes or contact support.",
	network:        "Network connection error. Please check your internet connection and try again.",
	timeout:        "Request timed out. Please try again.",
	otherPrefix:    "Order processing failed",
	fallback:       "An unexpected error occurred while processing the order. Please try again or contact support.",
}

// OrderQueue is the staff view over pending orders for one session.
// Processing an order is two calls: the order transition, then the
// notification email. The second never undoes the first.
type OrderQueue struct {
	api   orderAPI
	scope SessionScope
	bus   event.Bus

	mu         sync.Mutex
	orders     []model.Order
	processing map[string]struct{}
	loading    bool
	lastError  string
}

func NewOrderQueue(api orderAPI, scope SessionScope, bus event.Bus) *OrderQueue {
	if bus == nil {
		bus = event.Nop{}
	}
	return &OrderQueue{
		api:        api,
		scope:      scope,
		bus:        bus,
		orders:     []model.Order{},
		processing: make(map[string]struct{}),
	}
}

// Load replaces the queue with the backend's pending orders.
func (q *OrderQueue) Load(ctx context.Context) ([]model.Order, error) {
	sess, err := q.staffSession(ctx)
	if err != nil {
		return nil, err
	}

	q.mu.Lock()
	q.loading = true
	q.mu.Unlock()

	raw, err := q.api.AllOrders(ctx, sess.AuthToken)
	if err != nil {
		f := classify(err, loadOrderMessages)
		expireOnUnauthorized(ctx, q.scope, q.bus, err)
		q.mu.Lock()
		q.loading = false
		q.lastError = f.Message
		q.mu.Unlock()
		slog.Warn("failed to load orders", "session_id", q.scope.ID(), "kind", f.Kind, "error", err)
		return nil, f
	}

	pending := make([]model.Order, 0, len(raw))
	for _, o := range raw {
		if o.Status != model.OrderStatusPending {
			continue
		}
		pending = append(pending, o.Normalize())
	}

	q.mu.Lock()
	q.orders = pending
	q.loading = false
	q.lastError = ""
	q.mu.Unlock()

	q.bus.Publish(event.New(q.scope.ID(), event.TypeOrdersLoaded, map[string]int{"pending": len(pending)}))

	return slices.Clone(pending), nil
}

// Pending returns the orders currently shown; it does not hit the network.
func (q *OrderQueue) Pending() []model.Order {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.orders)
}

func (q *OrderQueue) LastError() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastError
}

func (q *OrderQueue) IsLoading() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loading
}

// Processing reports whether an action on orderID is in flight.
func (q *OrderQueue) Processing(orderID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.processing[orderID]
	return ok
}

// Process marks the order processed and then sends the notification email.
// Once the first call succeeds the order leaves the queue; an email failure
// only downgrades the message to a partial success.
func (q *OrderQueue) Process(ctx context.Context, orderID string) (model.ProcessResult, error) {
	sess, order, release, err := q.claim(ctx, orderID)
	if err != nil {
		return model.ProcessResult{}, err
	}
	defer release()

	if err := q.api.ProcessOrder(ctx, sess.AuthToken, order.UserID, order.ClaimCode); err != nil {
		f := classify(err, processOrderMessages)
		if rejected(err) {
			f.Message = firstNonEmpty(backendMessage(err), "Failed to process order")
		}
		expireOnUnauthorized(ctx, q.scope, q.bus, err)
		q.recordError(f.Message)
		slog.Warn("order processing failed", "order_id", orderID, "kind", f.Kind, "error", err)
		return model.ProcessResult{}, f
	}

	remaining := q.remove(orderID)
	result := model.ProcessResult{OrderID: orderID, Remaining: remaining}

	if !order.HasEmail() {
		result.Message = msgOrderNoEmail
		slog.Warn("processed order has no email address", "order_id", orderID)
		q.publishProcessed(result)
		return result, nil
	}

	receipt, err := q.api.SendProcessingNotification(ctx, sess.AuthToken, backend.ProcessingNotification{
		OrderID:      order.ID,
		UserID:       order.UserID,
		ClaimCode:    order.ClaimCode,
		UserEmail:    order.UserEmail,
		UserFullName: order.UserFullName,
	})
	switch {
	case err != nil:
		expireOnUnauthorized(ctx, q.scope, q.bus, err)
		result.EmailError = firstNonEmpty(backendMessage(err), Describe(err), msgOrderUnknownFailure)
		result.Message = fmt.Sprintf(msgOrderEmailPartial, result.EmailError)
		slog.Warn("processing notification failed", "order_id", orderID, "error", err)
	case receipt.Delivered():
		result.EmailSent = true
		result.Message = fmt.Sprintf(msgOrderEmailSent, order.UserEmail)
	default:
		result.EmailError = firstNonEmpty(receipt.Message, msgOrderUnknownFailure)
		result.Message = fmt.Sprintf(msgOrderEmailPartial, result.EmailError)
		slog.Warn("processing notification not delivered", "order_id", orderID, "message", receipt.Message)
	}

	q.publishProcessed(result)
	slog.Info("order processed", "order_id", orderID, "email_sent", result.EmailSent, "remaining", remaining)

	return result, nil
}

// Retry re-issues only the order transition and reloads the queue. No email
// is sent.
func (q *OrderQueue) Retry(ctx context.Context, orderID string) (string, error) {
	sess, order, release, err := q.claim(ctx, orderID)
	if err != nil {
		return "", err
	}

	err = q.api.ProcessOrder(ctx, sess.AuthToken, order.UserID, order.ClaimCode)
	release()
	if err != nil {
		expireOnUnauthorized(ctx, q.scope, q.bus, err)
		f := classify(err, messages{})
		f.Message = "Retry failed: " + firstNonEmpty(backendMessage(err), f.Message, msgOrderUnknownFailure)
		q.recordError(f.Message)
		return "", f
	}

	if _, err := q.Load(ctx); err != nil {
		slog.Warn("failed to reload orders after retry", "order_id", orderID, "error", err)
	}

	return msgOrderRetryOK, nil
}

// Resend asks the backend to send the confirmation email again.
func (q *OrderQueue) Resend(ctx context.Context, orderID string) (string, error) {
	sess, err := q.staffSession(ctx)
	if err != nil {
		return "", err
	}
	release, err := q.lock(orderID)
	if err != nil {
		return "", err
	}
	defer release()

	receipt, err := q.api.ResendConfirmation(ctx, sess.AuthToken, orderID)
	if err != nil {
		expireOnUnauthorized(ctx, q.scope, q.bus, err)
		f := classify(err, messages{})
		f.Message = "Failed to resend confirmation email: " + firstNonEmpty(backendMessage(err), f.Message, msgOrderUnknownFailure)
		q.recordError(f.Message)
		return "", f
	}
	if !receipt.Success {
		f := newFailure(KindRejected, firstNonEmpty(receipt.Message, "Failed to resend confirmation email"), nil)
		q.recordError(f.Message)
		return "", f
	}

	q.recordError("")
	return msgOrderResendOK, nil
}

func rejected(err error) bool {
	var apiErr *backend.Error
	return errors.As(err, &apiErr) && apiErr.Rejected
}

func (q *OrderQueue) staffSession(ctx context.Context) (model.Session, error) {
	sess, err := q.scope.Load(ctx)
	if err != nil {
		return model.Session{}, fmt.Errorf("load session: %w", err)
	}
	if err := RequireRole(sess, model.RoleStaff); err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

// claim resolves a queued order and marks it in flight.
func (q *OrderQueue) claim(ctx context.Context, orderID string) (model.Session, model.Order, func(), error) {
	sess, err := q.staffSession(ctx)
	if err != nil {
		return model.Session{}, model.Order{}, nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	idx := slices.IndexFunc(q.orders, func(o model.Order) bool { return o.ID == orderID })
	if idx < 0 {
		f := newFailure(KindNotFound, "Order not found", model.ErrOrderNotFound)
		q.lastError = f.Message
		return model.Session{}, model.Order{}, nil, f
	}
	order := q.orders[idx]

	release, err := q.markLocked(orderID)
	if err != nil {
		return model.Session{}, model.Order{}, nil, err
	}
	q.lastError = ""

	return sess, order, release, nil
}

func (q *OrderQueue) lock(orderID string) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.markLocked(orderID)
}

// markLocked takes the in-flight slot for orderID. q.mu must be held.
func (q *OrderQueue) markLocked(orderID string) (func(), error) {
	if _, busy := q.processing[orderID]; busy {
		return nil, newFailure(KindConflict, msgOrderBusy, nil)
	}
	q.processing[orderID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			q.mu.Lock()
			delete(q.processing, orderID)
			q.mu.Unlock()
		})
	}, nil
}

func (q *OrderQueue) remove(orderID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.orders = slices.DeleteFunc(q.orders, func(o model.Order) bool { return o.ID == orderID })
	return len(q.orders)
}

func (q *OrderQueue) recordError(message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lastError = message
}

func (q *OrderQueue) publishProcessed(result model.ProcessResult) {
	q.bus.Publish(event.New(q.scope.ID(), event.TypeOrderProcessed, result))
}
