package backend

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) AllOrders(ctx context.Context, token string) ([]Order, error) {
	var orders []Order
	_, err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/api/orders/all-orders",
		path:   "/api/orders/all-orders",
		token:  token,
		out:    &orders,
	})
	return orders, err
}

func (c *Client) ProcessOrder(ctx context.Context, token string, userID string, claimCode string) error {
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/api/orders/process",
		path:   "/api/orders/process",
		query:  url.Values{"userId": {userID}, "claimCode": {claimCode}},
		token:  token,
		body:   struct{}{},
	})
	return err
}

func (c *Client) SendProcessingNotification(ctx context.Context, token string, n ProcessingNotification) (EmailReceipt, error) {
	env, err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/api/email/send-processing-notification",
		path:     "/api/email/send-processing-notification",
		token:    token,
		body:     n,
		tolerant: true,
	})
	if err != nil {
		return EmailReceipt{}, err
	}
	return EmailReceipt{Success: env.Success, Message: env.Message}, nil
}

func (c *Client) ResendConfirmation(ctx context.Context, token string, orderID string) (EmailReceipt, error) {
	env, err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/api/email/resend-confirmation/{orderId}",
		path:     "/api/email/resend-confirmation/" + url.PathEscape(orderID),
		token:    token,
		body:     struct{}{},
		tolerant: true,
	})
	if err != nil {
		return EmailReceipt{}, err
	}
	return EmailReceipt{Success: env.Success, Message: env.Message}, nil
}
