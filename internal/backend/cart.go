package backend

import (
	"context"
	"net/http"
)

func (c *Client) GetCart(ctx context.Context, token string) (Cart, error) {
	var cart Cart
	_, err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/api/cart",
		path:   "/api/cart",
		token:  token,
		out:    &cart,
	})
	return cart, err
}

func (c *Client) AddToCart(ctx context.Context, token string, bookID int64, quantity int) error {
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/api/cart/add",
		path:   "/api/cart/add",
		token:  token,
		body:   cartLineRequest{BookID: bookID, Quantity: quantity},
	})
	return err
}

// RemoveFromCart carries the book id in the DELETE body.
func (c *Client) RemoveFromCart(ctx context.Context, token string, bookID int64) error {
	_, err := c.do(ctx, call{
		method: http.MethodDelete,
		route:  "/api/cart/remove",
		path:   "/api/cart/remove",
		token:  token,
		body:   cartLineRequest{BookID: bookID},
	})
	return err
}

func (c *Client) UpdateCartItem(ctx context.Context, token string, bookID int64, quantity int) error {
	_, err := c.do(ctx, call{
		method: http.MethodPut,
		route:  "/api/cart/update",
		path:   "/api/cart/update",
		token:  token,
		body:   cartLineRequest{BookID: bookID, Quantity: quantity},
	})
	return err
}

func (c *Client) ClearCart(ctx context.Context, token string) error {
	_, err := c.do(ctx, call{
		method: http.MethodDelete,
		route:  "/api/cart/clear",
		path:   "/api/cart/clear",
		token:  token,
	})
	return err
}
