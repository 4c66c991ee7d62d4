package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

func (c *Client) CountBooks(ctx context.Context, token string) (int, error) {
	var page booksPage
	_, err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/api/books/all",
		path:   "/api/books/all",
		query:  url.Values{"page": {"1"}, "pageSize": {"10"}},
		token:  token,
		out:    &page,
	})
	return page.Metadata.TotalItems, err
}

func (c *Client) CountDiscounts(ctx context.Context, token string) (int, error) {
	var raw json.RawMessage
	_, err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/api/discounts",
		path:   "/api/discounts",
		token:  token,
		out:    &raw,
	})
	return countOf(raw), err
}

// CountOrders accepts either a bare count or the order list.
func (c *Client) CountOrders(ctx context.Context, token string) (int, error) {
	var raw json.RawMessage
	_, err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/api/Order/all",
		path:   "/api/Order/all",
		token:  token,
		out:    &raw,
	})
	return countOf(raw), err
}
