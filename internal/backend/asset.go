package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrForeignOrigin = errors.New("asset is not served by the backend origin")

// FetchAsset downloads a static asset such as a book cover. Relative
// references resolve against the backend; absolute ones must share its
// origin.
func (c *Client) FetchAsset(ctx context.Context, ref string, maxBytes int64) ([]byte, string, error) {
	target, err := c.resolveAsset(ref)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(call{method: http.MethodGet, route: "asset"}, 0, started)
		return nil, "", networkError(err)
	}
	defer resp.Body.Close()
	c.observe(call{method: http.MethodGet, route: "asset"}, resp.StatusCode, started)

	if resp.StatusCode >= 400 {
		return nil, "", &Error{Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, "", networkError(err)
	}
	if int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("asset exceeds %d bytes", maxBytes)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) resolveAsset(ref string) (*url.URL, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty asset reference")
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("parse asset reference: %w", err)
	}

	resolved := c.baseURL.ResolveReference(parsed)
	if !strings.EqualFold(resolved.Scheme, c.baseURL.Scheme) || !strings.EqualFold(resolved.Host, c.baseURL.Host) {
		return nil, ErrForeignOrigin
	}

	return resolved, nil
}
