// Package backend is the HTTP client for the remote BookNest REST service.
// It attaches the bearer token, decodes the {success, message, data}
// envelope and reports failures as *Error. It never retries and never
// refreshes tokens.
package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 8 << 20

// Observer receives one callback per backend round trip. Status is 0 when
// no response arrived.
type Observer interface {
	ObserveBackendCall(method string, route string, status int, duration time.Duration)
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	observer   Observer
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

func NewClient(baseURL string, timeout time.Duration, insecureTLS bool, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("backend URL must be http or https, got %q", baseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("backend URL has no host: %q", baseURL)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureTLS {
		// Local development backends run on self-signed certificates.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	c := &Client{
		baseURL: parsed,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) BaseURL() *url.URL {
	clone := *c.baseURL
	return &clone
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Title   string          `json:"title"`
	Data    json.RawMessage `json:"data"`
}

type call struct {
	method string
	// route is the path template reported to the observer.
	route string
	path  string
	query url.Values
	token string
	body  any
	out   any
	// tolerant returns success=false envelopes instead of failing with them.
	tolerant bool
}

func (c *Client) do(ctx context.Context, req call) (*envelope, error) {
	target := c.baseURL.JoinPath(req.path)
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}

	var payload io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", req.method, req.route, err)
		}
		payload = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), payload)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(req, 0, started)
		slog.Warn("backend unreachable", "method", req.method, "route", req.route, "error", err)
		return nil, networkError(err)
	}
	defer resp.Body.Close()
	c.observe(req, resp.StatusCode, started)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, networkError(err)
	}

	slog.Debug("backend call",
		"method", req.method,
		"route", req.route,
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 400 {
		apiErr := &Error{Status: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = firstNonEmpty(env.Message, env.Title)
		}
		slog.Warn("backend call failed", "method", req.method, "route", req.route, "status", resp.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}

	if decodeErr != nil {
		return nil, &Error{Status: resp.StatusCode, Message: "invalid response from server", Err: decodeErr}
	}

	if !env.Success && !req.tolerant {
		return nil, &Error{Status: resp.StatusCode, Message: env.Message, Rejected: true}
	}

	if req.out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, req.out); err != nil {
			return nil, &Error{Status: resp.StatusCode, Message: "invalid response from server", Err: err}
		}
	}

	return &env, nil
}

func (c *Client) observe(req call, status int, started time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveBackendCall(req.method, req.route, status, time.Since(started))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
