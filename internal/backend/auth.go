package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

func (c *Client) Register(ctx context.Context, payload RegisterPayload) (string, error) {
	env, err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/api/auth/register",
		path:   "/api/auth/register",
		body:   payload,
	})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) Login(ctx context.Context, email string, password string) (*LoginResult, error) {
	var raw json.RawMessage
	if _, err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/api/auth/login",
		path:   "/api/auth/login",
		body:   map[string]string{"email": email, "password": password},
		out:    &raw,
	}); err != nil {
		return nil, err
	}

	result := &LoginResult{Raw: raw}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result.LoginData); err != nil {
			return nil, &Error{Status: http.StatusOK, Message: "invalid login response", Err: err}
		}
	}
	if result.Token == "" {
		return nil, &Error{Status: http.StatusOK, Message: "login response carried no token", Rejected: true}
	}

	return result, nil
}
