package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeService(t *testing.T) *httptest.Server {
	t.Helper()

	reply := func(w http.ResponseWriter, status int, body any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "Reader#1pass" {
			reply(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid email or password."})
			return
		}
		reply(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"token": "cli-token", "refreshToken": "cli-refresh", "userId": 5, "role": "Member",
		}})
	})
	mux.HandleFunc("GET /api/cart", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer cli-token" {
			reply(w, http.StatusUnauthorized, map[string]any{"success": false})
			return
		}
		reply(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"items": []map[string]any{{
				"bookId": 3, "bookTitle": "Piranesi", "unitPrice": 18, "quantity": 2, "lineTotal": 36,
			}},
			"itemCount": 2,
		}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, backendURL string, sessionFile string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--backend", backendURL, "--session-file", sessionFile, "--log-level", "error"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_LoginCartLogout(t *testing.T) {
	srv := fakeService(t)
	sessionFile := filepath.Join(t.TempDir(), "session.json")

	_, err := run(t, srv.URL, sessionFile, "whoami")
	require.Error(t, err)
	assert.Equal(t, "You must be logged in to access this feature.", err.Error())

	out, err := run(t, srv.URL, sessionFile, "login", "--email", "reader@example.com", "--password", "Reader#1pass")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as reader@example.com (Member).")

	out, err = run(t, srv.URL, sessionFile, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "user id: 5")

	out, err = run(t, srv.URL, sessionFile, "cart", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Piranesi")
	assert.Contains(t, out, "2 item(s), 1 line(s). Total: 36.00")

	_, err = run(t, srv.URL, sessionFile, "orders", "pending")
	require.Error(t, err)
	assert.Equal(t, "This feature requires Staff role. Your current role is Member.", err.Error())

	out, err = run(t, srv.URL, sessionFile, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "successfully logged out")

	_, err = run(t, srv.URL, sessionFile, "cart", "show")
	require.Error(t, err)
	assert.Equal(t, "You must be logged in to view your cart.", err.Error())
}

func TestCLI_LoginRejected(t *testing.T) {
	srv := fakeService(t)
	sessionFile := filepath.Join(t.TempDir(), "session.json")

	_, err := run(t, srv.URL, sessionFile, "login", "--email", "reader@example.com", "--password", "nope")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password.", err.Error())
}

func TestCLI_ArgumentValidation(t *testing.T) {
	srv := fakeService(t)
	sessionFile := filepath.Join(t.TempDir(), "session.json")

	_, err := run(t, srv.URL, sessionFile, "cart", "remove", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "book id must be a positive number")
}
