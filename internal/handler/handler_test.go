package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"booknest/internal/backend"
	"booknest/internal/middleware"
	"booknest/internal/model"
	"booknest/internal/service"
	"booknest/internal/session"
)

const testSessionID = "0b6f5c1e-5a38-4d3a-9a47-6c4f7b3f1d21"

type fixture struct {
	store      *session.MemoryStore
	workspaces *service.Workspaces
}

// newFixture wires real services against a fake backend served by mux.
func newFixture(t *testing.T, mux http.Handler) *fixture {
	t.Helper()

	if mux == nil {
		mux = http.NotFoundHandler()
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := backend.NewClient(srv.URL, 2*time.Second, false)
	require.NoError(t, err)

	store := session.NewMemoryStore()
	return &fixture{
		store: store,
		workspaces: service.NewWorkspaces(client, nil, func(id string) service.SessionScope {
			return session.NewScope(store, id, time.Hour)
		}),
	}
}

func (f *fixture) signIn(t *testing.T, role model.Role) {
	t.Helper()
	scope := session.NewScope(f.store, testSessionID, time.Hour)
	require.NoError(t, scope.Save(context.Background(), model.Session{AuthToken: "tok", UserID: "u-1", Role: role}))
}

func serve(t *testing.T, routes func(chi.Router), method string, target string, body string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithSessionID(req.Context(), testSessionID)))
		})
	})
	routes(r)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func writeBackend(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
