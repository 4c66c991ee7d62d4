//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"booknest/internal/app"
	"booknest/internal/config"
)

const testSecret = "integration-secret-integration-secret"

type fakeUser struct {
	password string
	role     string
	userID   int
}

type fakeOrder struct {
	ID        int    `json:"id"`
	UserID    int    `json:"userId"`
	FullName  string `json:"userFullName"`
	Email     string `json:"userEmail"`
	ClaimCode string `json:"claimCode"`
	Status    string `json:"status"`
}

// fakeBackend is an in-memory stand-in for the BookNest REST service.
type fakeBackend struct {
	mu      sync.Mutex
	users   map[string]fakeUser
	tokens  map[string]fakeUser
	carts   map[int]map[int64]int
	orders  []fakeOrder
	emails  []string
	revoked map[string]bool
	issued  int
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()

	fb := &fakeBackend{
		users: map[string]fakeUser{
			"member@booknest.test": {password: "Member#1pass", role: "Member", userID: 1},
			"staff@booknest.test":  {password: "Staff#1pass", role: "Staff", userID: 2},
			"admin@booknest.test":  {password: "Admin#1pass", role: "Admin", userID: 3},
		},
		tokens:  map[string]fakeUser{},
		carts:   map[int]map[int64]int{},
		revoked: map[string]bool{},
		orders: []fakeOrder{
			{ID: 100, UserID: 1, FullName: "Mia Member", Email: "mia@example.com", ClaimCode: "ABC123", Status: "Pending"},
			{ID: 101, UserID: 4, FullName: "No Mail", ClaimCode: "NOMAIL", Status: "Pending"},
			{ID: 99, UserID: 1, ClaimCode: "DONE99", Status: "Completed"},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", fb.login)
	mux.HandleFunc("POST /api/auth/register", fb.register)
	mux.HandleFunc("GET /api/cart", fb.authed(fb.getCart))
	mux.HandleFunc("POST /api/cart/add", fb.authed(fb.addToCart))
	mux.HandleFunc("DELETE /api/cart/clear", fb.authed(fb.clearCart))
	mux.HandleFunc("GET /api/orders/all-orders", fb.authed(fb.allOrders))
	mux.HandleFunc("POST /api/orders/process", fb.authed(fb.processOrder))
	mux.HandleFunc("POST /api/email/send-processing-notification", fb.authed(fb.notify))
	mux.HandleFunc("GET /api/books/all", fb.authed(func(w http.ResponseWriter, r *http.Request, _ fakeUser) {
		reply(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"metadata": map[string]any{"totalItems": 250}}})
	}))
	mux.HandleFunc("GET /api/discounts", fb.authed(func(w http.ResponseWriter, r *http.Request, _ fakeUser) {
		reply(w, http.StatusOK, map[string]any{"success": true, "data": []int{1, 2, 3}})
	}))
	mux.HandleFunc("GET /api/Order/all", fb.authed(func(w http.ResponseWriter, r *http.Request, _ fakeUser) {
		reply(w, http.StatusOK, map[string]any{"success": true, "data": 42})
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fb, srv
}

func reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (fb *fakeBackend) authed(next func(http.ResponseWriter, *http.Request, fakeUser)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		fb.mu.Lock()
		user, ok := fb.tokens[token]
		revoked := fb.revoked[token]
		fb.mu.Unlock()

		if !ok || revoked {
			reply(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Token expired"})
			return
		}
		next(w, r, user)
	}
}

// revokeAll makes every issued token answer 401 from now on.
func (fb *fakeBackend) revokeAll() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for token := range fb.tokens {
		fb.revoked[token] = true
	}
}

func (fb *fakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	fb.mu.Lock()
	defer fb.mu.Unlock()

	user, ok := fb.users[body.Email]
	if !ok || user.password != body.Password {
		reply(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid email or password."})
		return
	}

	fb.issued++
	token := fmt.Sprintf("token-%d", fb.issued)
	fb.tokens[token] = user
	reply(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
		"token":        token,
		"refreshToken": "refresh-" + token,
		"userId":       user.userID,
		"role":         user.role,
		"email":        body.Email,
	}})
}

func (fb *fakeBackend) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	fb.mu.Lock()
	defer fb.mu.Unlock()

	if _, exists := fb.users[body.Email]; exists {
		reply(w, http.StatusConflict, map[string]any{"success": false, "message": "Duplicate"})
		return
	}
	fb.users[body.Email] = fakeUser{password: body.Password, role: "Member", userID: 10 + len(fb.users)}
	reply(w, http.StatusOK, map[string]any{"success": true, "message": "Registered"})
}

func (fb *fakeBackend) getCart(w http.ResponseWriter, _ *http.Request, user fakeUser) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	items := []map[string]any{}
	count := 0
	for bookID, qty := range fb.carts[user.userID] {
		items = append(items, map[string]any{
			"bookId":             bookID,
			"bookTitle":          "Book " + strconv.FormatInt(bookID, 10),
			"unitPrice":          30,
			"quantity":           qty,
			"lineTotal":          30 * qty,
			"discountPercentage": 25,
			"originalPrice":      40,
		})
		count += qty
	}
	reply(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"items": items, "itemCount": count}})
}

func (fb *fakeBackend) addToCart(w http.ResponseWriter, r *http.Request, user fakeUser) {
	var body struct {
		BookID   int64 `json:"bookId"`
		Quantity int   `json:"quantity"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.carts[user.userID] == nil {
		fb.carts[user.userID] = map[int64]int{}
	}
	fb.carts[user.userID][body.BookID] += body.Quantity
	reply(w, http.StatusOK, map[string]any{"success": true, "message": "Added"})
}

func (fb *fakeBackend) clearCart(w http.ResponseWriter, _ *http.Request, user fakeUser) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	delete(fb.carts, user.userID)
	reply(w, http.StatusOK, map[string]any{"success": true})
}

func (fb *fakeBackend) allOrders(w http.ResponseWriter, _ *http.Request, _ fakeUser) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	reply(w, http.StatusOK, map[string]any{"success": true, "data": fb.orders})
}

func (fb *fakeBackend) processOrder(w http.ResponseWriter, r *http.Request, _ fakeUser) {
	claimCode := r.URL.Query().Get("claimCode")

	fb.mu.Lock()
	defer fb.mu.Unlock()

	for i := range fb.orders {
		if fb.orders[i].ClaimCode == claimCode && fb.orders[i].Status == "Pending" {
			fb.orders[i].Status = "Completed"
			reply(w, http.StatusOK, map[string]any{"success": true, "message": "Order processed"})
			return
		}
	}
	reply(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid claim code"})
}

func (fb *fakeBackend) notify(w http.ResponseWriter, r *http.Request, _ fakeUser) {
	var body struct {
		UserEmail string `json:"userEmail"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	fb.mu.Lock()
	fb.emails = append(fb.emails, body.UserEmail)
	fb.mu.Unlock()

	reply(w, http.StatusOK, map[string]any{"success": false, "message": "Email sent successfully"})
}

func (fb *fakeBackend) sentEmails() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.emails...)
}

func newGateway(t *testing.T, backendURL string) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		ServerPort:              "0",
		ServerReadHeaderTimeout: 5 * time.Second,
		ServerWriteTimeout:      10 * time.Second,
		ServerIdleTimeout:       30 * time.Second,
		RequestTimeout:          10 * time.Second,
		BackendBaseURL:          backendURL,
		BackendTimeout:          5 * time.Second,
		SessionSecret:           testSecret,
		SessionTTL:              time.Hour,
		SessionCookieName:       "booknest_session",
		SessionCookieSecure:     false,
		SessionStore:            config.SessionStoreMemory,
		SessionPurgeSpec:        "@every 1h",
		WorkspaceIdleTTL:        time.Hour,
		CORSOrigins:             []string{"http://localhost:5173"},
		RateLimitRPM:            0,
		AuthRateLimitRPM:        1000,
		CoverMaxWidth:           320,
		LogLevel:                "error",
	}
	require.NoError(t, cfg.Validate())

	gateway, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(gateway.Close)

	srv := httptest.NewServer(gateway.Handler())
	t.Cleanup(srv.Close)
	return srv
}

// browser keeps one cookie jar, the way a single browser tab would.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, base string) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, base: base, client: &http.Client{Jar: jar, Timeout: 10 * time.Second}}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code     string            `json:"code"`
		Message  string            `json:"message"`
		Redirect string            `json:"redirect"`
		Fields   map[string]string `json:"fields"`
	} `json:"error"`
	Meta *struct {
		Total int `json:"total"`
	} `json:"meta"`
}

func (b *browser) do(method string, path string, body any) (int, envelope) {
	b.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(b.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, b.base+path, reader)
	require.NoError(b.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)

	var env envelope
	require.NoError(b.t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func (b *browser) login(email string, password string) envelope {
	b.t.Helper()
	status, env := b.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(b.t, http.StatusOK, status)
	return env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}
