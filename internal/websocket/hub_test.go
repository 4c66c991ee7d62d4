package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booknest/internal/event"
)

func TestHub_DeliversOnlyOwnSessionEvents(t *testing.T) {
	bus := event.NewBus()
	hub := NewHub(bus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	upgrader := Upgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, hub.Serve(&upgrader, w, r, r.URL.Query().Get("sid")))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?sid=alice"
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the hub a moment to register the client.
	time.Sleep(50 * time.Millisecond)

	bus.Publish(event.New("bob", event.TypeCartUpdated, map[string]int{"items": 9}))
	bus.Publish(event.New("alice", event.TypeCartUpdated, map[string]int{"items": 2}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Type    event.Type     `json:"type"`
		Payload map[string]int `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, event.TypeCartUpdated, got.Type)
	assert.Equal(t, 2, got.Payload["items"])
	assert.NotContains(t, string(raw), "bob")
}

func TestUpgrader_CheckOrigin(t *testing.T) {
	u := Upgrader([]string{"http://shop.test"})

	req := httptest.NewRequest(http.MethodGet, "http://gateway.test/api/v1/ws", nil)
	assert.True(t, u.CheckOrigin(req))

	req.Header.Set("Origin", "http://shop.test")
	assert.True(t, u.CheckOrigin(req))

	req.Header.Set("Origin", "http://evil.test")
	assert.False(t, u.CheckOrigin(req))

	req.Header.Set("Origin", "http://gateway.test")
	assert.True(t, u.CheckOrigin(req))
}
