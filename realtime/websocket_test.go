package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, manager *WebSocketManager) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(manager.HandleWebSocket))
	u := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	return conn, server
}

func TestWebSocketManager_Connection(t *testing.T) {
	manager := NewWebSocketManager()
	go manager.Run()

	conn, server := dial(t, manager)
	defer server.Close()
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)

	manager.mu.Lock()
	clientCount := len(manager.clients)
	manager.mu.Unlock()

	assert.Equal(t, 1, clientCount, "client should be registered")
}

func TestWebSocketManager_Broadcast(t *testing.T) {
	manager := NewWebSocketManager()
	go manager.Run()

	conn, server := dial(t, manager)
	defer server.Close()
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)

	payload := map[string]string{"market": "BTC-USD"}
	manager.Broadcast("trade_opened", payload)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, p, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(p, &event))

	assert.Equal(t, "trade_opened", event.Kind)
	assert.False(t, event.Timestamp.IsZero())

	payloadData, ok := event.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "BTC-USD", payloadData["market"])
}

func TestWebSocketManager_BroadcastDropsWhenQueueFull(t *testing.T) {
	manager := NewWebSocketManager()
	// Run is deliberately not started: nothing drains m.events, so the
	// buffer fills and every subsequent Broadcast must return without
	// blocking rather than wedge the caller.
	for i := 0; i < broadcastBuffer+10; i++ {
		manager.Broadcast("tick", i)
	}
}

func TestWebSocketManager_Disconnect(t *testing.T) {
	manager := NewWebSocketManager()
	go manager.Run()

	conn, server := dial(t, manager)
	defer server.Close()

	time.Sleep(50 * time.Millisecond)
	manager.mu.Lock()
	assert.Equal(t, 1, len(manager.clients))
	manager.mu.Unlock()

	conn.Close()

	time.Sleep(100 * time.Millisecond)

	manager.mu.Lock()
	assert.Equal(t, 0, len(manager.clients))
	manager.mu.Unlock()
}
