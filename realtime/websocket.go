// Package realtime fans the notification feed out to connected
// websocket clients so an operator's dashboard sees cycle events (buy
// placed, sell filled, stop triggered...) as they happen, without
// polling the notification-feed HTTP endpoint.
package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// broadcastBuffer bounds how many pending broadcasts the manager will
// queue before it starts dropping. The notification port is
// fire-and-forget (spec §6): a full dashboard feed must never
// back-pressure the trade loop trying to send through it.
const broadcastBuffer = 64

// Event is one message pushed to every connected websocket client.
type Event struct {
	Kind      string      `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// WebSocketManager fans out Events to every connected client. The
// trade loop never talks to a *websocket.Conn* directly; it only ever
// calls Broadcast, so a manager can be swapped for nil during tests
// without touching cycle code.
type WebSocketManager struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	events     chan Event
	register   chan *websocket.Conn
	unregister chan *websocket.Conn

	upgrader websocket.Upgrader
}

// NewWebSocketManager builds a manager; call Run in its own goroutine
// before HandleWebSocket accepts any connections.
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[*websocket.Conn]bool),
		events:     make(chan Event, broadcastBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The control plane has no browser-origin restriction to
			// enforce; it's an operator tool on a private network, not
			// a public-facing surface.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run drives client registration and event fan-out until the process
// exits; it never returns.
func (m *WebSocketManager) Run() {
	for {
		select {
		case conn := <-m.register:
			m.mu.Lock()
			m.clients[conn] = true
			m.mu.Unlock()
			log.Info().Msg("dashboard client connected")

		case conn := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[conn]; ok {
				delete(m.clients, conn)
				conn.Close()
				log.Info().Msg("dashboard client disconnected")
			}
			m.mu.Unlock()

		case event := <-m.events:
			m.fanOut(event)
		}
	}
}

func (m *WebSocketManager) fanOut(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.clients {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			log.Error().Err(err).Msg("dashboard write failed, dropping client")
			conn.Close()
			delete(m.clients, conn)
		}
	}
}

// Broadcast queues an event for every connected client. It never
// blocks the caller: if the queue is full (Run is wedged or the
// process is shutting down), the event is dropped and logged, per
// spec §7's "drops are acceptable, reordering is not meaningful".
func (m *WebSocketManager) Broadcast(kind string, payload interface{}) {
	event := Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
	select {
	case m.events <- event:
	default:
		log.Warn().Str("kind", kind).Msg("dashboard event queue full, dropping event")
	}
}

// HandleWebSocket upgrades an HTTP request to a websocket connection
// and registers it for fan-out until the client disconnects.
func (m *WebSocketManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade dashboard connection")
		return
	}
	m.register <- conn

	go func() {
		defer func() { m.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Error().Err(err).Msg("dashboard connection closed unexpectedly")
				}
				return
			}
		}
	}()
}
