package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/zonelens/zonelens/internal/types"
)

// wsClient is one connected dashboard.
type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan types.SyncEvent
	done chan struct{}
}

// Hub fans sync events out to connected dashboard WebSockets. It satisfies
// syncer.EventSink so sync progress reaches the browser as it happens.
type Hub struct {
	clients  map[string]*wsClient
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

// NewHub creates an event hub with no connected clients.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*wsClient),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // token auth happens before the upgrade
			},
		},
	}
}

// Publish sends an event to every connected client. Slow clients are
// skipped rather than blocking the publisher.
func (h *Hub) Publish(event types.SyncEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.send <- event:
		default:
			log.Warn().
				Str("client", client.id).
				Str("event", string(event.Type)).
				Msg("Client event buffer full, dropping event")
		}
	}
}

// ClientCount returns the number of connected dashboard clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handle upgrades the request and starts the client's pumps.
func (h *Hub) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &wsClient{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan types.SyncEvent, 100),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()

	log.Debug().Str("client", client.id).Msg("Dashboard client connected")

	go h.readPump(client)
	go h.writePump(client)
}

// readPump drains the connection so close frames are processed. Dashboard
// clients never send application messages.
func (h *Hub) readPump(client *wsClient) {
	defer h.disconnect(client)

	client.conn.SetReadLimit(512)
	client.conn.SetPongHandler(func(string) error {
		return nil
	})

	for {
		select {
		case <-client.done:
			return
		default:
		}

		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("client", client.id).Msg("Read error")
			}
			return
		}
	}
}

// writePump forwards events to the client and keeps the connection alive
// with pings. Closing the connection on exit forces readPump to return.
func (h *Hub) writePump(client *wsClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case <-client.done:
			return

		case event := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteJSON(event); err != nil {
				log.Debug().Err(err).Str("client", client.id).Msg("Write error")
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// disconnect removes the client from the hub. Only the remover closes the
// done channel so a concurrent Close cannot double-close it.
func (h *Hub) disconnect(client *wsClient) {
	h.mu.Lock()
	existing, ok := h.clients[client.id]
	if ok && existing == client {
		delete(h.clients, client.id)
	}
	h.mu.Unlock()

	if ok && existing == client {
		close(client.done)
	}
	client.conn.Close()

	log.Debug().Str("client", client.id).Msg("Dashboard client disconnected")
}

// Close disconnects every client. Called during server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.done)
		client.conn.Close()
		delete(h.clients, id)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.config.Hub == nil {
		writeError(w, http.StatusServiceUnavailable, "event streaming unavailable")
		return
	}
	s.config.Hub.handle(w, r)
}
