package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mise/internal/kitchen"
	"mise/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // kitchen displays connect from any origin
	},
}

// Hub keeps the live connections of every kitchen and fans kitchen events
// out to them. It implements kitchen.Publisher.
type Hub struct {
	clients    map[string]map[*liveClient]bool
	broadcast  chan kitchen.Event
	register   chan *liveClient
	unregister chan *liveClient
	done       chan struct{}
	mu         sync.RWMutex
	log        *logger.Logger
}

type liveClient struct {
	kitchenID string
	conn      *websocket.Conn
	send      chan []byte
	hub       *Hub
}

// NewHub creates a new Hub instance
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients:    make(map[string]map[*liveClient]bool),
		broadcast:  make(chan kitchen.Event, 256),
		register:   make(chan *liveClient),
		unregister: make(chan *liveClient),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run starts the hub's main loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for _, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
			}
			h.clients = make(map[string]map[*liveClient]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.kitchenID] == nil {
				h.clients[client.kitchenID] = make(map[*liveClient]bool)
			}
			h.clients[client.kitchenID][client] = true
			count := len(h.clients[client.kitchenID])
			h.mu.Unlock()
			h.log.Info("Live client connected to kitchen %s (%d connected)", client.kitchenID, count)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.log.Error("Failed to marshal %s event: %v", event.Type, err)
				continue
			}

			h.mu.Lock()
			for client := range h.clients[event.KitchenID] {
				select {
				case client.send <- data:
				default:
					h.log.Warn("Live client of kitchen %s is too slow, disconnecting", event.KitchenID)
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove drops client; the caller holds h.mu
func (h *Hub) remove(client *liveClient) {
	clients, ok := h.clients[client.kitchenID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.kitchenID)
	}
	h.log.Info("Live client disconnected from kitchen %s", client.kitchenID)
}

// Publish queues event for the kitchen's live clients. Events are dropped
// when the queue is full so writers never block on slow clients.
func (h *Hub) Publish(event kitchen.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.log.Warn("Live event queue full, dropping %s for kitchen %s", event.Type, event.KitchenID)
	}
}

// Clients returns the number of live connections of a kitchen
func (h *Hub) Clients(kitchenID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[kitchenID])
}

// handleLive upgrades the request and streams the kitchen's events
func (s *Server) handleLive(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("Failed to upgrade connection: %v", err)
		return
	}

	client := &liveClient{
		kitchenID: c.Param("kitchen"),
		conn:      conn,
		send:      make(chan []byte, 64),
		hub:       s.hub,
	}
	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only handles control frames; live clients do not send data
func (c *liveClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("Live connection error: %v", err)
			}
			return
		}
	}
}

// writePump pumps events from the hub to the connection
func (c *liveClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
