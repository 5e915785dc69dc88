package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/search"
	"github.com/moviefinder/moviefinder/internal/session"
	"github.com/moviefinder/moviefinder/internal/trending"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// Message types.
const (
	TypeSearchInput    = "search:input"
	TypeSearchSubmit   = "search:submit"
	TypeSearchState    = "search:state"
	TypeTrendingState  = "trending:state"
	TypeTrendingScroll = "trending:scroll"
	TypeError          = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// incomingMessage wraps a message from a client.
type incomingMessage struct {
	client  *Client
	message []byte
}

// SearchInputPayload is the payload of search:input messages.
type SearchInputPayload struct {
	Query string `json:"query"`
}

// ScrollPayload is the payload of trending:scroll messages. Direction is
// "left", "right", -1 or 1.
type ScrollPayload struct {
	Direction json.RawMessage `json:"direction"`
}

// SessionFactory creates the search session bound to a new connection.
type SessionFactory func() *session.Session

// Hub manages WebSocket connections, one search session per client.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	incoming   chan incomingMessage
	done       chan struct{}
	mu         sync.RWMutex

	newSession SessionFactory
	trending   *trending.Panel
	logger     zerolog.Logger
}

// Client represents a WebSocket connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session *session.Session

	sendMu sync.Mutex
	send   chan []byte
	closed bool
}

// Message represents a WebSocket message.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// NewHub creates a new WebSocket hub. trending may be nil.
func NewHub(newSession SessionFactory, panel *trending.Panel, logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan incomingMessage, 256),
		done:       make(chan struct{}),
		newSession: newSession,
		trending:   panel,
		logger:     logger.With().Str("component", "websocket").Logger(),
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				h.detach(client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.attach(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.detach(client)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if !client.enqueue(message) {
					h.logger.Warn().Msg("Client send buffer full, dropping message")
				}
			}
			h.mu.RUnlock()

		case incoming := <-h.incoming:
			h.handleIncoming(incoming)
		}
	}
}

// attach starts the client's search session and sends the panel state.
func (h *Hub) attach(client *Client) {
	if h.newSession != nil {
		client.session = h.newSession()
		client.session.Pipeline().OnChange(func(state search.FetchState) {
			client.sendMessage(TypeSearchState, state)
		})
		go client.session.Start()
	}

	if h.trending != nil {
		client.sendMessage(TypeTrendingState, h.trending.State())
	}
}

func (h *Hub) detach(client *Client) {
	client.close()
	if client.session != nil {
		go client.session.Close()
	}
}

// handleIncoming processes messages received from clients.
func (h *Hub) handleIncoming(incoming incomingMessage) {
	var msg Message
	if err := json.Unmarshal(incoming.message, &msg); err != nil {
		incoming.client.sendError("malformed message")
		return
	}

	switch msg.Type {
	case TypeSearchInput:
		var payload SearchInputPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			incoming.client.sendError("invalid search:input payload")
			return
		}
		if incoming.client.session != nil {
			incoming.client.session.Input(payload.Query)
		}

	case TypeSearchSubmit:
		// Submit fetches on the calling goroutine.
		if incoming.client.session != nil {
			go incoming.client.session.Submit()
		}

	case TypeTrendingScroll:
		var payload ScrollPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			incoming.client.sendError("invalid trending:scroll payload")
			return
		}
		dir, err := parseDirection(payload.Direction)
		if err != nil {
			incoming.client.sendError(err.Error())
			return
		}
		if err := trending.Scroll(incoming.client, dir); err != nil {
			h.logger.Debug().Err(err).Msg("Scroll intent not delivered")
		}

	default:
		incoming.client.sendError(fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func parseDirection(raw json.RawMessage) (trending.Direction, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return trending.ParseDirection(s)
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return trending.ParseDirection(fmt.Sprint(n))
	}
	return 0, fmt.Errorf("invalid scroll direction %s", string(raw))
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msgType string, payload interface{}) error {
	data, err := encode(msgType, payload)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	}
	return nil
}

// BroadcastTrending sends a trending panel state to all clients.
func (h *Hub) BroadcastTrending(state trending.State) {
	if err := h.Broadcast(TypeTrendingState, state); err != nil {
		h.logger.Error().Err(err).Msg("Failed to broadcast trending state")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket handles WebSocket connection upgrade.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return nil
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{
		Type:      msgType,
		Payload:   raw,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Scroll implements trending.Scroller by sending the intent to this client.
func (c *Client) Scroll(intent trending.ScrollIntent) error {
	if !c.sendMessage(TypeTrendingScroll, intent) {
		return fmt.Errorf("client unavailable")
	}
	return nil
}

func (c *Client) sendError(message string) {
	c.sendMessage(TypeError, map[string]string{"error": message})
}

func (c *Client) sendMessage(msgType string, payload interface{}) bool {
	data, err := encode(msgType, payload)
	if err != nil {
		c.hub.logger.Error().Err(err).Str("type", msgType).Msg("Failed to encode message")
		return false
	}
	return c.enqueue(data)
}

// enqueue queues data without blocking. It reports false if the client is
// closed or its buffer is full.
func (c *Client) enqueue(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Msg("WebSocket closed unexpectedly")
			}
			break
		}

		select {
		case c.hub.incoming <- incomingMessage{client: c, message: message}:
		case <-c.hub.done:
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
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
				// Hub closed the channel
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
