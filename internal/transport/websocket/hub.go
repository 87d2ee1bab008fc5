package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"barberapp/internal/domain"
	"barberapp/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// TokenParser validates an access token and returns the caller's id and role.
type TokenParser interface {
	Parse(token string) (uuid.UUID, string, error)
}

// Client is one websocket connection. A user may hold several.
type Client struct {
	UserID uuid.UUID
	Role   domain.UserRole
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub
}

// Hub keeps the connected clients and pushes domain events to the
// recipients that are online. Clients only receive; anything they send
// besides control frames is ignored.
type Hub struct {
	// Connected clients by user ID
	clients map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	tokens TokenParser
	logger *zap.Logger

	mutex sync.RWMutex
}

var upgrader = websocket.Upgrader{
	// Connections are authenticated by token, not by origin.
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

func NewHub(tokens TokenParser, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		tokens:     tokens,
		logger:     logger,
	}
}

// Run serves register and unregister requests until ctx is done, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			conns, ok := h.clients[client.UserID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.UserID] = conns
			}
			conns[client] = struct{}{}
			h.mutex.Unlock()

			metrics.WebsocketConnections.Inc()
			h.logger.Debug("client connected",
				zap.String("user_id", client.UserID.String()),
				zap.String("role", string(client.Role)))

		case client := <-h.unregister:
			if h.remove(client) {
				h.logger.Debug("client disconnected", zap.String("user_id", client.UserID.String()))
			}

		case <-ctx.Done():
			h.mutex.Lock()
			for _, conns := range h.clients {
				for client := range conns {
					close(client.Send)
					metrics.WebsocketConnections.Dec()
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]struct{})
			h.mutex.Unlock()
			return
		}
	}
}

func (h *Hub) remove(client *Client) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	conns, ok := h.clients[client.UserID]
	if !ok {
		return false
	}
	if _, ok := conns[client]; !ok {
		return false
	}

	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
	close(client.Send)
	metrics.WebsocketConnections.Dec()
	return true
}

func (h *Hub) Name() string { return "websocket" }

// Handle pushes ev to every connection of its recipients. Recipients that
// are offline are skipped, and a client whose buffer is full misses the
// event.
func (h *Hub) Handle(_ context.Context, ev domain.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for _, userID := range ev.Recipients {
		for client := range h.clients[userID] {
			select {
			case client.Send <- data:
			default:
				h.logger.Warn("client buffer full, event skipped",
					zap.String("user_id", userID.String()),
					zap.String("type", string(ev.Type)))
			}
		}
	}

	return nil
}

// IsUserConnected checks if a user has at least one open connection
func (h *Hub) IsUserConnected(userID uuid.UUID) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.clients[userID]) > 0
}

// HandleWebSocket authenticates the caller and upgrades the connection.
// Browsers cannot set headers on websocket requests, so the token may be
// passed in the query string.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   gin.H{"code": domain.ErrUnauthorized.Code, "message": domain.ErrUnauthorized.Message},
		})
		return
	}

	userID, role, err := h.tokens.Parse(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   gin.H{"code": domain.ErrInvalidToken.Code, "message": domain.ErrInvalidToken.Message},
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		UserID: userID,
		Role:   domain.UserRole(role),
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		Hub:    h,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection so that control frames are processed,
// and unregisters the client once the connection fails.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.logger.Debug("websocket write failed",
					zap.String("user_id", c.UserID.String()),
					zap.Error(err))
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
