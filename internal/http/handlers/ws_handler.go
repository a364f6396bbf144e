package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/otc-marketplace/backend/internal/auth"
	"github.com/otc-marketplace/backend/internal/config"
	"github.com/otc-marketplace/backend/internal/events"
	"github.com/otc-marketplace/backend/internal/middleware"
	"go.uber.org/zap"
)

const wsWriteTimeout = 5 * time.Second

// wsClient serializes writes: events for one connection may arrive from
// both the listing and notify subscriptions.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub pushes listing events to every connected client and
// bot notifications to the addressed user.
type WSHub struct {
	cfg         *config.Config
	revoked     auth.RevocationStore
	subscriber  events.Subscriber
	log         *zap.Logger
	mu          sync.RWMutex
	connections map[int64][]*wsClient
}

func NewWSHub(cfg *config.Config, revoked auth.RevocationStore, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		cfg:         cfg,
		revoked:     revoked,
		subscriber:  subscriber,
		log:         log,
		connections: make(map[int64][]*wsClient),
	}
}

func (h *WSHub) Start(ctx context.Context) error {
	if err := h.subscriber.Subscribe(ctx, events.TopicListing, h.broadcast); err != nil {
		return err
	}
	return h.subscriber.Subscribe(ctx, events.TopicNotify, func(event events.Event) {
		if id, _, ok := events.NotifyTarget(event); ok {
			h.SendToUser(id, event)
		}
	})
}

func (h *WSHub) broadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.connections {
		for _, cl := range clients {
			_ = cl.write(data)
		}
	}
}

func (h *WSHub) SendToUser(telegramUserID int64, event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, cl := range h.connections[telegramUserID] {
		_ = cl.write(data)
	}
}

// Connections returns the number of open sockets.
func (h *WSHub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.connections {
		n += len(clients)
	}
	return n
}

func (h *WSHub) register(id int64, cl *wsClient) {
	h.mu.Lock()
	h.connections[id] = append(h.connections[id], cl)
	h.mu.Unlock()
}

func (h *WSHub) unregister(id int64, cl *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.connections[id]
	for i, c := range clients {
		if c == cl {
			h.connections[id] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.connections[id]) == 0 {
		delete(h.connections, id)
	}
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	// Токен передаётся в query: браузерный WebSocket не умеет в заголовки
	tokenStr := conn.Query("token")
	if tokenStr == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing token"}`))
		conn.Close()
		return
	}

	claims, err := middleware.Authenticate(context.Background(), h.cfg, h.revoked, tokenStr)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
		conn.Close()
		return
	}

	userID := claims.TelegramUserID
	cl := &wsClient{conn: conn}
	h.register(userID, cl)
	defer func() {
		h.unregister(userID, cl)
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
