package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"inertus/internal/middleware"
	"inertus/internal/observability"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

var (
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrUserConnLimit   = errors.New("user connection limit reached")
)

// Hub maps user IDs to their connected websocket clients.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// Register adds a connection for userID, enforcing per-user and global limits.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, ErrServerConnLimit
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserConnLimit
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnections.Inc()
	return client, nil
}

// UnregisterClient removes client; removing an unknown client is a no-op.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; exists {
		delete(m, client)
		h.totalConns--
		observability.WebSocketConnections.Dec()
		client.closeSend()
	}
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
}

// Broadcast queues message on every connection of userID.
func (h *Hub) Broadcast(userID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[userID] {
		c.TrySend(message)
	}
}

// Publish delivers payload to the local sockets of the room's user. It lets the hub stand in
// for the Redis notifier when the process runs without Redis.
func (h *Hub) Publish(_ context.Context, room string, payload []byte) error {
	userID, ok := ParseRoom(room)
	if !ok {
		return fmt.Errorf("invalid room %q", room)
	}
	h.Broadcast(userID, payload)
	return nil
}

// Connections returns the number of live connections of userID.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Run forwards messages published through n to the matching local connections until ctx is done.
func (h *Hub) Run(ctx context.Context, n *Notifier) error {
	return n.Subscribe(ctx, func(channel, payload string) {
		room, ok := RoomFromChannel(channel)
		if !ok {
			middleware.Logger.Warn("invalid notification channel", zap.String("channel", channel))
			return
		}
		if err := h.Publish(ctx, room, []byte(payload)); err != nil {
			middleware.Logger.Warn("dropping notification", zap.String("channel", channel), zap.Error(err))
		}
	})
}

// Shutdown closes every client's send queue, which makes its write pump send a close frame
// and drop the connection, and forgets all clients.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, userConns := range h.conns {
		for client := range userConns {
			client.closeSend()
		}
		observability.WebSocketConnections.Sub(float64(len(userConns)))
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
