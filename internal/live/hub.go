// Package live pushes turnout updates to connected admin dashboards.
package live

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gravadigital/urna-cipa/internal/logger"
	"github.com/gravadigital/urna-cipa/internal/services"
)

const writeTimeout = 5 * time.Second

// StatsSource computes the current turnout
type StatsSource interface {
	ComputeStats(ctx context.Context) (services.Stats, error)
}

// Message is the frame sent to dashboards
type Message struct {
	Type string         `json:"type"`
	Data services.Stats `json:"data"`
}

// Hub fans out fresh stats to every connected dashboard. Notifications that
// arrive while a broadcast is pending are coalesced into it.
type Hub struct {
	stats    StatsSource
	upgrader websocket.Upgrader
	notify   chan struct{}

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	log *log.Logger
}

func NewHub(stats StatsSource) *Hub {
	return &Hub{
		stats: stats,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The route sits behind RequireAdmin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		notify:  make(chan struct{}, 1),
		clients: make(map[*websocket.Conn]struct{}),
		log:     logger.Service("live"),
	}
}

// Notify schedules a broadcast without blocking the caller.
func (h *Hub) Notify() {
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// Run broadcasts on every notification until ctx is done, then closes all connections.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.notify:
			h.broadcast(ctx)
		}
	}
}

// Clients returns the number of connected dashboards.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve upgrades the request and sends the current stats right away.
func (h *Hub) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	stats, err := h.stats.ComputeStats(c.Request.Context())
	if err != nil {
		h.log.Error("failed to compute stats", "error", err)
		conn.Close()
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	ok := h.write(conn, stats)
	h.mu.Unlock()
	if !ok {
		return
	}

	// Incoming frames are ignored; reading only detects the disconnect.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) broadcast(ctx context.Context) {
	stats, err := h.stats.ComputeStats(ctx)
	if err != nil {
		h.log.Error("failed to compute stats", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		h.write(conn, stats)
	}
}

// write must be called with mu held; a failed client is dropped.
func (h *Hub) write(conn *websocket.Conn, stats services.Stats) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(Message{Type: "stats", Data: stats}); err != nil {
		h.log.Debug("dropping dashboard connection", "error", err)
		delete(h.clients, conn)
		conn.Close()
		return false
	}
	return true
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
		delete(h.clients, conn)
	}
}
