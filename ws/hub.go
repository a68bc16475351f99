package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// EventPublisher is what services use to broadcast. They depend on this
// interface, not on *Hub, so tests can record events instead.
type EventPublisher interface {
	BroadcastToAll(event Event)
	BroadcastToAllExcept(excludeUserID string, event Event)
	GetOnlineUserIDs() []string
	DisconnectSession(sessionID string)
}

// Hub tracks every open connection and fans events out to them.
//
// Registration goes through channels read by Run; broadcasts read the client
// map under an RLock, so many broadcasts can proceed at once.
type Hub struct {
	// clients: staff id -> set of that person's connections.
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once

	seq    atomic.Int64
	logger *zap.Logger
}

// NewHub creates a hub. Start it with `go hub.Run()`.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.Named("ws"),
	}
}

// Run is the hub loop. It returns after Shutdown.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if h.addClient(client) {
				h.BroadcastToAllExcept(client.userID, Event{
					Op:   OpPresence,
					Data: PresenceData{UserID: client.userID, Status: "online"},
				})
			}

		case client := <-h.unregister:
			if h.removeClient(client) {
				h.BroadcastToAll(Event{
					Op:   OpPresence,
					Data: PresenceData{UserID: client.userID, Status: "offline"},
				})
			}

		case <-h.done:
			return
		}
	}
}

// addClient reports whether this is the user's first connection.
func (h *Hub) addClient(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	first := false
	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
		first = true
	}
	h.clients[client.userID][client] = true

	h.logger.Debug("client connected",
		zap.String("user_id", client.userID),
		zap.Int("connections", len(h.clients[client.userID])))
	return first
}

// removeClient closes the client's send channel and reports whether the user
// has no connection left.
func (h *Hub) removeClient(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok {
		return false
	}
	if _, exists := clients[client]; !exists {
		return false
	}

	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.clients, client.userID)
		h.logger.Debug("user fully disconnected", zap.String("user_id", client.userID))
		return true
	}
	h.logger.Debug("client disconnected",
		zap.String("user_id", client.userID),
		zap.Int("remaining", len(clients)))
	return false
}

// drop asks Run to unregister c without blocking after shutdown.
func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// sendTo queues data for one registered client.
func (h *Hub) sendTo(c *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[c.userID][c] {
		return
	}
	select {
	case c.send <- data:
	default:
		h.logger.Warn("send buffer full, dropping connection", zap.String("user_id", c.userID))
		go h.drop(c)
	}
}

// BroadcastToAll sends event to every connection.
func (h *Hub) BroadcastToAll(event Event) {
	h.broadcast("", event)
}

// BroadcastToAllExcept sends event to everybody but excludeUserID.
func (h *Hub) BroadcastToAllExcept(excludeUserID string, event Event) {
	h.broadcast(excludeUserID, event)
}

func (h *Hub) broadcast(excludeUserID string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal broadcast event", zap.String("op", event.Op), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID, clients := range h.clients {
		if excludeUserID != "" && userID == excludeUserID {
			continue
		}
		for client := range clients {
			select {
			case client.send <- data:
			default:
				// Buffer full: the client is stuck, disconnect it.
				go h.drop(client)
			}
		}
	}
}

// GetOnlineUserIDs returns the ids of everybody with at least one connection.
func (h *Hub) GetOnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

// DisconnectSession closes every connection opened under sessionID.
//
// The gate only runs when a socket is opened, so a socket would otherwise
// keep receiving change events after its session logged out. Other sessions
// of the same staff member (another browser) stay connected.
func (h *Hub) DisconnectSession(sessionID string) {
	if sessionID == "" {
		return
	}

	h.mu.RLock()
	var matched []*Client
	for _, clients := range h.clients {
		for client := range clients {
			if client.sessionID == sessionID {
				matched = append(matched, client)
			}
		}
	}
	h.mu.RUnlock()

	// Through Run, so the offline presence event goes out as for any close.
	for _, client := range matched {
		h.drop(client)
	}
	if len(matched) > 0 {
		h.logger.Debug("session connections closed",
			zap.String("session_id", sessionID),
			zap.Int("connections", len(matched)))
	}
}

// Shutdown closes every connection and stops Run.
func (h *Hub) Shutdown() {
	h.closeOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for _, clients := range h.clients {
			for client := range clients {
				close(client.send)
			}
		}
		h.clients = make(map[string]map[*Client]bool)
		h.logger.Info("hub shut down, all connections closed")
	})
}
