package ws

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// IdentityFunc returns the staff id and session id of an already
// authenticated request. The /ws route sits behind the session gate, which
// puts both in the request context; ws does not import the middleware package
// to read them. The session id lets logout close that session's sockets.
type IdentityFunc func(r *http.Request) (userID, sessionID string, ok bool)

// Handler upgrades /ws requests and registers the connection.
type Handler struct {
	hub      *Hub
	identity IdentityFunc
	upgrader websocket.Upgrader
}

// NewHandler creates the /ws handler. checkOrigin may be nil to accept the
// same origin only (gorilla's default).
func NewHandler(hub *Hub, identity IdentityFunc, checkOrigin func(r *http.Request) bool) *Handler {
	return &Handler{
		hub:      hub,
		identity: identity,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// HandleConnection upgrades the request, sends the ready frame and blocks in
// ReadPump until the connection ends.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := h.identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.logger.Warn("upgrade failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	client := &Client{
		hub:       h.hub,
		conn:      conn,
		userID:    userID,
		sessionID: sessionID,
		send:      make(chan []byte, sendBufferSize),
	}

	// The ready frame is queued before registration: nobody else can write to
	// or close send until the hub knows about the client.
	online := h.hub.GetOnlineUserIDs()
	if !slices.Contains(online, userID) {
		online = append(online, userID)
	}
	ready, err := json.Marshal(Event{Op: OpReady, Data: ReadyData{UserID: userID, Online: online}})
	if err != nil {
		conn.Close()
		return
	}
	client.send <- ready

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump()
}
