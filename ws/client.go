package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait bounds a single write.
	writeWait = 10 * time.Second

	// pongWait is three missed heartbeats (30s each).
	pongWait = 90 * time.Second

	// maxMessageSize: dashboards only send heartbeats.
	maxMessageSize = 4096

	// sendBufferSize: a client this far behind is disconnected.
	sendBufferSize = 256
)

// Client is one WebSocket connection.
//
// gorilla/websocket allows one concurrent reader and one concurrent writer, so
// every connection runs ReadPump and WritePump in separate goroutines.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	userID    string
	sessionID string
	send      chan []byte
	mu        sync.Mutex // serialises conn writes
}

// ReadPump reads frames until the connection fails, then unregisters.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.hub.logger.Warn("failed to set read deadline", zap.String("user_id", c.userID), zap.Error(err))
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("unexpected close", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			c.hub.logger.Debug("invalid frame", zap.String("user_id", c.userID), zap.Error(err))
			continue
		}

		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.hub.logger.Warn("failed to extend read deadline", zap.String("user_id", c.userID), zap.Error(err))
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})
	default:
		c.hub.logger.Debug("ignoring frame", zap.String("user_id", c.userID), zap.String("op", event.Op))
	}
}

// sendEvent queues one event for this client only. It is a no-op once the
// hub has removed the client, so a late heartbeat never hits a closed channel.
func (c *Client) sendEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		c.hub.logger.Error("failed to marshal event", zap.String("op", event.Op), zap.Error(err))
		return
	}
	c.hub.sendTo(c, data)
}

// WritePump writes queued frames until the hub closes the send channel.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.writeMessage(websocket.CloseMessage, nil)
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
