package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cleberrangel/painel-obras/internal/logger"
	"github.com/cleberrangel/painel-obras/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ServeWS handles websocket requests from the dashboard
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.FromGin(c).Error().
			Err(err).
			Str("remote_addr", c.ClientIP()).
			Msg("Failed to upgrade WebSocket connection")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	client := &Client{
		conn:        conn,
		Send:        make(chan []byte, defaultSendCapacity),
		ID:          uuid.New().String(),
		RemoteAddr:  c.ClientIP(),
		Hub:         h,
		ConnectedAt: time.Now(),
	}

	if !h.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub
//
// The application runs readPump in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine.
func (c *Client) readPump() {
	defer func() {
		c.Hub.leave(c)
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
				logger.Global().Warn().
					Err(err).
					Str("client_id", c.ID).
					Msg("WebSocket connection closed unexpectedly")
			}
			break
		}

		metrics.Get().IncrementWSMessageIn()
		c.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection
//
// A goroutine running writePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
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

// handleMessage processes incoming messages from the client
func (c *Client) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Global().Debug().
			Err(err).
			Str("client_id", c.ID).
			Msg("Failed to unmarshal client message")
		return
	}

	switch msg.Type {
	case "ping":
		c.SendMessage(Message{
			Type:      MessagePong,
			Timestamp: time.Now(),
		})

	case MessageStatus:
		status, ok := c.Hub.currentStatus()
		if !ok {
			return
		}
		c.SendMessage(Message{
			Type:      MessageStatus,
			Data:      status,
			Timestamp: time.Now(),
		})

	default:
		logger.Global().Debug().
			Str("client_id", c.ID).
			Str("message_type", msg.Type).
			Msg("Unknown message type received from client")
	}
}

// SendMessage sends a message to this specific client; a full buffer drops the message
func (c *Client) SendMessage(message interface{}) bool {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Global().Error().
			Err(err).
			Str("client_id", c.ID).
			Msg("Failed to marshal message for client")
		return false
	}

	if !c.Hub.sendTo(c, data) {
		logger.Global().Warn().
			Str("client_id", c.ID).
			Msg("Message not delivered to WebSocket client")
		return false
	}
	return true
}
