package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Connection represents one websocket subscriber.
type Connection struct {
	AccountID uuid.UUID
	Admin     bool
	Conn      *websocket.Conn
	Send      chan []byte
}

// NewConnection wraps a websocket connection for hub registration.
func NewConnection(accountID uuid.UUID, admin bool, conn *websocket.Conn) *Connection {
	return &Connection{
		AccountID: accountID,
		Admin:     admin,
		Conn:      conn,
		Send:      make(chan []byte, 256),
	}
}

// ReadPump discards inbound frames (the push channel is one-way) and keeps
// the connection alive until the client goes away. Call in a goroutine.
func (c *Connection) ReadPump(hub *Hub) {
	defer func() {
		hub.Unregister(c)
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
				log.Error().Err(err).Str("account_id", c.AccountID.String()).Msg("Push read error")
			}
			return
		}
	}
}

// WritePump flushes queued events to the client with ping keepalives.
// Call in a goroutine.
func (c *Connection) WritePump() {
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
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
