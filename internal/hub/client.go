package hub

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one registered WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string

	// joinedAt is the publish sequence at registration; set under the hub lock.
	joinedAt uint64
}

// NewClient wraps conn. userID is empty for anonymous connections.
func (h *Hub) NewClient(conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, h.cfg.SendBuffer),
		userID: userID,
	}
}

// Serve registers the client and runs its pumps. It returns immediately;
// the read pump unregisters the client when the connection ends.
func (c *Client) Serve() {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

// closeSend must only be called with the hub write lock held.
func (c *Client) closeSend() {
	close(c.send)
}

func (c *Client) pingInterval() time.Duration {
	return time.Duration(c.hub.cfg.PingInterval) * time.Second
}

func (c *Client) pongWait() time.Duration {
	return time.Duration(c.hub.cfg.PongTimeout) * time.Second
}

// readPump consumes client frames until the connection fails, then unregisters.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	if c.hub.cfg.MaxMessageSize > 0 {
		c.conn.SetReadLimit(int64(c.hub.cfg.MaxMessageSize))
	}
	deadline := c.pingInterval() + c.pongWait()
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "user_id", c.userID, "error", err)
			}
			return
		}
		// Any client frame counts as liveness.
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(deadline))
		c.handleMessage(data)
	}
}

// writePump drains the outbound buffer and sends keep-alive pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(c.pongWait()))
			if !ok {
				//nolint:errcheck // Best-effort close frame
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(c.pongWait()))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type inbound struct {
	Type string `json:"type"`
}

func (c *Client) handleMessage(data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(message{Type: TypeError, Message: "invalid JSON message"})
		return
	}

	switch msg.Type {
	case TypePing:
		c.reply(message{Type: TypePong})
	default:
		c.reply(message{Type: TypeError, Message: "unknown message type: " + msg.Type})
	}
}

func (c *Client) reply(m message) {
	m.Timestamp = formatTime(time.Now())
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	c.hub.sendTo(c, data)
}
