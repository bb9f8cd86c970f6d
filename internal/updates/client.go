package updates

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/digiplay/digiplay-server/internal/utils"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 70 * time.Second

	// PingPeriod is how often the server pings each client. Must be less than pongWait.
	PingPeriod = 30 * time.Second

	// Clients only send control frames.
	maxMessageSize = 512

	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The web client is served from its own origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket connection of an owner
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	OwnerID string
	send    chan Event
	logger  *utils.Logger
}

// ServeWs upgrades the request and streams events for ownerID until the
// connection closes.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, ownerID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:     hub,
		conn:    conn,
		OwnerID: ownerID,
		send:    make(chan Event, sendBuffer),
		logger:  hub.logger.With("owner", ownerID),
	}
	hub.Register(client)
	client.logger.Debug("update stream opened")

	go client.writePump()
	go client.readPump()
	return nil
}

// readPump discards client messages and keeps the read deadline fresh. It
// unregisters the client when the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("update stream closed", "err", err)
			}
			return
		}
	}
}

// writePump writes events and pings until the send channel closes
func (c *Client) writePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
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
