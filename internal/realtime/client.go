package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// subscribeMessage is the only inbound message shape clients send.
type subscribeMessage struct {
	Action string   `json:"action"`
	Rooms  []string `json:"rooms"`
}

// Client is one live websocket connection. Lifecycle: Connected, zero or
// more room subscriptions, then Disconnected (terminal).
type Client struct {
	id    string
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	done  chan struct{}
	once  sync.Once
	rooms map[string]struct{}
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:    uuid.NewString(),
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
		rooms: make(map[string]struct{}),
	}
}

// shutdown signals the write pump to finish. send is never closed; a
// broadcast racing a disconnect enqueues into a buffer nobody drains, which
// is safe.
func (c *Client) shutdown() {
	c.once.Do(func() { close(c.done) })
}

// enqueue hands a frame to the write pump. A client whose buffer is full or
// already gone is skipped; delivery is best effort.
func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	case <-c.done:
	default:
		c.hub.log.WithField("client", c.id).Debug("send buffer full, dropping frame")
	}
}

// readPump consumes inbound subscribe/unsubscribe messages until the
// connection closes or errors, then unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg subscribeMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.log.WithField("client", c.id).Debug("ignoring malformed message")
			continue
		}

		switch msg.Action {
		case "subscribe":
			c.hub.subscribe(c, msg.Rooms)
		case "unsubscribe":
			c.hub.unsubscribe(c, msg.Rooms)
		}
	}
}

// writePump flushes queued frames and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
