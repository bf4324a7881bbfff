// Package realtime implements the websocket notification broadcaster: a
// registry of live connections grouped into named rooms, with fire-and-forget
// JSON event delivery to every member of a room.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bitpredict/trading-platform/internal/metrics"
	"github.com/bitpredict/trading-platform/pkg/logger"
)

// Event names delivered to subscribers.
const (
	EventPriceUpdate        = "price:update"
	EventOrderBookUpdate    = "orderbook:update"
	EventTradeNew           = "trade:new"
	EventTradeExecuted      = "trade:executed"
	EventNotification       = "notification"
	EventChatMessage        = "chat:message"
	EventSystemNotification = "system:notification"
	EventPriceAlert         = "price:alert"
)

// Room name helpers.
func PriceRoom(symbol string) string     { return "price:" + symbol }
func OrderBookRoom(symbol string) string { return "orderbook:" + symbol }
func UserRoom(userID string) string      { return "user:" + userID }
func ChatRoom(roomID string) string      { return "chat:" + roomID }

// TradesRoom is the global room receiving every executed trade.
const TradesRoom = "trades"

// envelope is the wire format for outbound events.
type envelope struct {
	Event string                 `json:"event"`
	Room  string                 `json:"room,omitempty"`
	Data  map[string]interface{} `json:"data"`
}

// Hub maintains the room membership table and fans events out to
// subscribers. All broadcast operations are fire-and-forget: no delivery
// acknowledgment and no ordering guarantee across rooms. A nil Hub makes
// every broadcast a silent no-op, so callers that run before server startup
// never crash for a timing issue (their events are lost, by contract).
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	upgrader websocket.Upgrader
	log      *logger.Logger
	now      func() time.Time
}

// NewHub creates an empty hub. checkOrigin decides whether a handshake
// origin is acceptable; nil allows all origins.
func NewHub(log *logger.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	if log == nil {
		log = logger.NewDefault("realtime")
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: log,
		now: time.Now,
	}
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := newClient(h, conn)
	h.register(client)
	h.log.WithField("client", client.id).Debug("client connected")

	go client.writePump()
	go client.readPump()
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.SetConnections(n)
}

// unregister removes the client and implicitly drops all room memberships.
// Membership is never persisted across reconnects; the client must
// re-subscribe.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	n, rooms := len(h.clients), len(h.rooms)
	h.mu.Unlock()

	c.shutdown()
	metrics.SetConnections(n)
	metrics.SetRooms(rooms)
	h.log.WithField("client", c.id).Debug("client disconnected")
}

func (h *Hub) subscribe(c *Client, rooms []string) {
	h.mu.Lock()
	for _, room := range rooms {
		if room == "" {
			continue
		}
		if h.rooms[room] == nil {
			h.rooms[room] = make(map[*Client]struct{})
		}
		h.rooms[room][c] = struct{}{}
		c.rooms[room] = struct{}{}
	}
	n := len(h.rooms)
	h.mu.Unlock()
	metrics.SetRooms(n)
}

func (h *Hub) unsubscribe(c *Client, rooms []string) {
	h.mu.Lock()
	for _, room := range rooms {
		h.leaveLocked(c, room)
		delete(c.rooms, room)
	}
	n := len(h.rooms)
	h.mu.Unlock()
	metrics.SetRooms(n)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// emit delivers an event to every member of a room, stamping the server-side
// send time in epoch millis. Slow consumers are dropped rather than blocking
// the sender.
func (h *Hub) emit(room, event string, payload interface{}) {
	if h == nil {
		return
	}
	data := h.stamp(payload)
	frame, err := json.Marshal(envelope{Event: event, Room: room, Data: data})
	if err != nil {
		h.log.WithError(err).WithField("event", event).Warn("marshal broadcast")
		return
	}

	h.mu.RLock()
	members := h.rooms[room]
	targets := make([]*Client, 0, len(members))
	for c := range members {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(frame)
	}
	metrics.RecordBroadcast(event)
}

// emitAll delivers an event to every live connection, unscoped by room.
func (h *Hub) emitAll(event string, payload interface{}) {
	if h == nil {
		return
	}
	data := h.stamp(payload)
	frame, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		h.log.WithError(err).WithField("event", event).Warn("marshal broadcast")
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(frame)
	}
	metrics.RecordBroadcast(event)
}

// stamp flattens payload into a map and sets the timestamp field. The stamp
// is taken at send time, not at the originating event's time.
func (h *Hub) stamp(payload interface{}) map[string]interface{} {
	data := make(map[string]interface{})
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err == nil {
			_ = json.Unmarshal(raw, &data)
		} else {
			h.log.WithError(err).Warn("marshal broadcast payload")
		}
	}
	data["timestamp"] = h.now().UnixMilli()
	return data
}

// ClientCount reports the number of live connections.
func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize reports the number of subscribers in a room.
func (h *Hub) RoomSize(room string) int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
