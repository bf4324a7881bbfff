package realtime

import (
	"github.com/bitpredict/trading-platform/internal/app/domain/chat"
	"github.com/bitpredict/trading-platform/internal/app/domain/market"
)

// BroadcastPriceUpdate pushes a price tick to subscribers of the symbol's
// price room.
func (h *Hub) BroadcastPriceUpdate(symbol string, price float64) {
	h.emit(PriceRoom(symbol), EventPriceUpdate, map[string]interface{}{
		"symbol": symbol,
		"price":  price,
	})
}

// BroadcastOrderBookUpdate pushes an order book snapshot to subscribers of
// the symbol's order book room.
func (h *Hub) BroadcastOrderBookUpdate(symbol string, book market.OrderBook) {
	h.emit(OrderBookRoom(symbol), EventOrderBookUpdate, book)
}

// BroadcastTradeExecution delivers an executed trade to the global trades
// room and, as trade:executed, to the owning user's room.
func (h *Hub) BroadcastTradeExecution(trade market.Trade) {
	h.emit(TradesRoom, EventTradeNew, trade)
	if trade.UserID != "" {
		h.emit(UserRoom(trade.UserID), EventTradeExecuted, trade)
	}
}

// SendUserNotification delivers an arbitrary payload to one user's room.
func (h *Hub) SendUserNotification(userID string, payload map[string]interface{}) {
	h.emit(UserRoom(userID), EventNotification, payload)
}

// BroadcastChatMessage delivers a chat message to its room's subscribers.
func (h *Hub) BroadcastChatMessage(roomID string, message chat.Message) {
	h.emit(ChatRoom(roomID), EventChatMessage, message)
}

// BroadcastSystemNotification delivers a system message to every live
// connection, unscoped by room. Level is "info", "warning", or "error".
func (h *Hub) BroadcastSystemNotification(message, level string) {
	if level == "" {
		level = "info"
	}
	h.emitAll(EventSystemNotification, map[string]interface{}{
		"message": message,
		"level":   level,
	})
}

// SendPriceAlert delivers a price alert to one user's room.
func (h *Hub) SendPriceAlert(userID string, alert market.PriceAlert) {
	h.emit(UserRoom(userID), EventPriceAlert, alert)
}
