// Package market defines the market data shapes flowing through the cache
// and the broadcaster.
package market

// OrderBook is a snapshot of resting orders for a symbol. Each level is a
// [price, amount] pair.
type OrderBook struct {
	Symbol string       `json:"symbol"`
	Bids   [][2]float64 `json:"bids"`
	Asks   [][2]float64 `json:"asks"`
}

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Trade is one executed trade.
type Trade struct {
	ID     string  `json:"id"`
	UserID string  `json:"userId"`
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
	Side   Side    `json:"side"`
}

// Pair holds rolling 24h statistics for a trading pair.
type Pair struct {
	Pair      string  `json:"pair"`
	LastPrice float64 `json:"lastPrice"`
	High24h   float64 `json:"high24h"`
	Low24h    float64 `json:"low24h"`
	Volume24h float64 `json:"volume24h"`
	Change24h float64 `json:"change24h"`
}

// PriceAlert notifies a user that a watched symbol crossed a threshold.
type PriceAlert struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Threshold float64 `json:"threshold"`
	Direction string  `json:"direction"` // "above" or "below"
}
