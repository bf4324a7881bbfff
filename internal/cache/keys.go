package cache

import "fmt"

// Key namespaces. Every entry in the store is prefixed by purpose so that
// revocation, expiry, and debugging stay per-concern.
const faqKey = "faq:data"

// RefreshTokenKey derives the storage key for a user's refresh token.
func RefreshTokenKey(userID string) string { return "refresh_" + userID }

// VerificationKey derives the storage key for an email verification token.
func VerificationKey(email string) string { return "verify_" + email }

// PriceKey derives the storage key for a symbol's latest price.
func PriceKey(symbol string) string { return "price:" + symbol }

// OrderBookKey derives the storage key for a symbol's order book snapshot.
func OrderBookKey(symbol string) string { return "orderbook:" + symbol }

// SessionKey derives the storage key for a user's session payload.
func SessionKey(userID string) string { return "session:" + userID }

// TradingPairKey derives the storage key for a trading pair snapshot.
func TradingPairKey(pair string) string { return "trading:" + pair }

// RateLimitKey derives the counter key for a client identity and window.
func RateLimitKey(id string, window int64) string {
	return fmt.Sprintf("rate-limit:%s:%d", id, window)
}
