package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/bitpredict/trading-platform/pkg/logger"
)

// Default TTLs for the domain caches, in line with how fast each dataset
// goes stale.
const (
	priceTTL     = 5 * time.Minute
	orderBookTTL = time.Minute
	sessionTTL   = time.Hour
	pairTTL      = 5 * time.Minute
)

// Service is the typed façade over the raw store for the domain caches:
// prices, order books, sessions, trading pairs, and the FAQ corpus. It
// inherits the store's degrade-don't-crash policy, so every getter reports
// absence instead of failing.
type Service struct {
	store *Store
	log   *logger.Logger
}

// NewService creates the typed cache façade.
func NewService(store *Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("cache")
	}
	return &Service{store: store, log: log}
}

// CachePrice stores the latest price for a symbol.
func (s *Service) CachePrice(ctx context.Context, symbol string, price float64) {
	s.store.Set(ctx, PriceKey(symbol), strconv.FormatFloat(price, 'f', -1, 64), priceTTL)
}

// GetPrice returns the cached price for a symbol.
func (s *Service) GetPrice(ctx context.Context, symbol string) (float64, bool) {
	raw, ok := s.store.Get(ctx, PriceKey(symbol))
	if !ok {
		return 0, false
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.log.WithError(err).WithField("symbol", symbol).Warn("corrupt cached price")
		return 0, false
	}
	return price, true
}

// CacheOrderBook stores an order book snapshot for a symbol.
func (s *Service) CacheOrderBook(ctx context.Context, symbol string, book interface{}) {
	s.setJSON(ctx, OrderBookKey(symbol), book, orderBookTTL)
}

// GetOrderBook loads the cached order book snapshot into dest.
func (s *Service) GetOrderBook(ctx context.Context, symbol string, dest interface{}) bool {
	return s.getJSON(ctx, OrderBookKey(symbol), dest)
}

// CacheUserSession stores session data for a user.
func (s *Service) CacheUserSession(ctx context.Context, userID string, session interface{}) {
	s.setJSON(ctx, SessionKey(userID), session, sessionTTL)
}

// GetUserSession loads cached session data into dest.
func (s *Service) GetUserSession(ctx context.Context, userID string, dest interface{}) bool {
	return s.getJSON(ctx, SessionKey(userID), dest)
}

// DeleteUserSession drops the cached session for a user.
func (s *Service) DeleteUserSession(ctx context.Context, userID string) {
	s.store.Delete(ctx, SessionKey(userID))
}

// CacheTradingPair stores market data for a trading pair.
func (s *Service) CacheTradingPair(ctx context.Context, pair string, data interface{}) {
	s.setJSON(ctx, TradingPairKey(pair), data, pairTTL)
}

// GetTradingPair loads cached trading pair data into dest.
func (s *Service) GetTradingPair(ctx context.Context, pair string, dest interface{}) bool {
	return s.getJSON(ctx, TradingPairKey(pair), dest)
}

// CacheFAQ stores the FAQ corpus with no expiry.
func (s *Service) CacheFAQ(ctx context.Context, faqs interface{}) {
	s.setJSON(ctx, faqKey, faqs, 0)
}

// GetFAQ loads the cached FAQ corpus into dest.
func (s *Service) GetFAQ(ctx context.Context, dest interface{}) bool {
	return s.getJSON(ctx, faqKey, dest)
}

func (s *Service) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("marshal cache value")
		return
	}
	s.store.Set(ctx, key, string(data), ttl)
}

func (s *Service) getJSON(ctx context.Context, key string, dest interface{}) bool {
	raw, ok := s.store.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("corrupt cache entry")
		return false
	}
	return true
}
