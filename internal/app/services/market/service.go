// Package market publishes market data: every publication caches the latest
// snapshot and fans it out through the broadcaster.
package market

import (
	"context"

	"github.com/bitpredict/trading-platform/internal/app/domain/market"
	"github.com/bitpredict/trading-platform/internal/cache"
	"github.com/bitpredict/trading-platform/internal/errors"
	"github.com/bitpredict/trading-platform/internal/metrics"
	"github.com/bitpredict/trading-platform/internal/realtime"
	"github.com/bitpredict/trading-platform/pkg/logger"
)

// Service caches and broadcasts market data. Broadcasts are fire-and-forget;
// cache writes degrade silently with the store.
type Service struct {
	cache *cache.Service
	hub   *realtime.Hub
	log   *logger.Logger
}

// New constructs the market data service. hub may be nil before the
// websocket server is initialized; publications then only populate the cache.
func New(cacheSvc *cache.Service, hub *realtime.Hub, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("market")
	}
	return &Service{cache: cacheSvc, hub: hub, log: log}
}

// PublishPrice caches the latest price and broadcasts a price:update event.
func (s *Service) PublishPrice(ctx context.Context, symbol string, price float64) error {
	if symbol == "" {
		return errors.InvalidInput("symbol is required")
	}
	s.cache.CachePrice(ctx, symbol, price)
	s.hub.BroadcastPriceUpdate(symbol, price)
	return nil
}

// PublishOrderBook caches the snapshot and broadcasts an orderbook:update.
func (s *Service) PublishOrderBook(ctx context.Context, book market.OrderBook) error {
	if book.Symbol == "" {
		return errors.InvalidInput("symbol is required")
	}
	s.cache.CacheOrderBook(ctx, book.Symbol, book)
	s.hub.BroadcastOrderBookUpdate(book.Symbol, book)
	return nil
}

// PublishTrade broadcasts an executed trade to the global trades room and
// the owning user's room.
func (s *Service) PublishTrade(trade market.Trade) error {
	if trade.Symbol == "" {
		return errors.InvalidInput("symbol is required")
	}
	s.hub.BroadcastTradeExecution(trade)
	return nil
}

// PublishPair caches rolling statistics for a trading pair. Pair stats have
// no broadcast event; clients poll them.
func (s *Service) PublishPair(ctx context.Context, stats market.Pair) error {
	if stats.Pair == "" {
		return errors.InvalidInput("pair is required")
	}
	s.cache.CacheTradingPair(ctx, stats.Pair, stats)
	return nil
}

// Pair returns the cached statistics for a trading pair.
func (s *Service) Pair(ctx context.Context, pair string) (market.Pair, bool) {
	var stats market.Pair
	ok := s.cache.GetTradingPair(ctx, pair, &stats)
	metrics.RecordCacheLookup(ok)
	return stats, ok
}

// Price returns the cached latest price for a symbol.
func (s *Service) Price(ctx context.Context, symbol string) (float64, bool) {
	price, ok := s.cache.GetPrice(ctx, symbol)
	metrics.RecordCacheLookup(ok)
	return price, ok
}

// OrderBook returns the cached order book snapshot for a symbol.
func (s *Service) OrderBook(ctx context.Context, symbol string) (market.OrderBook, bool) {
	var book market.OrderBook
	ok := s.cache.GetOrderBook(ctx, symbol, &book)
	metrics.RecordCacheLookup(ok)
	return book, ok
}
