package market

import (
	"context"
	"testing"

	"github.com/bitpredict/trading-platform/internal/app/domain/market"
	"github.com/bitpredict/trading-platform/internal/cache"
	"github.com/bitpredict/trading-platform/internal/config"
	"github.com/bitpredict/trading-platform/pkg/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	log := logger.New("test", "error", "json")
	// Disconnected store: publications degrade to broadcast-only.
	store := cache.New(config.RedisConfig{Host: "localhost", Port: 6379}, log)
	return New(cache.NewService(store, log), nil, log)
}

func TestPublishPrice_DegradedStore(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// Publication succeeds even though nothing can be cached and no hub
	// exists yet.
	if err := svc.PublishPrice(ctx, "BTC", 52000); err != nil {
		t.Fatalf("PublishPrice() error = %v", err)
	}

	if _, ok := svc.Price(ctx, "BTC"); ok {
		t.Error("Price() reported a hit on a degraded store")
	}
}

func TestPublishPrice_EmptySymbol(t *testing.T) {
	svc := newTestService(t)
	if err := svc.PublishPrice(context.Background(), "", 1); err == nil {
		t.Error("expected error for empty symbol")
	}
}

func TestPublishOrderBook(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	book := market.OrderBook{
		Symbol: "BTC",
		Bids:   [][2]float64{{51900, 0.5}},
		Asks:   [][2]float64{{52100, 0.3}},
	}
	if err := svc.PublishOrderBook(ctx, book); err != nil {
		t.Fatalf("PublishOrderBook() error = %v", err)
	}

	if err := svc.PublishOrderBook(ctx, market.OrderBook{}); err == nil {
		t.Error("expected error for empty symbol")
	}

	if _, ok := svc.OrderBook(ctx, "BTC"); ok {
		t.Error("OrderBook() reported a hit on a degraded store")
	}
}

func TestPublishPair(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	stats := market.Pair{Pair: "BTC-USD", LastPrice: 52000, High24h: 53000, Low24h: 51000}
	if err := svc.PublishPair(ctx, stats); err != nil {
		t.Fatalf("PublishPair() error = %v", err)
	}

	if err := svc.PublishPair(ctx, market.Pair{}); err == nil {
		t.Error("expected error for empty pair")
	}

	if _, ok := svc.Pair(ctx, "BTC-USD"); ok {
		t.Error("Pair() reported a hit on a degraded store")
	}
}

func TestPublishTrade(t *testing.T) {
	svc := newTestService(t)

	trade := market.Trade{ID: "t1", UserID: "u1", Symbol: "BTC", Price: 52000, Amount: 0.1, Side: market.SideBuy}
	if err := svc.PublishTrade(trade); err != nil {
		t.Fatalf("PublishTrade() error = %v", err)
	}

	if err := svc.PublishTrade(market.Trade{}); err == nil {
		t.Error("expected error for empty symbol")
	}
}
