package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bitpredict/trading-platform/internal/config"
	"github.com/bitpredict/trading-platform/pkg/logger"
)

func newDisconnectedStore(t *testing.T) *Store {
	t.Helper()
	// Never connected: every operation must degrade, not error.
	return New(config.RedisConfig{Host: "localhost", Port: 6379}, logger.New("test", "error", "json"))
}

func TestStore_DegradedOperations(t *testing.T) {
	s := newDisconnectedStore(t)
	ctx := context.Background()

	if s.Connected() {
		t.Error("store reports connected before Connect")
	}

	// None of these may panic or block; all report absence or failure.
	s.Set(ctx, "k", "v", time.Minute)
	s.Delete(ctx, "k")

	if _, ok := s.Get(ctx, "k"); ok {
		t.Error("Get() reported a hit on a degraded store")
	}
	if err := s.SetChecked(ctx, "k", "v", time.Minute); err == nil {
		t.Error("SetChecked() succeeded on a degraded store")
	}
	if s.CompareAndSwap(ctx, "k", "old", "new", time.Minute) {
		t.Error("CompareAndSwap() succeeded on a degraded store")
	}
	if _, ok := s.Incr(ctx, "k", time.Minute); ok {
		t.Error("Incr() succeeded on a degraded store")
	}
}

func (s *Store) reconnectRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnecting
}

func TestStore_MidRunOutageRestartsReconnect(t *testing.T) {
	s := newDisconnectedStore(t)
	s.connected.Store(true)

	s.markDown(errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"))

	if s.Connected() {
		t.Error("store still reports connected after a connection error")
	}
	if !s.reconnectRunning() {
		t.Fatal("mid-run outage did not start the reconnect loop")
	}

	// A second outage while the loop runs must not start another.
	s.connected.Store(true)
	s.markDown(errors.New("write: broken pipe"))
	if !s.reconnectRunning() {
		t.Error("reconnect loop stopped unexpectedly")
	}

	if err := s.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for s.reconnectRunning() {
		if time.Now().After(deadline) {
			t.Fatal("reconnect loop did not stop after Disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStore_NoReconnectAfterDisconnect(t *testing.T) {
	s := newDisconnectedStore(t)
	if err := s.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}

	s.connected.Store(true)
	s.markDown(errors.New("connection reset by peer"))

	if s.reconnectRunning() {
		t.Error("reconnect loop started on a closed store")
	}
}

func TestStore_IgnoresNonConnectivityErrors(t *testing.T) {
	s := newDisconnectedStore(t)
	s.connected.Store(true)

	s.markDown(errors.New("WRONGTYPE Operation against a key holding the wrong kind of value"))

	if !s.Connected() {
		t.Error("non-connectivity error flipped the connection state")
	}
	if s.reconnectRunning() {
		t.Error("non-connectivity error started the reconnect loop")
	}
	s.Disconnect()
}

func TestService_DegradedLookups(t *testing.T) {
	log := logger.New("test", "error", "json")
	svc := NewService(newDisconnectedStore(t), log)
	ctx := context.Background()

	svc.CachePrice(ctx, "BTC", 100)
	if _, ok := svc.GetPrice(ctx, "BTC"); ok {
		t.Error("GetPrice() reported a hit on a degraded store")
	}

	svc.CacheUserSession(ctx, "u1", map[string]string{"k": "v"})
	var session map[string]string
	if svc.GetUserSession(ctx, "u1", &session) {
		t.Error("GetUserSession() reported a hit on a degraded store")
	}
}
