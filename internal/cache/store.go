// Package cache provides the Redis-backed key-value store shared by the
// token service, rate limiter, and domain caches.
package cache

import (
	"context"
	"crypto/tls"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/bitpredict/trading-platform/internal/config"
	"github.com/bitpredict/trading-platform/pkg/logger"
)

// maxReconnectDelay caps the backoff between reconnect attempts.
const maxReconnectDelay = 10 * time.Second

// Store wraps a redis client with a degrade-don't-crash policy: when the
// connection is down, Get reports absent, Set and Delete are no-ops, and Ping
// reports disconnected. Connectivity problems are never surfaced as errors to
// callers.
type Store struct {
	client    *redis.Client
	log       *logger.Logger
	connected atomic.Bool

	mu           sync.Mutex
	cancel       context.CancelFunc
	reconnecting bool
	closed       bool
}

// New creates a Store for the given configuration. The connection is not
// established until Connect is called.
func New(cfg config.RedisConfig, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewDefault("cache")
	}

	opts := &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return &Store{
		client: redis.NewClient(opts),
		log:    log,
	}
}

// Connect pings the server and, on failure, starts a background reconnect
// loop with capped backoff (min(attempt*1s, 10s), unlimited attempts). The
// caller-visible effect of an unreachable server is transient degradation,
// never an error.
func (s *Store) Connect(ctx context.Context) {
	if err := s.client.Ping(ctx).Err(); err == nil {
		s.connected.Store(true)
		s.log.Info("connected to redis")
		return
	}

	s.log.Warn("redis unreachable, retrying in background")
	s.startReconnect()
}

// startReconnect launches the background reconnect loop. At most one loop
// runs at a time, and none after Disconnect.
func (s *Store) startReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.reconnecting {
		return
	}
	s.reconnecting = true
	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.reconnectLoop(loopCtx)
}

func (s *Store) reconnectLoop(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.reconnecting = false
		s.mu.Unlock()
	}()

	for attempt := 1; ; attempt++ {
		delay := time.Duration(attempt) * time.Second
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		if err := s.client.Ping(ctx).Err(); err == nil {
			s.connected.Store(true)
			s.log.WithField("attempt", attempt).Info("redis connection established")
			return
		}
		s.log.WithField("attempt", attempt).Debug("redis reconnect failed")
	}
}

// Disconnect stops any reconnect loop and closes the client.
func (s *Store) Disconnect() error {
	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.connected.Store(false)
	return s.client.Close()
}

// Ping reports whether the store is reachable.
func (s *Store) Ping(ctx context.Context) bool {
	if err := s.client.Ping(ctx).Err(); err != nil {
		if s.connected.CompareAndSwap(true, false) {
			s.startReconnect()
		}
		return false
	}
	s.connected.Store(true)
	return true
}

// Connected reports the last known connection state without a round trip.
func (s *Store) Connected() bool { return s.connected.Load() }

// Set stores value under key with an optional TTL (zero means no expiry).
// Failures are logged and swallowed.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if !s.connected.Load() {
		s.log.WithField("key", key).Debug("redis disconnected, skipping set")
		return
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.markDown(err)
		s.log.WithError(err).WithField("key", key).Warn("redis set failed")
	}
}

// SetChecked behaves like Set but reports failure. Used by callers that are
// configured for strict persistence.
func (s *Store) SetChecked(ctx context.Context, key, value string, ttl time.Duration) error {
	if !s.connected.Load() {
		return redis.ErrClosed
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.markDown(err)
		return err
	}
	return nil
}

// Get returns the value at key, reporting absence for missing keys and for
// any connectivity failure.
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	if !s.connected.Load() {
		return "", false
	}
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		s.markDown(err)
		s.log.WithError(err).WithField("key", key).Warn("redis get failed")
		return "", false
	}
	return val, true
}

// Delete removes key. Failures are logged and swallowed.
func (s *Store) Delete(ctx context.Context, key string) {
	if !s.connected.Load() {
		return
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.markDown(err)
		s.log.WithError(err).WithField("key", key).Warn("redis delete failed")
	}
}

// compareAndSwapScript atomically replaces the value at KEYS[1] with ARGV[2]
// when the current value equals ARGV[1]. Returns 1 on swap, 0 otherwise.
var compareAndSwapScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  redis.call("SET", KEYS[1], ARGV[2], "EX", ARGV[3])
  return 1
end
return 0
`)

// CompareAndSwap atomically replaces the value at key with next when the
// stored value equals expected, applying ttl to the new value. It reports
// false when the values differ or the store is unreachable.
func (s *Store) CompareAndSwap(ctx context.Context, key, expected, next string, ttl time.Duration) bool {
	if !s.connected.Load() {
		return false
	}
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	res, err := compareAndSwapScript.Run(ctx, s.client, []string{key}, expected, next, seconds).Int64()
	if err != nil {
		s.markDown(err)
		s.log.WithError(err).WithField("key", key).Warn("redis compare-and-swap failed")
		return false
	}
	return res == 1
}

// Incr increments the counter at key, setting ttl on first increment. Used by
// the rate limiter. Returns the counter value and whether the call succeeded.
func (s *Store) Incr(ctx context.Context, key string, ttl time.Duration) (int64, bool) {
	if !s.connected.Load() {
		return 0, false
	}
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		s.markDown(err)
		s.log.WithError(err).WithField("key", key).Warn("redis incr failed")
		return 0, false
	}
	return incr.Val(), true
}

// markDown flips the connection state on errors that indicate the server is
// gone, so subsequent calls short-circuit, and restarts the reconnect loop.
// Mid-run outages recover the same way failed startups do.
func (s *Store) markDown(err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		err == redis.ErrClosed {
		if s.connected.CompareAndSwap(true, false) {
			s.log.Warn("redis connection lost, retrying in background")
			s.startReconnect()
		}
	}
}
