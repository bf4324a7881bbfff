package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitpredict/trading-platform/internal/cache"
	"github.com/bitpredict/trading-platform/internal/errors"
	"github.com/bitpredict/trading-platform/pkg/logger"
)

// RateLimiter enforces a fixed-window request limit per client identity,
// keyed by authenticated user id when present and client IP otherwise.
// Counters live in the shared store so limits hold across replicas; when the
// store is degraded the limiter falls back to per-process token buckets
// rather than rejecting traffic.
type RateLimiter struct {
	store  *cache.Store
	max    int
	window time.Duration
	log    *logger.Logger

	mu       sync.Mutex
	fallback map[string]*rate.Limiter
}

// NewRateLimiter creates a rate limiter allowing max requests per window.
func NewRateLimiter(store *cache.Store, max int, window time.Duration, log *logger.Logger) *RateLimiter {
	if log == nil {
		log = logger.NewDefault("ratelimit")
	}
	return &RateLimiter{
		store:    store,
		max:      max,
		window:   window,
		log:      log,
		fallback: make(map[string]*rate.Limiter),
	}
}

// Handler returns the rate limiting middleware handler.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := GetUserID(r.Context())
		if key == "" {
			key = clientIP(r)
		}

		if !rl.allow(r, key) {
			rl.log.WithFields(map[string]interface{}{
				"key":    key,
				"path":   r.URL.Path,
				"method": r.Method,
			}).Warn("rate limit exceeded")

			serviceErr := errors.RateLimitExceeded(rl.max, rl.window.String())
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(serviceErr.HTTPStatus)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": serviceErr.Message,
				"code":  string(serviceErr.Kind),
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(r *http.Request, key string) bool {
	window := time.Now().Unix() / int64(rl.window/time.Second)
	count, ok := rl.store.Incr(r.Context(), cache.RateLimitKey(key, window), rl.window)
	if ok {
		return count <= int64(rl.max)
	}
	return rl.fallbackLimiter(key).Allow()
}

func (rl *RateLimiter) fallbackLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Bound the map; entries are cheap but unauthenticated IP churn adds up.
	if len(rl.fallback) > 10000 {
		rl.fallback = make(map[string]*rate.Limiter)
	}

	limiter, exists := rl.fallback[key]
	if !exists {
		perSecond := rate.Limit(float64(rl.max) / rl.window.Seconds())
		limiter = rate.NewLimiter(perSecond, rl.max)
		rl.fallback[key] = limiter
	}
	return limiter
}

// clientIP strips the port from RemoteAddr, preferring X-Forwarded-For when a
// proxy set it.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
