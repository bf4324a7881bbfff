package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bitpredict/trading-platform/internal/app/services/accounts"
	"github.com/bitpredict/trading-platform/internal/app/services/chat"
	"github.com/bitpredict/trading-platform/internal/app/services/faq"
	marketsvc "github.com/bitpredict/trading-platform/internal/app/services/market"
	"github.com/bitpredict/trading-platform/internal/cache"
	"github.com/bitpredict/trading-platform/internal/config"
	"github.com/bitpredict/trading-platform/internal/metrics"
	"github.com/bitpredict/trading-platform/internal/middleware"
	"github.com/bitpredict/trading-platform/internal/realtime"
	"github.com/bitpredict/trading-platform/pkg/logger"
)

// Server mounts the REST and websocket endpoints over the platform services.
type Server struct {
	cfg        *config.Config
	log        *logger.Logger
	accounts   *accounts.Service
	chat       *chat.Service
	faqs       *faq.Service
	market     *marketsvc.Service
	hub        *realtime.Hub
	store      *cache.Store
	production bool
}

// NewServer wires the HTTP surface. Every dependency is injected; the server
// owns no service state of its own.
func NewServer(
	cfg *config.Config,
	log *logger.Logger,
	accountsSvc *accounts.Service,
	chatSvc *chat.Service,
	faqSvc *faq.Service,
	marketSvc *marketsvc.Service,
	hub *realtime.Hub,
	store *cache.Store,
) *Server {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	return &Server{
		cfg:        cfg,
		log:        log,
		accounts:   accountsSvc,
		chat:       chatSvc,
		faqs:       faqSvc,
		market:     marketSvc,
		hub:        hub,
		store:      store,
		production: cfg.IsProduction(),
	}
}

// Handler builds the full middleware chain and route table.
func (s *Server) Handler(tokens middleware.TokenVerifier) http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.LoggingMiddleware(s.log))
	r.Use(middleware.MetricsMiddleware())

	cors := middleware.NewCORSMiddleware(s.cfg.AllowedOrigins())
	r.Use(cors.Handler)

	limiter := middleware.NewRateLimiter(s.store, s.cfg.Server.RateLimitMax, s.cfg.Server.RateLimitWin, s.log)
	authmw := middleware.NewAuthMiddleware(tokens, s.log, nil)

	// Public routes are limited per client address. On protected routes auth
	// runs first so the limiter keys counters by user id.
	public := func(h http.HandlerFunc) http.Handler {
		return limiter.Handler(h)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return authmw.Handler(limiter.Handler(h))
	}

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.Handle("/ws", s.hub)

	api := r.PathPrefix("/api").Subrouter()

	api.Handle("/auth/register", public(s.handleRegister)).Methods(http.MethodPost)
	api.Handle("/auth/login", public(s.handleLogin)).Methods(http.MethodPost)
	api.Handle("/auth/verify-email", public(s.handleVerifyEmail)).Methods(http.MethodGet)
	api.Handle("/auth/refresh-token", public(s.handleRefreshToken)).Methods(http.MethodPost)
	api.Handle("/auth/logout", protected(s.handleLogout)).Methods(http.MethodPost)
	api.Handle("/auth/me", protected(s.handleMe)).Methods(http.MethodGet)

	api.Handle("/chat/message", protected(s.handleChatMessage)).Methods(http.MethodPost)
	api.Handle("/chat/history", protected(s.handleChatHistory)).Methods(http.MethodGet)

	api.Handle("/market/price/{symbol}", public(s.handlePrice)).Methods(http.MethodGet)
	api.Handle("/market/orderbook/{symbol}", public(s.handleOrderBook)).Methods(http.MethodGet)
	api.Handle("/market/pair/{pair}", public(s.handlePair)).Methods(http.MethodGet)

	api.Handle("/faq", public(s.handleFAQ)).Methods(http.MethodGet)
	api.Handle("/faq/search", public(s.handleFAQSearch)).Methods(http.MethodGet)

	return r
}

// handleHealth reports process liveness plus the state of the key-value
// store. A degraded store still reports 200: the server keeps serving.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	redisStatus := "disconnected"
	if s.store.Ping(r.Context()) {
		redisStatus = "connected"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"redis":       redisStatus,
		"connections": s.hub.ClientCount(),
	})
}
