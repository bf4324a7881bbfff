// Package main runs the trading platform API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bitpredict/trading-platform/internal/app/services/accounts"
	"github.com/bitpredict/trading-platform/internal/app/services/chat"
	"github.com/bitpredict/trading-platform/internal/app/services/faq"
	marketsvc "github.com/bitpredict/trading-platform/internal/app/services/market"
	"github.com/bitpredict/trading-platform/internal/app/storage"
	"github.com/bitpredict/trading-platform/internal/app/storage/memory"
	"github.com/bitpredict/trading-platform/internal/app/storage/postgres"
	"github.com/bitpredict/trading-platform/internal/auth"
	"github.com/bitpredict/trading-platform/internal/cache"
	"github.com/bitpredict/trading-platform/internal/config"
	"github.com/bitpredict/trading-platform/internal/httpapi"
	"github.com/bitpredict/trading-platform/internal/mailer"
	"github.com/bitpredict/trading-platform/internal/realtime"
	"github.com/bitpredict/trading-platform/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault("server").WithError(err).Error("invalid configuration")
		os.Exit(1)
	}

	log := logger.New("server", cfg.Server.LogLevel, cfg.Server.LogFormat)
	log.WithFields(map[string]interface{}{
		"port":        cfg.Server.Port,
		"environment": cfg.Server.Environment,
	}).Info("starting trading platform")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Key-value store. An unreachable server degrades the cache, it never
	// blocks startup.
	store := cache.New(cfg.Redis, log)
	store.Connect(ctx)
	defer store.Disconnect()

	cacheSvc := cache.NewService(store, log)
	tokens := auth.NewTokenService(cfg.JWT, store, log)

	// Relational storage, with an in-memory fallback for local development.
	var userStore storage.UserStore
	var chatStore storage.ChatStore
	if cfg.DB.URL != "" {
		pg, err := postgres.Open(ctx, cfg.DB.URL)
		if err != nil {
			log.WithError(err).Error("database connection failed")
			os.Exit(1)
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			log.WithError(err).Error("database migration failed")
			os.Exit(1)
		}
		userStore, chatStore = pg, pg
		log.Info("using postgres storage")
	} else {
		mem := memory.New()
		userStore, chatStore = mem, mem
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	mail := mailer.FromConfig(cfg.Mail, log)

	hub := realtime.NewHub(log, originChecker(cfg))

	faqSvc := faq.New(ctx, cacheSvc, log)

	var completer chat.Completer
	if cfg.Chat.APIKey != "" {
		completer = chat.NewHTTPCompleter(cfg.Chat)
	} else {
		log.Warn("CHAT_API_KEY not set, assistant replies limited to the FAQ corpus")
	}

	accountsSvc := accounts.New(userStore, tokens, mail, cfg.Server.FrontendURL, log)
	chatSvc := chat.New(chatStore, faqSvc, completer, hub, log)
	marketSvc := marketsvc.New(cacheSvc, hub, log)

	api := httpapi.NewServer(cfg, log, accountsSvc, chatSvc, faqSvc, marketSvc, hub, store)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      api.Handler(tokens),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("http server listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Error("http server failed")
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server shutdown")
	}
	log.Info("stopped")
}

// originChecker allows websocket upgrades from the configured CORS origins.
// A "*" entry allows every origin.
func originChecker(cfg *config.Config) func(r *http.Request) bool {
	allowed := make(map[string]bool)
	allowAll := false
	for _, origin := range cfg.AllowedOrigins() {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		return allowed[origin]
	}
}
