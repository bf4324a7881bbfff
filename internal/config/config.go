// Package config loads environment-driven configuration for the server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config carries every environment-driven setting the server consumes.
type Config struct {
	Server ServerConfig
	JWT    JWTConfig
	Redis  RedisConfig
	DB     DatabaseConfig
	Mail   MailConfig
	Chat   ChatConfig
}

// ServerConfig configures the HTTP listener and ambient middleware.
type ServerConfig struct {
	Port           int           `env:"PORT,default=3000"`
	Environment    string        `env:"APP_ENV,default=development"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`
	LogFormat      string        `env:"LOG_FORMAT,default=json"`
	CORSOrigins    string        `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:3000"`
	FrontendURL    string        `env:"FRONTEND_URL,default=http://localhost:3000"`
	RateLimitMax   int           `env:"RATE_LIMIT_MAX,default=100"`
	RateLimitWin   time.Duration `env:"RATE_LIMIT_WINDOW,default=15m"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE,default=10s"`
}

// JWTConfig configures token signing and lifetimes.
type JWTConfig struct {
	Secret          string        `env:"JWT_SECRET,required"`
	Issuer          string        `env:"JWT_ISSUER,default=bitcoin-predictor-app"`
	Audience        string        `env:"JWT_AUDIENCE,default=bitcoin-predictor-app"`
	AccessTTL       time.Duration `env:"JWT_ACCESS_TOKEN_TTL,default=24h"`
	RefreshTTL      time.Duration `env:"JWT_REFRESH_TOKEN_TTL,default=168h"`
	VerificationTTL time.Duration `env:"JWT_VERIFICATION_TOKEN_TTL,default=24h"`
	// StrictRefreshPersist fails IssueRefreshToken when the cache write
	// fails, instead of returning the token best-effort.
	StrictRefreshPersist bool `env:"AUTH_STRICT_REFRESH_PERSIST,default=false"`
}

// RedisConfig configures the key-value store connection.
type RedisConfig struct {
	Host       string `env:"REDIS_HOST,default=localhost"`
	Port       int    `env:"REDIS_PORT,default=6379"`
	Password   string `env:"REDIS_PASSWORD"`
	DB         int    `env:"REDIS_DB,default=0"`
	TLSEnabled bool   `env:"REDIS_TLS_ENABLED,default=false"`
}

// Addr returns the host:port pair for the redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DatabaseConfig configures the relational store.
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL"`
}

// MailConfig configures the verification mailer. When Host is empty the
// server falls back to a logging mailer.
type MailConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT,default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM,default=no-reply@bitpredict.app"`
}

// ChatConfig configures the assistant completion endpoint.
type ChatConfig struct {
	APIBase string        `env:"CHAT_API_BASE,default=https://api.openai.com/v1"`
	APIKey  string        `env:"CHAT_API_KEY"`
	Model   string        `env:"CHAT_MODEL,default=gpt-3.5-turbo"`
	Timeout time.Duration `env:"CHAT_TIMEOUT,default=30s"`
}

// Load reads .env (when present) and decodes the configuration from the
// environment. Variables already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot produce a working server.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Server.Port)
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		return fmt.Errorf("REDIS_PORT out of range: %d", c.Redis.Port)
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode. Internal
// error detail is suppressed from responses in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// AllowedOrigins splits the configured CORS origin list.
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.Server.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
