package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bitpredict/trading-platform/internal/auth"
	"github.com/bitpredict/trading-platform/internal/errors"
	"github.com/bitpredict/trading-platform/pkg/logger"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware enforces bearer-token authentication on every route except
// the configured skip paths.
type AuthMiddleware struct {
	tokens    TokenVerifier
	log       *logger.Logger
	skipPaths map[string]bool
}

// NewAuthMiddleware creates the authentication middleware. skipPaths lists
// exact request paths served without a token.
func NewAuthMiddleware(tokens TokenVerifier, log *logger.Logger, skipPaths []string) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	skip := make(map[string]bool, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &AuthMiddleware{tokens: tokens, log: log, skipPaths: skip}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondError(w, r, errors.Unauthorized("missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.respondError(w, r, errors.Unauthorized("invalid authorization header format"))
			return
		}
		if parts[1] == "" {
			m.respondError(w, r, errors.Unauthorized("missing bearer token"))
			return
		}

		claims, err := m.tokens.VerifyToken(parts[1])
		if err != nil {
			m.respondError(w, r, err)
			return
		}

		ctx := WithUserID(r.Context(), claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.AsServiceError(err)

	m.log.WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": serviceErr.HTTPStatus,
	}).Warn("authentication failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(serviceErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": serviceErr.Message,
		"code":  string(serviceErr.Kind),
	})
}

// RequireUserID rejects requests whose context lacks an authenticated user.
func RequireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": "unauthorized",
				"code":  string(errors.KindUnauthorized),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
