package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bitpredict/trading-platform/internal/auth"
	"github.com/bitpredict/trading-platform/internal/errors"
	"github.com/bitpredict/trading-platform/pkg/logger"
)

// stubVerifier accepts exactly one token.
type stubVerifier struct {
	token  string
	userID string
}

func (v *stubVerifier) VerifyToken(tokenString string) (*auth.Claims, error) {
	if tokenString == v.token {
		return &auth.Claims{UserID: v.userID}, nil
	}
	return nil, errors.InvalidToken(nil)
}

func newTestAuthMiddleware(skipPaths []string) *AuthMiddleware {
	verifier := &stubVerifier{token: "good-token", userID: "user-123"}
	return NewAuthMiddleware(verifier, logger.New("test", "error", "json"), skipPaths)
}

func okHandler() (http.Handler, *string) {
	var captured string
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}), &captured
}

func TestAuthMiddleware_SkipPaths(t *testing.T) {
	m := newTestAuthMiddleware([]string{"/health"})
	next, _ := okHandler()
	handler := m.Handler(next)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	m := newTestAuthMiddleware(nil)
	next, _ := okHandler()
	handler := m.Handler(next)

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_HeaderFormat(t *testing.T) {
	m := newTestAuthMiddleware(nil)
	next, _ := okHandler()
	handler := m.Handler(next)

	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "good-token"},
		{"wrong prefix", "Basic good-token"},
		{"empty token", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	m := newTestAuthMiddleware(nil)
	next, captured := okHandler()
	handler := m.Handler(next)

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if *captured != "user-123" {
		t.Errorf("user id = %q, want user-123", *captured)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	m := newTestAuthMiddleware(nil)
	next, _ := okHandler()
	handler := m.Handler(next)

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestGetUserID(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"with user id", WithUserID(context.Background(), "user-123"), "user-123"},
		{"without user id", context.Background(), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetUserID(tt.ctx); got != tt.want {
				t.Errorf("GetUserID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireUserID(t *testing.T) {
	handler := RequireUserID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		ctx        context.Context
		wantStatus int
	}{
		{"with user id", WithUserID(context.Background(), "user-123"), http.StatusOK},
		{"without user id", context.Background(), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
			req = req.WithContext(tt.ctx)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
