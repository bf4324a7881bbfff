package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bitpredict/trading-platform/internal/cache"
	"github.com/bitpredict/trading-platform/internal/config"
	"github.com/bitpredict/trading-platform/internal/errors"
	"github.com/bitpredict/trading-platform/pkg/logger"
)

// Claims carries the token payload. Access and refresh tokens set UserID;
// email verification tokens set Email.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenStore is the slice of the cache store the token service depends on.
// Refresh and verification tokens are valid only while an identical string is
// present under their derived key, which makes revocation a key deletion.
type TokenStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration)
	SetChecked(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool)
	Delete(ctx context.Context, key string)
	CompareAndSwap(ctx context.Context, key, expected, next string, ttl time.Duration) bool
}

// TokenService issues and verifies signed, time-boxed tokens. Construct one
// instance at startup and inject it into consumers.
type TokenService struct {
	cfg   config.JWTConfig
	store TokenStore
	log   *logger.Logger
	now   func() time.Time
}

// NewTokenService creates a token service backed by the given store.
func NewTokenService(cfg config.JWTConfig, store TokenStore, log *logger.Logger) *TokenService {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &TokenService{cfg: cfg, store: store, log: log, now: time.Now}
}

func (s *TokenService) sign(claims Claims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.Issuer = s.cfg.Issuer
	claims.Audience = jwt.ClaimStrings{s.cfg.Audience}
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", errors.Internal(fmt.Errorf("sign token: %w", err))
	}
	return signed, nil
}

// IssueAccessToken signs a short-lived access token. Access tokens carry no
// server-side record and cannot be revoked before expiry.
func (s *TokenService) IssueAccessToken(userID string) (string, error) {
	if userID == "" {
		return "", errors.InvalidInput("user id is required")
	}
	return s.sign(Claims{UserID: userID}, s.cfg.AccessTTL)
}

// IssueRefreshToken signs a long-lived refresh token and persists it at
// refresh_<userID> with a matching TTL. Persistence is best-effort unless
// StrictRefreshPersist is configured, in which case a failed cache write
// fails the whole operation.
func (s *TokenService) IssueRefreshToken(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", errors.InvalidInput("user id is required")
	}
	token, err := s.sign(Claims{UserID: userID}, s.cfg.RefreshTTL)
	if err != nil {
		return "", err
	}

	key := cache.RefreshTokenKey(userID)
	if s.cfg.StrictRefreshPersist {
		if err := s.store.SetChecked(ctx, key, token, s.cfg.RefreshTTL); err != nil {
			return "", errors.Unavailable("session store unavailable")
		}
	} else {
		s.store.Set(ctx, key, token, s.cfg.RefreshTTL)
	}
	return token, nil
}

// VerifyToken checks signature, expiry, issuer, and audience. Every failure
// collapses to a single error kind so callers cannot distinguish an expired
// token from a forged one.
func (s *TokenService) VerifyToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.InvalidToken(nil)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(s.cfg.Secret), nil
		},
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.InvalidToken(err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.InvalidToken(nil)
	}
	return claims, nil
}

// VerifyRefreshToken reports whether token is the currently valid refresh
// token for userID: the signature and expiry must check out, the stored value
// at refresh_<userID> must equal the presented token byte-for-byte, and the
// claims must name the same user. Store unavailability fails closed.
func (s *TokenService) VerifyRefreshToken(ctx context.Context, token, userID string) bool {
	claims, err := s.VerifyToken(token)
	if err != nil {
		return false
	}
	stored, ok := s.store.Get(ctx, cache.RefreshTokenKey(userID))
	if !ok {
		return false
	}
	return stored == token && claims.UserID == userID
}

// RotateRefreshToken atomically replaces the user's refresh token: the swap
// succeeds only when the presented token is still the stored one, executed as
// a single compare-and-swap against the store so concurrent rotations cannot
// both win.
func (s *TokenService) RotateRefreshToken(ctx context.Context, userID, presented string) (string, error) {
	claims, err := s.VerifyToken(presented)
	if err != nil {
		return "", err
	}
	if claims.UserID != userID {
		return "", errors.InvalidToken(nil)
	}

	next, err := s.sign(Claims{UserID: userID}, s.cfg.RefreshTTL)
	if err != nil {
		return "", err
	}
	if !s.store.CompareAndSwap(ctx, cache.RefreshTokenKey(userID), presented, next, s.cfg.RefreshTTL) {
		return "", errors.InvalidToken(nil)
	}
	return next, nil
}

// InvalidateRefreshToken revokes the user's refresh token. Subsequent
// VerifyRefreshToken calls fail even though the token itself has not expired.
func (s *TokenService) InvalidateRefreshToken(ctx context.Context, userID string) {
	s.store.Delete(ctx, cache.RefreshTokenKey(userID))
}

// IssueEmailVerificationToken signs a single-purpose token embedding the
// email and persists it at verify_<email>.
func (s *TokenService) IssueEmailVerificationToken(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", errors.InvalidInput("email is required")
	}
	token, err := s.sign(Claims{Email: email}, s.cfg.VerificationTTL)
	if err != nil {
		return "", err
	}
	s.store.Set(ctx, cache.VerificationKey(email), token, s.cfg.VerificationTTL)
	return token, nil
}

// VerifyEmailToken reports whether token is the pending verification token
// for email. Single-use semantics are the caller's contract: on success the
// caller deletes the cache key via ConsumeEmailToken.
func (s *TokenService) VerifyEmailToken(ctx context.Context, token, email string) bool {
	claims, err := s.VerifyToken(token)
	if err != nil {
		return false
	}
	stored, ok := s.store.Get(ctx, cache.VerificationKey(email))
	if !ok {
		return false
	}
	return stored == token && claims.Email == email
}

// ConsumeEmailToken deletes the pending verification token for email.
func (s *TokenService) ConsumeEmailToken(ctx context.Context, email string) {
	s.store.Delete(ctx, cache.VerificationKey(email))
}
