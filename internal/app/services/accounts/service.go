// Package accounts orchestrates the credential lifecycle: registration,
// email verification, login, token refresh, and logout.
package accounts

import (
	"context"
	"fmt"
	"strings"

	stderrors "errors"

	"github.com/bitpredict/trading-platform/internal/app/domain/user"
	"github.com/bitpredict/trading-platform/internal/app/storage"
	"github.com/bitpredict/trading-platform/internal/auth"
	"github.com/bitpredict/trading-platform/internal/errors"
	"github.com/bitpredict/trading-platform/internal/mailer"
	"github.com/bitpredict/trading-platform/pkg/logger"
)

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service wires the user store, token service, and mailer into the
// credential flows. One instance per process, injected into the HTTP layer.
type Service struct {
	users       storage.UserStore
	tokens      *auth.TokenService
	mail        mailer.Mailer
	frontendURL string
	log         *logger.Logger
}

// New constructs the accounts service.
func New(users storage.UserStore, tokens *auth.TokenService, mail mailer.Mailer, frontendURL string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("accounts")
	}
	return &Service{
		users:       users,
		tokens:      tokens,
		mail:        mail,
		frontendURL: frontendURL,
		log:         log,
	}
}

// Register creates an unverified account, issues a verification token, and
// sends the verification email. Mail delivery is best-effort; a failed send
// does not fail registration.
func (s *Service) Register(ctx context.Context, email, password, name string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return errors.InvalidInput("all fields (email, password, name) are required")
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return errors.Conflict("user with this email already exists")
	} else if !stderrors.Is(err, storage.ErrNotFound) {
		return errors.Internal(err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	if _, err := s.users.CreateUser(ctx, user.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
	}); err != nil {
		if stderrors.Is(err, storage.ErrDuplicate) {
			// Lost the race with a concurrent registration.
			return errors.Conflict("user with this email already exists")
		}
		return errors.Internal(err)
	}

	token, err := s.tokens.IssueEmailVerificationToken(ctx, email)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(`<h1>Welcome to BitPredict</h1>
<p>Please click the link below to verify your email:</p>
<a href="%s/verify?token=%s">Verify Email</a>`, s.frontendURL, token)
	if err := s.mail.Send(email, "Verify Your Email", body); err != nil {
		s.log.WithError(err).WithField("email", email).Warn("verification email failed")
	}

	return nil
}

// Login validates credentials and returns an access/refresh token pair.
// Unverified accounts are rejected with 403 and receive no tokens.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return TokenPair{}, errors.InvalidInput("email and password are required")
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return TokenPair{}, errors.NotFound("user not found")
		}
		return TokenPair{}, errors.Internal(err)
	}

	ok, err := auth.VerifyPassword(password, u.PasswordHash)
	if err != nil {
		return TokenPair{}, err
	}
	if !ok {
		return TokenPair{}, errors.Unauthorized("invalid email or password")
	}

	if !u.IsVerified {
		return TokenPair{}, errors.Forbidden("please verify your email before logging in")
	}

	access, err := s.tokens.IssueAccessToken(u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.IssueRefreshToken(ctx, u.ID)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyEmail consumes a verification token and marks the account verified.
// The cache key is deleted on success so the token is single-use.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return errors.InvalidInput("verification token is required")
	}

	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		return err
	}
	if claims.Email == "" {
		return errors.InvalidInput("invalid token structure")
	}

	if !s.tokens.VerifyEmailToken(ctx, token, claims.Email) {
		return errors.InvalidToken(nil)
	}

	if err := s.users.MarkVerified(ctx, claims.Email); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.NotFound("user not found")
		}
		return errors.Internal(err)
	}

	// Single-use: drop the pending token now that verification succeeded.
	s.tokens.ConsumeEmailToken(ctx, claims.Email)
	return nil
}

// Refresh rotates the refresh token and issues a new access token. Rotation
// is atomic against the session store, so two concurrent refreshes with the
// same token cannot both succeed.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, errors.InvalidInput("refresh token is required")
	}

	claims, err := s.tokens.VerifyToken(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if claims.UserID == "" {
		return TokenPair{}, errors.InvalidToken(nil)
	}

	rotated, err := s.tokens.RotateRefreshToken(ctx, claims.UserID, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	access, err := s.tokens.IssueAccessToken(claims.UserID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: rotated}, nil
}

// Logout revokes the user's refresh token. The access token stays
// cryptographically valid until expiry; only refresh is revocable.
func (s *Service) Logout(ctx context.Context, userID string) {
	s.tokens.InvalidateRefreshToken(ctx, userID)
}

// Me returns the profile for an authenticated user.
func (s *Service) Me(ctx context.Context, userID string) (user.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return user.User{}, errors.NotFound("user not found")
		}
		return user.User{}, errors.Internal(err)
	}
	return u, nil
}
