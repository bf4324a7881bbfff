// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/bitpredict/trading-platform/internal/app/domain/chat"
	"github.com/bitpredict/trading-platform/internal/app/domain/user"
	"github.com/bitpredict/trading-platform/internal/app/storage"
)

// uniqueViolation is the Postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.ChatStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return New(db), nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, strings.ToLower(u.Email), u.PasswordHash, u.Name, u.IsVerified, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return user.User{}, storage.ErrDuplicate
		}
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, is_verified, created_at, updated_at
		FROM users WHERE id = $1
	`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, is_verified, created_at, updated_at
		FROM users WHERE email = $1
	`, strings.ToLower(email)))
}

func (s *Store) MarkVerified(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET is_verified = TRUE, updated_at = $1 WHERE email = $2
	`, time.Now().UTC(), strings.ToLower(email))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) scanUser(row *sql.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, storage.ErrNotFound
	}
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

// --- ChatStore --------------------------------------------------------------

func (s *Store) CreateMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	var contextJSON []byte
	if msg.Context != nil {
		var err error
		contextJSON, err = json.Marshal(msg.Context)
		if err != nil {
			return chat.Message{}, err
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, user_id, content, role, ts, context)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID, msg.UserID, msg.Content, string(msg.Role), msg.Timestamp, contextJSON)
	if err != nil {
		return chat.Message{}, err
	}
	return msg, nil
}

func (s *Store) ListMessages(ctx context.Context, userID string, limit int) ([]chat.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, content, role, ts, context
		FROM chat_messages
		WHERE user_id = $1
		ORDER BY ts DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chat.Message
	for rows.Next() {
		var msg chat.Message
		var role string
		var contextJSON []byte
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Content, &role, &msg.Timestamp, &contextJSON); err != nil {
			return nil, err
		}
		msg.Role = chat.Role(role)
		if len(contextJSON) > 0 {
			if err := json.Unmarshal(contextJSON, &msg.Context); err != nil {
				return nil, err
			}
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}
