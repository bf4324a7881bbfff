// Package storage defines the persistence interfaces for the application
// services and provides in-memory and PostgreSQL implementations.
package storage

import (
	"context"
	"errors"

	"github.com/bitpredict/trading-platform/internal/app/domain/chat"
	"github.com/bitpredict/trading-platform/internal/app/domain/user"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique constraint is violated.
var ErrDuplicate = errors.New("record already exists")

// UserStore persists credential records.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	MarkVerified(ctx context.Context, email string) error
}

// ChatStore persists chat messages.
type ChatStore interface {
	CreateMessage(ctx context.Context, msg chat.Message) (chat.Message, error)
	ListMessages(ctx context.Context, userID string, limit int) ([]chat.Message, error)
}
