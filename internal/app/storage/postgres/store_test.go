package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitpredict/trading-platform/internal/app/domain/chat"
	"github.com/bitpredict/trading-platform/internal/app/domain/user"
	"github.com/bitpredict/trading-platform/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return New(db), mock
}

var userColumns = []string{"id", "email", "password_hash", "name", "is_verified", "created_at", "updated_at"}

func TestCreateUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "alice@example.com", "hash", "Alice", false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := store.CreateUser(context.Background(), user.User{
		Email:        "Alice@Example.com",
		PasswordHash: "hash",
		Name:         "Alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
}

func TestCreateUser_Duplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := store.CreateUser(context.Background(), user.User{Email: "alice@example.com"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestGetUser(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u1", "alice@example.com", "hash", "Alice", true, now, now))

	got, err := store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.True(t, got.IsVerified)
}

func TestGetUser_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetUserByEmail_LowercasesLookup(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u1", "alice@example.com", "hash", "Alice", false, now, now))

	got, err := store.GetUserByEmail(context.Background(), "ALICE@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
}

func TestMarkVerified(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE users SET is_verified").
		WithArgs(sqlmock.AnyArg(), "alice@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.MarkVerified(context.Background(), "Alice@Example.com"))
}

func TestMarkVerified_UnknownEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE users SET is_verified").
		WithArgs(sqlmock.AnyArg(), "nobody@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.MarkVerified(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateMessage(t *testing.T) {
	store, mock := newMockStore(t)

	contextJSON, err := json.Marshal(map[string]string{"source": "faq"})
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO chat_messages").
		WithArgs(sqlmock.AnyArg(), "u1", "hello", "user", sqlmock.AnyArg(), contextJSON).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := store.CreateMessage(context.Background(), chat.Message{
		UserID:  "u1",
		Content: "hello",
		Role:    chat.RoleUser,
		Context: map[string]string{"source": "faq"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Timestamp.IsZero())
}

func TestListMessages(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM chat_messages").
		WithArgs("u1", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "content", "role", "ts", "context"}).
			AddRow("m2", "u1", "reply", "assistant", now, []byte(`{"source":"faq"}`)).
			AddRow("m1", "u1", "hello", "user", now.Add(-time.Minute), nil))

	msgs, err := store.ListMessages(context.Background(), "u1", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.RoleAssistant, msgs[0].Role)
	assert.Equal(t, "faq", msgs[0].Context["source"])
	assert.Nil(t, msgs[1].Context)
}

func TestListMessages_DefaultLimit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM chat_messages").
		WithArgs("u1", 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "content", "role", "ts", "context"}))

	msgs, err := store.ListMessages(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range migrations {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(".*").WillReturnError(errors.New("permission denied"))

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 1")
}
