// Package chat defines the chat message record.
package chat

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message. Messages are immutable once created and
// ordered by timestamp for history retrieval.
type Message struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Content   string            `json:"content"`
	Role      Role              `json:"role"`
	Timestamp time.Time         `json:"timestamp"`
	Context   map[string]string `json:"context,omitempty"`
}
