// Package chat orchestrates the assistant conversation: FAQ matching,
// completion calls, message persistence, and broadcast fan-out.
package chat

import (
	"context"

	stderrors "errors"

	chatdomain "github.com/bitpredict/trading-platform/internal/app/domain/chat"
	"github.com/bitpredict/trading-platform/internal/app/services/faq"
	"github.com/bitpredict/trading-platform/internal/app/storage"
	"github.com/bitpredict/trading-platform/internal/errors"
	"github.com/bitpredict/trading-platform/internal/realtime"
	"github.com/bitpredict/trading-platform/pkg/logger"
)

const systemPrompt = "You are a helpful trading assistant. Provide concise, accurate information about trading, market analysis, and risk management. Never provide financial advice or specific trading recommendations."

// fallbackReply is returned when the completion API fails; the user message
// is still persisted.
const fallbackReply = "I'm sorry, but I'm having trouble processing your request at the moment. Please try again later."

const defaultHistoryLimit = 50

// Service handles inbound chat messages and history retrieval.
type Service struct {
	store     storage.ChatStore
	faqs      *faq.Service
	completer Completer
	hub       *realtime.Hub
	log       *logger.Logger
}

// New constructs the chat service. hub may be nil; replies are then only
// persisted and returned, not broadcast.
func New(store storage.ChatStore, faqs *faq.Service, completer Completer, hub *realtime.Hub, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("chat")
	}
	return &Service{
		store:     store,
		faqs:      faqs,
		completer: completer,
		hub:       hub,
		log:       log,
	}
}

// ProcessMessage persists the user's message, produces an assistant reply
// (FAQ match first, completion API otherwise), persists it, and fans both
// out to the user's chat room. Returns the assistant reply.
func (s *Service) ProcessMessage(ctx context.Context, userID, message string) (string, error) {
	if message == "" {
		return "", errors.InvalidInput("message is required")
	}

	userMsg, err := s.store.CreateMessage(ctx, chatdomain.Message{
		UserID:  userID,
		Content: message,
		Role:    chatdomain.RoleUser,
	})
	if err != nil {
		return "", errors.Internal(err)
	}
	s.hub.BroadcastChatMessage(userID, userMsg)

	reply := s.reply(ctx, message)

	assistantMsg, err := s.store.CreateMessage(ctx, chatdomain.Message{
		UserID:  userID,
		Content: reply,
		Role:    chatdomain.RoleAssistant,
	})
	if err != nil {
		return "", errors.Internal(err)
	}
	s.hub.BroadcastChatMessage(userID, assistantMsg)

	return reply, nil
}

func (s *Service) reply(ctx context.Context, message string) string {
	if answer, ok := s.faqs.Match(ctx, message); ok {
		return answer
	}

	if s.completer == nil {
		return fallbackReply
	}
	reply, err := s.completer.Complete(ctx, []PromptMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: message},
	})
	if err != nil {
		s.log.WithError(err).Warn("completion failed")
		return fallbackReply
	}
	return reply
}

// History returns the user's messages, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]chatdomain.Message, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	msgs, err := s.store.ListMessages(ctx, userID, limit)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Internal(err)
	}
	return msgs, nil
}
