package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/chatconnect/internal/apperror"
	"github.com/sakif/chatconnect/internal/model"
	"github.com/sakif/chatconnect/internal/repository"
)

const (
	msgConversationNotFound = "Conversation with this id does not exist"
	msgNameEmpty            = "Conversation name cannot be empty"
	msgMessageEmpty         = "Message cannot be empty"
)

// ChatService handles conversations, memberships, and messages.
type ChatService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	users         repository.UserRepository
	logger        *slog.Logger
}

// NewChatService creates a ChatService.
func NewChatService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *ChatService {
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		logger:        logger,
	}
}

// CreateConversation starts a new named thread.
func (s *ChatService) CreateConversation(ctx context.Context, name string) (*model.Conversation, error) {
	if isEmpty(name) {
		return nil, apperror.ValidationFailed("name", msgNameEmpty)
	}

	conv := &model.Conversation{Name: name}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("service/chat: creating conversation: %w", err)
	}

	s.logger.Info("conversation created", slog.String("conversationID", conv.ID))
	return conv, nil
}

// ListConversations returns every conversation. Unlike users, an empty
// list here is an ordinary 200 — threads come and go.
func (s *ChatService) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	convs, err := s.conversations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/chat: listing conversations: %w", err)
	}
	return convs, nil
}

// GetConversation returns a single conversation by id.
func (s *ChatService) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound(msgConversationNotFound)
		}
		return nil, fmt.Errorf("service/chat: getting conversation %s: %w", id, err)
	}
	return conv, nil
}

// RenameConversation updates a conversation's name.
func (s *ChatService) RenameConversation(ctx context.Context, id, name string) (*model.Conversation, error) {
	if isEmpty(name) {
		return nil, apperror.ValidationFailed("name", msgNameEmpty)
	}

	conv := &model.Conversation{ID: id, Name: name}
	if err := s.conversations.Update(ctx, conv); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound(msgConversationNotFound)
		}
		return nil, fmt.Errorf("service/chat: renaming conversation %s: %w", id, err)
	}
	return s.GetConversation(ctx, id)
}

// DeleteConversation removes a conversation; its messages and membership
// rows cascade away with it.
func (s *ChatService) DeleteConversation(ctx context.Context, id string) error {
	if err := s.conversations.Delete(ctx, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFound(msgConversationNotFound)
		}
		return fmt.Errorf("service/chat: deleting conversation %s: %w", id, err)
	}

	s.logger.Info("conversation deleted", slog.String("conversationID", id))
	return nil
}

// JoinConversation adds a user to a conversation. Both sides must exist;
// joining twice surfaces the membership uniqueness constraint as a
// conflict.
func (s *ChatService) JoinConversation(ctx context.Context, conversationID, userID string) (*model.UserConversation, error) {
	if isEmpty(userID) {
		return nil, apperror.ValidationFailed("user_id", "User id cannot be empty")
	}
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound(msgUserNotFound)
		}
		return nil, fmt.Errorf("service/chat: looking up user %s: %w", userID, err)
	}

	membership := &model.UserConversation{
		UserID:         userID,
		ConversationID: conversationID,
	}
	if err := s.conversations.AddMember(ctx, membership); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/chat: joining conversation %s: %w", conversationID, err)
	}

	s.logger.Info("user joined conversation",
		slog.String("userID", userID),
		slog.String("conversationID", conversationID),
	)
	return membership, nil
}

// SendMessage posts a message into a conversation on behalf of a sender.
func (s *ChatService) SendMessage(ctx context.Context, conversationID, senderID, text string) (*model.Message, error) {
	if isEmpty(text) {
		return nil, apperror.ValidationFailed("message", msgMessageEmpty)
	}
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, senderID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound(msgUserNotFound)
		}
		return nil, fmt.Errorf("service/chat: looking up sender %s: %w", senderID, err)
	}

	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Message:        text,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("service/chat: sending message in conversation %s: %w", conversationID, err)
	}
	return msg, nil
}

// ListMessages returns a conversation's messages oldest-first.
func (s *ChatService) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("service/chat: listing messages for conversation %s: %w", conversationID, err)
	}
	return msgs, nil
}
