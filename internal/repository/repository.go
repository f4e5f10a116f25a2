// Package repository defines the persistence interfaces consumed by the
// service layer. The sqlite subpackage provides the concrete
// implementation; services only ever see these interfaces.
package repository

import (
	"context"

	"github.com/sakif/chatconnect/internal/model"
)

// UserRepository persists users and their one-to-one account rows.
type UserRepository interface {
	// Create inserts the user row and its companion accounts row in a
	// single transaction. A unique-violation on email or username is
	// surfaced as apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error

	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)

	// MarkVerified flips the verification flag for the row matching both
	// email and id, returning the updated user.
	MarkVerified(ctx context.Context, email, id string) (*model.User, error)

	// UpdatePassword replaces the stored password hash for the user with
	// the given email, returning the updated user.
	UpdatePassword(ctx context.Context, email, passwordHash string) (*model.User, error)

	// DeleteByEmail removes the user and every dependent row (messages,
	// conversation memberships, the account) in one transaction.
	DeleteByEmail(ctx context.Context, email string) error

	// UpsertGitHub creates or refreshes a user keyed by GitHub ID.
	UpsertGitHub(ctx context.Context, user *model.User) error

	GetAccountByUserID(ctx context.Context, userID string) (*model.Account, error)
}

// ConversationRepository persists conversations and their memberships.
type ConversationRepository interface {
	Create(ctx context.Context, conv *model.Conversation) error
	List(ctx context.Context) ([]model.Conversation, error)
	GetByID(ctx context.Context, id string) (*model.Conversation, error)
	Update(ctx context.Context, conv *model.Conversation) error
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, membership *model.UserConversation) error
}

// MessageRepository persists messages within conversations.
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error)
}
