package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/chatconnect/internal/apperror"
	"github.com/sakif/chatconnect/internal/model"
	"github.com/sakif/chatconnect/internal/repository"
)

// ConversationStore implements repository.ConversationRepository.
type ConversationStore struct {
	conn *sql.DB
}

var _ repository.ConversationRepository = (*ConversationStore)(nil)

// Create inserts a new conversation. ID and CreatedOn are set here.
func (s *ConversationStore) Create(ctx context.Context, conv *model.Conversation) error {
	conv.ID = xid.New().String()
	conv.CreatedOn = time.Now()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO conversations (id, name, created_on) VALUES (?, ?, ?)`,
		conv.ID, conv.Name, conv.CreatedOn)
	if err != nil {
		return fmt.Errorf("sqlite: inserting conversation: %w", err)
	}
	return nil
}

// List returns all conversations ordered by creation time.
func (s *ConversationStore) List(ctx context.Context) ([]model.Conversation, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, created_on FROM conversations ORDER BY created_on`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing conversations: %w", err)
	}
	defer rows.Close()

	var convs []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedOn); err != nil {
			return nil, fmt.Errorf("sqlite: scanning conversation row: %w", err)
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating conversation rows: %w", err)
	}
	return convs, nil
}

// GetByID retrieves a single conversation.
func (s *ConversationStore) GetByID(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, name, created_on FROM conversations WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.CreatedOn)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("conversation not found")
		}
		return nil, fmt.Errorf("sqlite: getting conversation %s: %w", id, err)
	}
	return &c, nil
}

// Update renames a conversation.
func (s *ConversationStore) Update(ctx context.Context, conv *model.Conversation) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE conversations SET name = ? WHERE id = ?`,
		conv.Name, conv.ID)
	if err != nil {
		return fmt.Errorf("sqlite: updating conversation %s: %w", conv.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("conversation not found")
	}
	return nil
}

// Delete removes a conversation. Messages and memberships go with it via
// ON DELETE CASCADE.
func (s *ConversationStore) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting conversation %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("conversation not found")
	}
	return nil
}

// AddMember links a user to a conversation. Joining twice trips the
// UNIQUE(user_id, conversation_id) constraint and surfaces as a conflict.
func (s *ConversationStore) AddMember(ctx context.Context, m *model.UserConversation) error {
	m.ID = xid.New().String()
	m.CreatedOn = time.Now()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO user_conversations (id, user_id, conversation_id, created_on)
		 VALUES (?, ?, ?, ?)`,
		m.ID, m.UserID, m.ConversationID, m.CreatedOn)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user is already a member of this conversation")
		}
		return fmt.Errorf("sqlite: adding member %s to conversation %s: %w", m.UserID, m.ConversationID, err)
	}
	return nil
}
