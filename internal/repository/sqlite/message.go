package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/chatconnect/internal/model"
	"github.com/sakif/chatconnect/internal/repository"
)

// MessageStore implements repository.MessageRepository.
type MessageStore struct {
	conn *sql.DB
}

var _ repository.MessageRepository = (*MessageStore)(nil)

// Create inserts a message. ID and Timestamp are set here.
func (s *MessageStore) Create(ctx context.Context, msg *model.Message) error {
	msg.ID = xid.New().String()
	msg.Timestamp = time.Now()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, message, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Message, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("sqlite: inserting message in conversation %s: %w", msg.ConversationID, err)
	}
	return nil
}

// ListByConversation returns a conversation's messages oldest-first.
func (s *MessageStore) ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, conversation_id, sender_id, message, timestamp
		 FROM messages WHERE conversation_id = ? ORDER BY timestamp, id`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing messages for conversation %s: %w", conversationID, err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Message, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("sqlite: scanning message row: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating message rows: %w", err)
	}
	return msgs, nil
}
