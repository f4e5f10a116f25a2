package model

import "time"

// Conversation is a named message thread. Membership lives in the
// user_conversations join table, so a conversation can have any number of
// participants.
type Conversation struct {
	ID        string    `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	CreatedOn time.Time `json:"created_on" db:"created_on"`
}

// UserConversation links a user to a conversation (many-to-many). Rows are
// cascade-deleted when either parent goes away.
type UserConversation struct {
	ID             string    `json:"id"              db:"id"`
	UserID         string    `json:"user_id"         db:"user_id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	CreatedOn      time.Time `json:"created_on"      db:"created_on"`
}

// Message belongs to exactly one conversation and one sender.
type Message struct {
	ID             string    `json:"id"              db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	SenderID       string    `json:"sender_id"       db:"sender_id"`
	Message        string    `json:"message"         db:"message"`
	Timestamp      time.Time `json:"timestamp"       db:"timestamp"`
}
