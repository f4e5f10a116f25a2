// Package sqlite implements the repository interfaces on top of SQLite.
//
// modernc.org/sqlite is a pure-Go translation of the SQLite C sources, so
// there is no CGo and no separate database server: the whole store is one
// file (or ":memory:" in tests). It registers itself with database/sql as
// the "sqlite" driver via the blank import below.
//
// The schema is created idempotently at startup with
// CREATE TABLE IF NOT EXISTS, mirroring the five tables of the chat data
// model: users, accounts, conversations, user_conversations, messages.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool. Entity stores hang off it via
// Users(), Conversations(), and Messages() so each entity's SQL lives in
// its own file while sharing one pool and one migration pass.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/chatconnect.db" → file-based database (persistent)
//   - ":memory:"            → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping forces a real connection so a bad path fails here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress — needed
	// for a web server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The delete cascades on
	// user_conversations and messages depend on this pragma.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the user/account store backed by this connection.
func (db *DB) Users() *UserStore {
	return &UserStore{conn: db.conn}
}

// Conversations returns the conversation store backed by this connection.
func (db *DB) Conversations() *ConversationStore {
	return &ConversationStore{conn: db.conn}
}

// Messages returns the message store backed by this connection.
func (db *DB) Messages() *MessageStore {
	return &MessageStore{conn: db.conn}
}

// migrate creates the five tables of the chat schema. All statements are
// idempotent, so this is safe to run on every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			email        TEXT NOT NULL UNIQUE,
			username     TEXT NOT NULL UNIQUE,
			first_name   TEXT NOT NULL DEFAULT '',
			last_name    TEXT NOT NULL DEFAULT '',
			password     TEXT NOT NULL,
			github_id    INTEGER UNIQUE,
			created_on   DATETIME NOT NULL,
			updated_at   DATETIME NOT NULL,
			verification BOOLEAN NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			account_type      TEXT NOT NULL DEFAULT '',
			bio               TEXT NOT NULL DEFAULT '',
			mobile            TEXT NOT NULL DEFAULT '',
			profile_image_url TEXT NOT NULL DEFAULT '',
			dob               TEXT NOT NULL DEFAULT '',
			gender            TEXT NOT NULL DEFAULT '',
			links             TEXT NOT NULL DEFAULT '',
			created_on        DATETIME NOT NULL,
			updated_at        DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_accounts_user_id ON accounts(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating accounts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS conversations (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_on DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating conversations table: %w", err)
	}

	// UNIQUE(user_id, conversation_id) keeps a user from joining the
	// same conversation twice.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user_conversations (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			created_on      DATETIME NOT NULL,
			UNIQUE(user_id, conversation_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating user_conversations table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			sender_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			message         TEXT NOT NULL,
			timestamp       DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages(conversation_id);
	`)
	if err != nil {
		return fmt.Errorf("creating messages table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure. The driver exposes the extended result code, so this is a
// structured check rather than string matching on the error text.
func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}
