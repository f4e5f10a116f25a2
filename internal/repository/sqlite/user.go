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

// UserStore implements repository.UserRepository.
type UserStore struct {
	conn *sql.DB
}

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

const userColumns = `id, email, username, first_name, last_name, password, github_id, created_on, updated_at, verification`

// Create inserts the user row and its companion accounts row in one
// transaction, so a failure on either insert leaves nothing behind — no
// orphan user without an account.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedOn = now
	user.UpdatedAt = now

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, username, first_name, last_name, password, github_id, created_on, updated_at, verification)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Password,
		nullableGitHubID(user.GitHubID),
		user.CreatedOn,
		user.UpdatedAt,
		user.Verification,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user with that email or username already exists")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	if err := insertAccount(ctx, tx, user.ID, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing user creation: %w", err)
	}
	return nil
}

// insertAccount creates the empty profile row for a new user. Runs inside
// the caller's transaction.
func insertAccount(ctx context.Context, tx *sql.Tx, userID string, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, account_type, bio, mobile, profile_image_url, dob, gender, links, created_on, updated_at)
		 VALUES (?, ?, '', '', '', '', '', '', '', ?, ?)`,
		xid.New().String(),
		userID,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting account for user %s: %w", userID, err)
	}
	return nil
}

// GetByEmail retrieves a user by email regardless of verification state.
// Returns apperror.ErrNotFound if no such user exists.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user not found")
		}
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}
	return u, nil
}

// GetByID retrieves a user by their internal ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user not found")
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// List returns all users ordered by creation time.
func (s *UserStore) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_on`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}
	return users, nil
}

// MarkVerified flips the verification flag for the row matching both
// email and id. Both must match — they come from the same signed token,
// so a mismatch means the token was issued for a different row.
func (s *UserStore) MarkVerified(ctx context.Context, email, id string) (*model.User, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET verification = 1, updated_at = ? WHERE email = ? AND id = ?`,
		time.Now(), email, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: marking user %s verified: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return nil, apperror.NotFound("user not found")
	}
	return s.GetByID(ctx, id)
}

// UpdatePassword replaces the stored hash for the user with the given email.
func (s *UserStore) UpdatePassword(ctx context.Context, email, passwordHash string) (*model.User, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET password = ?, updated_at = ? WHERE email = ?`,
		passwordHash, time.Now(), email)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating password for %s: %w", email, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return nil, apperror.NotFound("user not found")
	}
	return s.GetByEmail(ctx, email)
}

// DeleteByEmail removes a user and every dependent row inside a single
// transaction. Dependents go first to satisfy the foreign keys: messages
// the user sent, their conversation memberships, their account row, and
// finally the user itself. Any failure rolls the whole sequence back.
func (s *UserStore) DeleteByEmail(ctx context.Context, email string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE email = ?`, email).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("user not found")
		}
		return fmt.Errorf("sqlite: looking up user by email %s: %w", email, err)
	}

	steps := []struct {
		desc  string
		query string
	}{
		{"deleting messages", `DELETE FROM messages WHERE sender_id = ?`},
		{"deleting conversation memberships", `DELETE FROM user_conversations WHERE user_id = ?`},
		{"deleting account", `DELETE FROM accounts WHERE user_id = ?`},
		{"deleting user", `DELETE FROM users WHERE id = ?`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, userID); err != nil {
			return fmt.Errorf("sqlite: %s for user %s: %w", step.desc, userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing user deletion: %w", err)
	}
	return nil
}

// UpsertGitHub creates or refreshes a user keyed by GitHub ID. First
// OAuth login inserts a new, already-verified user (ownership of the
// GitHub account substitutes for the email round-trip) along with its
// account row; later logins refresh the email in case it changed on
// GitHub.
func (s *UserStore) UpsertGitHub(ctx context.Context, user *model.User) error {
	var existingID string
	err := s.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = time.Now()
		_, err = s.conn.ExecContext(ctx,
			`UPDATE users SET email = ?, first_name = ?, last_name = ?, updated_at = ? WHERE id = ?`,
			user.Email, user.FirstName, user.LastName, user.UpdatedAt, user.ID)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		fresh, err := s.GetByID(ctx, user.ID)
		if err != nil {
			return err
		}
		*user = *fresh
		return nil
	}

	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedOn = now
	user.UpdatedAt = now
	user.Verification = true

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, username, first_name, last_name, password, github_id, created_on, updated_at, verification)
		 VALUES (?, ?, ?, ?, ?, '', ?, ?, ?, 1)`,
		user.ID,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		nullableGitHubID(user.GitHubID),
		user.CreatedOn,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user with that email or username already exists")
		}
		return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
	}

	if err := insertAccount(ctx, tx, user.ID, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing GitHub upsert: %w", err)
	}
	return nil
}

// GetAccountByUserID returns the profile row belonging to a user.
func (s *UserStore) GetAccountByUserID(ctx context.Context, userID string) (*model.Account, error) {
	var a model.Account
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, user_id, account_type, bio, mobile, profile_image_url, dob, gender, links, created_on, updated_at
		 FROM accounts WHERE user_id = ?`,
		userID,
	).Scan(
		&a.ID,
		&a.UserID,
		&a.AccountType,
		&a.Bio,
		&a.Mobile,
		&a.ProfileImageURL,
		&a.DOB,
		&a.Gender,
		&a.Links,
		&a.CreatedOn,
		&a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("account not found")
		}
		return nil, fmt.Errorf("sqlite: getting account for user %s: %w", userID, err)
	}
	return &a, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanUser reads one user row. github_id is nullable, so it passes
// through sql.NullInt64.
func scanUser(row scanner) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.Password,
		&githubID,
		&u.CreatedOn,
		&u.UpdatedAt,
		&u.Verification,
	)
	if err != nil {
		return nil, err
	}
	if githubID.Valid {
		u.GitHubID = githubID.Int64
	}
	return &u, nil
}

// nullableGitHubID maps the zero value to NULL so email/password users
// don't collide on the github_id UNIQUE constraint.
func nullableGitHubID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
