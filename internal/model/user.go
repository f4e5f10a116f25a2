// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account identity.
//
// Primary keys are xid strings generated by the repository rather than
// database serials, so IDs are safe to expose in URLs and tokens.
//
// Password holds the bcrypt hash, never the plaintext. The json:"-" tag
// keeps it out of every response; handlers additionally project users
// through Sanitized() so formatted timestamps replace the raw ones.
//
// GitHubID is zero for users who registered with email/password and is
// only set for accounts created through the GitHub OAuth flow. The column
// is nullable with a UNIQUE constraint, so one GitHub account maps to at
// most one user.
type User struct {
	ID           string    `json:"id"           db:"id"`
	Email        string    `json:"email"        db:"email"`
	Username     string    `json:"username"     db:"username"`
	FirstName    string    `json:"first_name"   db:"first_name"`
	LastName     string    `json:"last_name"    db:"last_name"`
	Password     string    `json:"-"            db:"password"`
	GitHubID     int64     `json:"-"            db:"github_id"`
	CreatedOn    time.Time `json:"-"            db:"created_on"`
	UpdatedAt    time.Time `json:"-"            db:"updated_at"`
	Verification bool      `json:"verification" db:"verification"`
}

// responseZone is the fixed offset used for all timestamps in API
// responses: UTC+05:30.
var responseZone = time.FixedZone("UTC+05:30", 5*3600+30*60)

// timestampLayout is the wire format for timestamps: YYYY-MM-DD HH:mm:ss.
const timestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders t in the fixed response zone.
func FormatTimestamp(t time.Time) string {
	return t.In(responseZone).Format(timestampLayout)
}

// SanitizedUser is the client-facing projection of a User: no password
// hash, timestamps pre-formatted at the fixed offset.
type SanitizedUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	CreatedOn    string `json:"created_on"`
	UpdatedAt    string `json:"updated_at"`
	Verification bool   `json:"verification"`
}

// Sanitized returns the response projection of u.
func (u *User) Sanitized() *SanitizedUser {
	return &SanitizedUser{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		CreatedOn:    FormatTimestamp(u.CreatedOn),
		UpdatedAt:    FormatTimestamp(u.UpdatedAt),
		Verification: u.Verification,
	}
}

// Account is the one-to-one profile extension of a User. It is created in
// the same transaction as the user row with every optional field empty;
// a later profile-update flow fills them in.
type Account struct {
	ID              string    `json:"id"                db:"id"`
	UserID          string    `json:"user_id"           db:"user_id"`
	AccountType     string    `json:"account_type"      db:"account_type"`
	Bio             string    `json:"bio"               db:"bio"`
	Mobile          string    `json:"mobile"            db:"mobile"`
	ProfileImageURL string    `json:"profile_image_url" db:"profile_image_url"`
	DOB             string    `json:"dob"               db:"dob"`
	Gender          string    `json:"gender"            db:"gender"`
	Links           string    `json:"links"             db:"links"`
	CreatedOn       time.Time `json:"created_on"        db:"created_on"`
	UpdatedAt       time.Time `json:"updated_at"        db:"updated_at"`
}

// UserSummary is the reduced projection returned by the fetch-all-users
// endpoint. Field names follow the documented API contract.
type UserSummary struct {
	UserName      string `json:"userName"`
	Email         string `json:"email"`
	RequestedDate string `json:"requestedDate"`
	Verification  bool   `json:"verification"`
}

// Summary returns the list projection of u.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		UserName:      u.Username,
		Email:         u.Email,
		RequestedDate: FormatTimestamp(u.CreatedOn),
		Verification:  u.Verification,
	}
}
