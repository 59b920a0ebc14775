package model

import "time"

// Role names accepted by the `users.role` column.  The closed set mirrors
// the CHECK constraint in the schema; RoleEmployee is the default applied
// when registration does not carry an explicit role.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
	RoleHR       = "hr"
)

// ValidRole reports whether the given name belongs to the closed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEmployee, RoleHR:
		return true
	}
	return false
}

// User represents an application account record as stored in the
// `users` table.  Each field corresponds to a column in the database.
// The json tags are omitted here because these structs are primarily
// used internally by the repository and service layers; handlers
// define separate response types with appropriate JSON tags so that
// PasswordHash and RefreshToken never leave the process.
//
// Fields:
//
//	ID           – primary key identifier of the account.
//	Username     – unique handle, stored lowercase and trimmed.
//	Email        – unique email address, stored lowercase and trimmed.
//	FullName     – display name.
//	PasswordHash – bcrypt hashed password; never empty once the row exists.
//	Role         – one of admin | employee | hr.
//	AvatarURL    – reference to the externally hosted avatar; required.
//	RefreshToken – the single currently valid refresh token, nil when the
//	               account has no live session.  Presenting a refresh token
//	               is only honored when it equals this value exactly.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	FullName     string    // users.full_name
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	AvatarURL    string    // users.avatar_url
	RefreshToken *string   // users.refresh_token (nullable)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
