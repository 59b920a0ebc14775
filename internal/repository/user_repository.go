package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/user-account-service/internal/model"
	"github.com/iliyamo/user-account-service/internal/utils"
)

// UserRepo is the credential store: it owns every read and write against the
// `users` table, including the single refresh-token slot that backs the
// session lifecycle.
type UserRepo struct {
	DB         *sql.DB
	BcryptCost int
}

func NewUserRepo(db *sql.DB, bcryptCost int) *UserRepo {
	return &UserRepo{DB: db, BcryptCost: bcryptCost}
}

const userColumns = "id,username,email,full_name,password_hash,role,avatar_url,refresh_token,created_at,updated_at"

// CreateParams carries the fields needed to insert a new account.  Username
// and email are normalized here so every code path stores the same shape.
type CreateParams struct {
	Username  string
	Email     string
	FullName  string
	Password  string // plaintext; hashed before it touches the database
	Role      string // optional; self-registration leaves it empty and gets the default
	AvatarURL string
}

// Create inserts an account row and returns its ID.  Uniqueness of username
// and email is enforced by the database; violations surface as ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, p CreateParams) (uint64, error) {
	username := Normalize(p.Username)
	email := Normalize(p.Email)
	role := p.Role
	if !model.ValidRole(role) {
		role = model.RoleEmployee
	}
	hash, err := utils.HashPassword(p.Password, r.BcryptCost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, full_name, password_hash, role, avatar_url) VALUES (?,?,?,?,?,?)",
		username, email, strings.TrimSpace(p.FullName), hash, role, p.AvatarURL)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches an account by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByUsernameOrEmail fetches an account matching either identifier.  Both
// arguments are normalized before the lookup; an empty argument matches
// nothing because the stored values are never empty.
func (r *UserRepo) GetByUsernameOrEmail(ctx context.Context, username, email string) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? OR email=? LIMIT 1",
		Normalize(username), Normalize(email)))
}

// GetByUsername fetches an account by its normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", Normalize(username)))
}

// UpdateRefreshToken sets or clears the stored refresh token.  Passing nil
// clears the slot; clearing an already empty slot is a no-op, which makes
// logout idempotent.
func (r *UserRepo) UpdateRefreshToken(ctx context.Context, id uint64, token *string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=?, updated_at=NOW() WHERE id=?", token, id)
	return err
}

// UpdateSecret hashes the plaintext and replaces the stored password hash.
// Callers never persist a plaintext secret directly.
func (r *UserRepo) UpdateSecret(ctx context.Context, id uint64, plaintext string) error {
	hash, err := utils.HashPassword(plaintext, r.BcryptCost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=NOW() WHERE id=?", hash, id)
	return err
}

// UpdateProfile replaces the display fields and returns the post-update row.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, fullName, email string) (model.User, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET full_name=?, email=?, updated_at=NOW() WHERE id=?",
		strings.TrimSpace(fullName), Normalize(email), id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.User{}, ErrDuplicate
		}
		return model.User{}, err
	}
	return r.GetByID(ctx, id)
}

// UpdateAvatar replaces the avatar reference and returns the post-update row.
// The previous reference is left for external cleanup.
func (r *UserRepo) UpdateAvatar(ctx context.Context, id uint64, avatarURL string) (model.User, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET avatar_url=?, updated_at=NOW() WHERE id=?", avatarURL, id)
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var (
		u       model.User
		refresh sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash,
		&u.Role, &u.AvatarURL, &refresh, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if refresh.Valid {
		u.RefreshToken = &refresh.String
	}
	return u, nil
}

// Normalize lowercases and trims an identifier the way the schema stores it.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsNotFound reports whether the error means the lookup matched no row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
