// Package session implements the account session lifecycle: credential
// verification, dual-token issuance, refresh-token rotation and server-side
// invalidation.  Handlers stay thin; every rule about when a token is minted,
// persisted, rotated or rejected lives here.
package session

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/user-account-service/internal/apperror"
	"github.com/iliyamo/user-account-service/internal/media"
	"github.com/iliyamo/user-account-service/internal/model"
	"github.com/iliyamo/user-account-service/internal/queue"
	"github.com/iliyamo/user-account-service/internal/repository"
	queue_publisher "github.com/iliyamo/user-account-service/internal/service"
	"github.com/iliyamo/user-account-service/internal/token"
	"github.com/iliyamo/user-account-service/internal/utils"
)

// UserStore captures the credential-store operations the session layer
// needs.  *repository.UserRepo satisfies it; tests substitute an in-memory
// fake.
type UserStore interface {
	Create(ctx context.Context, p repository.CreateParams) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	UpdateRefreshToken(ctx context.Context, id uint64, tok *string) error
	UpdateSecret(ctx context.Context, id uint64, plaintext string) error
	UpdateProfile(ctx context.Context, id uint64, fullName, email string) (model.User, error)
	UpdateAvatar(ctx context.Context, id uint64, avatarURL string) (model.User, error)
}

// Manager orchestrates login, logout, refresh, registration and the
// credential/profile update flows.  All store and upload calls receive the
// request context so a cancelled request stops the work.
type Manager struct {
	store    UserStore
	issuer   *token.Issuer
	uploader media.Uploader
}

func NewManager(store UserStore, issuer *token.Issuer, uploader media.Uploader) *Manager {
	return &Manager{store: store, issuer: issuer, uploader: uploader}
}

// TokenPair bundles the two tokens returned by login and refresh.
type TokenPair struct {
	Access  token.AccessToken
	Refresh token.RefreshToken
}

// RegisterInput carries the registration form fields plus the avatar file.
// There is no role input: self-registration always yields the default role,
// and role changes belong to an authorized admin path.
type RegisterInput struct {
	FullName string
	Email    string
	Username string
	Password string
	Avatar   io.Reader
	Filename string
}

// Register validates the input, uploads the avatar, creates the account and
// returns the freshly fetched record.  The caller is responsible for
// sanitizing the record before it leaves the process.
func (m *Manager) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	for _, f := range []string{in.FullName, in.Email, in.Username, in.Password} {
		if strings.TrimSpace(f) == "" {
			return model.User{}, apperror.Validation("all fields are required")
		}
	}
	if in.Avatar == nil {
		return model.User{}, apperror.Validation("avatar file is required")
	}

	_, err := m.store.GetByUsernameOrEmail(ctx, in.Username, in.Email)
	switch {
	case err == nil:
		return model.User{}, apperror.Conflict("user with username or email exists")
	case !repository.IsNotFound(err):
		return model.User{}, apperror.Internal("something went wrong")
	}

	avatarURL, err := m.uploader.Upload(ctx, in.Filename, in.Avatar)
	if err != nil || avatarURL == "" {
		return model.User{}, apperror.Upload("avatar upload failed")
	}

	id, err := m.store.Create(ctx, repository.CreateParams{
		Username:  in.Username,
		Email:     in.Email,
		FullName:  in.FullName,
		Password:  in.Password,
		AvatarURL: avatarURL,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, apperror.Conflict("user with username or email exists")
		}
		return model.User{}, apperror.Internal("something went wrong while registering user")
	}

	created, err := m.store.GetByID(ctx, id)
	if err != nil {
		return model.User{}, apperror.Internal("something went wrong while registering user")
	}

	// Best effort: downstream consumers pick this up for welcome mail and
	// analytics.  A broker outage must never fail a registration.
	go func(u model.User) {
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := queue_publisher.PublishUserRegistered(pubCtx, queue.UserRegisteredEvent{
			UserID:       u.ID,
			Username:     u.Username,
			Email:        u.Email,
			FullName:     u.FullName,
			Role:         u.Role,
			RegisteredAt: time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			log.Printf("session: publish user.registered failed: %v", err)
		}
	}(created)

	return created, nil
}

// Login verifies credentials, mints an access/refresh pair and persists the
// refresh token as the account's single live session value.
func (m *Manager) Login(ctx context.Context, username, email, password string) (model.User, TokenPair, error) {
	if strings.TrimSpace(username) == "" && strings.TrimSpace(email) == "" {
		return model.User{}, TokenPair{}, apperror.Validation("username or email is required")
	}
	u, err := m.store.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return model.User{}, TokenPair{}, apperror.NotFound("user does not exist")
		}
		return model.User{}, TokenPair{}, apperror.Internal("something went wrong")
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, TokenPair{}, apperror.Unauthorized("invalid credentials")
	}
	pair, err := m.mintAndStore(ctx, u)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	stored := pair.Refresh.Token
	u.RefreshToken = &stored
	return u, pair, nil
}

// Logout clears the stored refresh token, immediately invalidating any
// outstanding refresh token for the account.  Clearing an already empty
// slot is a no-op, so repeated logouts succeed.
func (m *Manager) Logout(ctx context.Context, userID uint64) error {
	if err := m.store.UpdateRefreshToken(ctx, userID, nil); err != nil {
		return apperror.Internal("logout failed")
	}
	return nil
}

// Refresh exchanges a presented refresh token for a new pair.  The presented
// value must verify AND equal the stored value exactly; once exchanged the
// old value is overwritten, so replaying a superseded token is rejected.
// Every failure surfaces as the same unauthorized error to avoid revealing
// which check rejected the token.
func (m *Manager) Refresh(ctx context.Context, presented string) (model.User, TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return model.User{}, TokenPair{}, apperror.Unauthorized("unauthorized request")
	}
	claims, err := m.issuer.VerifyRefresh(presented)
	if err != nil {
		return model.User{}, TokenPair{}, apperror.Unauthorized("invalid refresh token")
	}
	u, err := m.store.GetByID(ctx, claims.UserID)
	if err != nil {
		return model.User{}, TokenPair{}, apperror.Unauthorized("invalid refresh token")
	}
	if u.RefreshToken == nil || presented != *u.RefreshToken {
		return model.User{}, TokenPair{}, apperror.Unauthorized("refresh token is expired or used")
	}
	pair, err := m.mintAndStore(ctx, u)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	stored := pair.Refresh.Token
	u.RefreshToken = &stored
	return u, pair, nil
}

// ChangePassword verifies the old secret and replaces the stored hash.
// Existing sessions stay valid: the refresh token is left in place.
func (m *Manager) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperror.Validation("new password is required")
	}
	u, err := m.store.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperror.NotFound("user does not exist")
		}
		return apperror.Internal("something went wrong")
	}
	if !utils.VerifyPassword(u.PasswordHash, oldPassword) {
		return apperror.Unauthorized("invalid old password")
	}
	if err := m.store.UpdateSecret(ctx, userID, newPassword); err != nil {
		return apperror.Internal("password update failed")
	}
	return nil
}

// CurrentUser loads the account for an authenticated id.  A vanished
// principal is an auth failure; a broken store is not.
func (m *Manager) CurrentUser(ctx context.Context, userID uint64) (model.User, error) {
	u, err := m.store.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return model.User{}, apperror.Unauthorized("invalid access token")
		}
		return model.User{}, apperror.Internal("something went wrong")
	}
	return u, nil
}

// UpdateAccount replaces the display fields and returns the updated record.
func (m *Manager) UpdateAccount(ctx context.Context, userID uint64, fullName, email string) (model.User, error) {
	if strings.TrimSpace(fullName) == "" || strings.TrimSpace(email) == "" {
		return model.User{}, apperror.Validation("all fields are required")
	}
	u, err := m.store.UpdateProfile(ctx, userID, fullName, email)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, apperror.Conflict("email already in use")
		}
		return model.User{}, apperror.Internal("account update failed")
	}
	return u, nil
}

// UpdateAvatar uploads the new image and swaps the stored reference.  The
// previous reference is left unreferenced for external cleanup.
func (m *Manager) UpdateAvatar(ctx context.Context, userID uint64, filename string, content io.Reader) (model.User, error) {
	if content == nil {
		return model.User{}, apperror.Validation("avatar file is required")
	}
	url, err := m.uploader.Upload(ctx, filename, content)
	if err != nil || url == "" {
		return model.User{}, apperror.Upload("avatar upload failed")
	}
	u, err := m.store.UpdateAvatar(ctx, userID, url)
	if err != nil {
		return model.User{}, apperror.Internal("avatar update failed")
	}
	return u, nil
}

// PublicProfile returns the account registered under the given username.
func (m *Manager) PublicProfile(ctx context.Context, username string) (model.User, error) {
	u, err := m.store.GetByUsername(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			return model.User{}, apperror.NotFound("user does not exist")
		}
		return model.User{}, apperror.Internal("something went wrong")
	}
	return u, nil
}

// mintAndStore issues both tokens and persists the refresh token.  An
// account holds exactly one live refresh token; a concurrent login for the
// same account wins by overwriting.
func (m *Manager) mintAndStore(ctx context.Context, u model.User) (TokenPair, error) {
	access, err := m.issuer.IssueAccess(u)
	if err != nil {
		return TokenPair{}, apperror.Internal("something went wrong while generating token")
	}
	refresh, err := m.issuer.IssueRefresh(u)
	if err != nil {
		return TokenPair{}, apperror.Internal("something went wrong while generating token")
	}
	stored := refresh.Token
	if err := m.store.UpdateRefreshToken(ctx, u.ID, &stored); err != nil {
		return TokenPair{}, apperror.Internal("something went wrong while generating token")
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}
