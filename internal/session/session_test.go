package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/user-account-service/internal/apperror"
	"github.com/iliyamo/user-account-service/internal/model"
	"github.com/iliyamo/user-account-service/internal/repository"
	"github.com/iliyamo/user-account-service/internal/token"
)

// fakeStore is an in-memory credential store.  It enforces the same
// uniqueness and normalization rules as the MySQL-backed repository.
// Setting lookupErr makes every read fail, simulating a store outage.
type fakeStore struct {
	nextID    uint64
	users     map[uint64]*model.User
	lookupErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, users: map[uint64]*model.User{}}
}

func (s *fakeStore) Create(_ context.Context, p repository.CreateParams) (uint64, error) {
	username := repository.Normalize(p.Username)
	email := repository.Normalize(p.Email)
	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			return 0, repository.ErrDuplicate
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.MinCost)
	if err != nil {
		return 0, err
	}
	role := p.Role
	if !model.ValidRole(role) {
		role = model.RoleEmployee
	}
	id := s.nextID
	s.nextID++
	now := time.Now().UTC()
	s.users[id] = &model.User{
		ID:           id,
		Username:     username,
		Email:        email,
		FullName:     strings.TrimSpace(p.FullName),
		PasswordHash: string(hash),
		Role:         role,
		AvatarURL:    p.AvatarURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return id, nil
}

func (s *fakeStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	if s.lookupErr != nil {
		return model.User{}, s.lookupErr
	}
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return *u, nil
}

func (s *fakeStore) GetByUsernameOrEmail(_ context.Context, username, email string) (model.User, error) {
	if s.lookupErr != nil {
		return model.User{}, s.lookupErr
	}
	username = repository.Normalize(username)
	email = repository.Normalize(email)
	for _, u := range s.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *fakeStore) GetByUsername(_ context.Context, username string) (model.User, error) {
	return s.GetByUsernameOrEmail(context.Background(), username, "")
}

func (s *fakeStore) UpdateRefreshToken(_ context.Context, id uint64, tok *string) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.RefreshToken = tok
	return nil
}

func (s *fakeStore) UpdateSecret(_ context.Context, id uint64, plaintext string) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.MinCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (s *fakeStore) UpdateProfile(_ context.Context, id uint64, fullName, email string) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	u.FullName = strings.TrimSpace(fullName)
	u.Email = repository.Normalize(email)
	return *u, nil
}

func (s *fakeStore) UpdateAvatar(_ context.Context, id uint64, avatarURL string) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	u.AvatarURL = avatarURL
	return *u, nil
}

// fakeUploader returns a fixed URL, or fails when broken.
type fakeUploader struct {
	broken  bool
	uploads int
}

func (f *fakeUploader) Upload(_ context.Context, filename string, _ io.Reader) (string, error) {
	if f.broken {
		return "", errors.New("media host down")
	}
	f.uploads++
	return "https://media.example/" + filename, nil
}

func newManager(t *testing.T) (*Manager, *fakeStore, *fakeUploader) {
	t.Helper()
	store := newFakeStore()
	up := &fakeUploader{}
	iss := token.NewIssuer(token.Config{
		AccessSecret:  "access-secret",
		AccessExpiry:  time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshExpiry: time.Hour,
	})
	return NewManager(store, iss, up), store, up
}

func registerAna(t *testing.T, m *Manager) model.User {
	t.Helper()
	u, err := m.Register(context.Background(), RegisterInput{
		FullName: "Ana Lee",
		Email:    "ana@x.com",
		Username: "ana",
		Password: "p@ss1234",
		Avatar:   strings.NewReader("png-bytes"),
		Filename: "ana.png",
	})
	require.NoError(t, err)
	return u
}

func kindOf(t *testing.T, err error) apperror.Kind {
	t.Helper()
	require.Error(t, err)
	var e *apperror.Error
	require.ErrorAs(t, err, &e)
	return e.Kind
}

func TestRegisterBlankFieldFails(t *testing.T) {
	m, store, _ := newManager(t)

	for _, in := range []RegisterInput{
		{FullName: "", Email: "a@x.com", Username: "a", Password: "pw", Avatar: strings.NewReader("x")},
		{FullName: "A", Email: "  ", Username: "a", Password: "pw", Avatar: strings.NewReader("x")},
		{FullName: "A", Email: "a@x.com", Username: "", Password: "pw", Avatar: strings.NewReader("x")},
		{FullName: "A", Email: "a@x.com", Username: "a", Password: "", Avatar: strings.NewReader("x")},
	} {
		_, err := m.Register(context.Background(), in)
		assert.Equal(t, apperror.KindValidation, kindOf(t, err))
	}
	assert.Empty(t, store.users, "no principal may be created on validation failure")
}

func TestRegisterMissingAvatarFails(t *testing.T) {
	m, store, _ := newManager(t)

	_, err := m.Register(context.Background(), RegisterInput{
		FullName: "Ana Lee", Email: "ana@x.com", Username: "ana", Password: "pw",
	})
	assert.Equal(t, apperror.KindValidation, kindOf(t, err))
	assert.Empty(t, store.users)
}

func TestRegisterUploadFailureFails(t *testing.T) {
	m, store, up := newManager(t)
	up.broken = true

	_, err := m.Register(context.Background(), RegisterInput{
		FullName: "Ana Lee", Email: "ana@x.com", Username: "ana", Password: "pw",
		Avatar: strings.NewReader("x"), Filename: "a.png",
	})
	assert.Equal(t, apperror.KindUpload, kindOf(t, err))
	assert.Empty(t, store.users, "no principal may be created when the upload fails")
}

func TestRegisterNormalizesAndSanitizesNothingAway(t *testing.T) {
	m, _, _ := newManager(t)

	u, err := m.Register(context.Background(), RegisterInput{
		FullName: "Ana Lee",
		Email:    "  ANA@X.com ",
		Username: " AnA ",
		Password: "p@ss1234",
		Avatar:   strings.NewReader("png"),
		Filename: "ana.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)
	assert.Equal(t, "ana@x.com", u.Email)
	assert.Equal(t, model.RoleEmployee, u.Role)
	assert.Equal(t, "https://media.example/ana.png", u.AvatarURL)
	assert.Nil(t, u.RefreshToken, "registration does not open a session")
}

func TestRegisterDuplicateUsernameCaseInsensitive(t *testing.T) {
	m, store, _ := newManager(t)
	registerAna(t, m)

	_, err := m.Register(context.Background(), RegisterInput{
		FullName: "Other",
		Email:    "other@x.com",
		Username: "ANA",
		Password: "pw",
		Avatar:   strings.NewReader("png"),
		Filename: "o.png",
	})
	assert.Equal(t, apperror.KindConflict, kindOf(t, err))
	assert.Len(t, store.users, 1, "the store retains only the first account")
}

func TestLoginRequiresIdentifier(t *testing.T) {
	m, _, _ := newManager(t)
	_, _, err := m.Login(context.Background(), "", "", "pw")
	assert.Equal(t, apperror.KindValidation, kindOf(t, err))
}

func TestLoginUnknownPrincipal(t *testing.T) {
	m, _, _ := newManager(t)
	_, _, err := m.Login(context.Background(), "ghost", "", "pw")
	assert.Equal(t, apperror.KindNotFound, kindOf(t, err))
}

func TestStoreOutageIsInternalNotNotFound(t *testing.T) {
	m, store, _ := newManager(t)
	created := registerAna(t, m)

	// A timed-out or broken store must surface as a 500, never as
	// "user does not exist".
	store.lookupErr = context.DeadlineExceeded

	_, _, err := m.Login(context.Background(), "ana", "", "p@ss1234")
	assert.Equal(t, apperror.KindInternal, kindOf(t, err))

	_, err = m.PublicProfile(context.Background(), "ana")
	assert.Equal(t, apperror.KindInternal, kindOf(t, err))

	_, err = m.CurrentUser(context.Background(), created.ID)
	assert.Equal(t, apperror.KindInternal, kindOf(t, err))

	err = m.ChangePassword(context.Background(), created.ID, "p@ss1234", "newpass")
	assert.Equal(t, apperror.KindInternal, kindOf(t, err))

	_, err = m.Register(context.Background(), RegisterInput{
		FullName: "Bo", Email: "bo@x.com", Username: "bo", Password: "pw",
		Avatar: strings.NewReader("png"), Filename: "bo.png",
	})
	assert.Equal(t, apperror.KindInternal, kindOf(t, err))
}

func TestLoginWrongPassword(t *testing.T) {
	m, _, _ := newManager(t)
	registerAna(t, m)

	_, _, err := m.Login(context.Background(), "ana", "", "wrong")
	assert.Equal(t, apperror.KindUnauthorized, kindOf(t, err))
}

func TestLoginPersistsRefreshToken(t *testing.T) {
	m, store, _ := newManager(t)
	created := registerAna(t, m)

	u, pair, err := m.Login(context.Background(), "ana", "", "p@ss1234")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	require.NotEmpty(t, pair.Access.Token)
	require.NotEmpty(t, pair.Refresh.Token)

	stored := store.users[created.ID].RefreshToken
	require.NotNil(t, stored, "login must persist the refresh token")
	assert.Equal(t, pair.Refresh.Token, *stored)
}

func TestLoginByEmail(t *testing.T) {
	m, _, _ := newManager(t)
	registerAna(t, m)

	_, _, err := m.Login(context.Background(), "", "ANA@x.com", "p@ss1234")
	assert.NoError(t, err)
}

func TestRefreshRotates(t *testing.T) {
	m, store, _ := newManager(t)
	created := registerAna(t, m)

	_, pair, err := m.Login(context.Background(), "ana", "", "p@ss1234")
	require.NoError(t, err)

	_, rotated, err := m.Refresh(context.Background(), pair.Refresh.Token)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Refresh.Token, rotated.Refresh.Token, "refresh must rotate the token")

	stored := store.users[created.ID].RefreshToken
	require.NotNil(t, stored)
	assert.Equal(t, rotated.Refresh.Token, *stored)

	// Replaying the superseded token is the rotation defense.
	_, _, err = m.Refresh(context.Background(), pair.Refresh.Token)
	assert.Equal(t, apperror.KindUnauthorized, kindOf(t, err))
}

func TestRefreshRejectsMissingAndGarbage(t *testing.T) {
	m, _, _ := newManager(t)

	_, _, err := m.Refresh(context.Background(), "")
	assert.Equal(t, apperror.KindUnauthorized, kindOf(t, err))

	_, _, err = m.Refresh(context.Background(), "not-a-token")
	assert.Equal(t, apperror.KindUnauthorized, kindOf(t, err))
}

func TestLogoutInvalidatesRefresh(t *testing.T) {
	m, store, _ := newManager(t)
	created := registerAna(t, m)

	_, pair, err := m.Login(context.Background(), "ana", "", "p@ss1234")
	require.NoError(t, err)

	require.NoError(t, m.Logout(context.Background(), created.ID))
	assert.Nil(t, store.users[created.ID].RefreshToken)

	// The previously valid refresh token is dead immediately, even though
	// its signature and expiry are still good.
	_, _, err = m.Refresh(context.Background(), pair.Refresh.Token)
	assert.Equal(t, apperror.KindUnauthorized, kindOf(t, err))

	// Logging out again is a no-op, not an error.
	assert.NoError(t, m.Logout(context.Background(), created.ID))
}

func TestChangePassword(t *testing.T) {
	m, store, _ := newManager(t)
	created := registerAna(t, m)

	_, _, err := m.Login(context.Background(), "ana", "", "p@ss1234")
	require.NoError(t, err)

	err = m.ChangePassword(context.Background(), created.ID, "wrong", "newpass")
	assert.Equal(t, apperror.KindUnauthorized, kindOf(t, err))

	require.NoError(t, m.ChangePassword(context.Background(), created.ID, "p@ss1234", "newpass"))

	_, _, err = m.Login(context.Background(), "ana", "", "newpass")
	assert.NoError(t, err)

	_, _, err = m.Login(context.Background(), "ana", "", "p@ss1234")
	assert.Equal(t, apperror.KindUnauthorized, kindOf(t, err))

	// A password change leaves the live session untouched.
	require.NotNil(t, store.users[created.ID].RefreshToken)
	_, _, err = m.Refresh(context.Background(), *store.users[created.ID].RefreshToken)
	assert.NoError(t, err)
}

func TestUpdateAccountValidatesAndUpdates(t *testing.T) {
	m, _, _ := newManager(t)
	created := registerAna(t, m)

	_, err := m.UpdateAccount(context.Background(), created.ID, "", "ana@x.com")
	assert.Equal(t, apperror.KindValidation, kindOf(t, err))

	u, err := m.UpdateAccount(context.Background(), created.ID, "Ana L. Lee", "ana+new@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana L. Lee", u.FullName)
	assert.Equal(t, "ana+new@x.com", u.Email)
}

func TestUpdateAvatarReplacesReference(t *testing.T) {
	m, _, up := newManager(t)
	created := registerAna(t, m)

	u, err := m.UpdateAvatar(context.Background(), created.ID, "new.png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "https://media.example/new.png", u.AvatarURL)
	assert.Equal(t, 2, up.uploads)

	up.broken = true
	_, err = m.UpdateAvatar(context.Background(), created.ID, "x.png", strings.NewReader("png"))
	assert.Equal(t, apperror.KindUpload, kindOf(t, err))
}

func TestPublicProfile(t *testing.T) {
	m, _, _ := newManager(t)
	registerAna(t, m)

	u, err := m.PublicProfile(context.Background(), "ANA")
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)

	_, err = m.PublicProfile(context.Background(), "ghost")
	assert.Equal(t, apperror.KindNotFound, kindOf(t, err))
}
