package token // package token mints and verifies the two JWT classes used for sessions

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/user-account-service/internal/model"
)

// Sentinel verification errors.  Callers in the session flows are expected
// to fold both into a single unauthorized response so the rejection reason
// is never observable from outside.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Config carries the signing material and lifetimes for both token classes.
// Secrets and expiries come from the environment; nothing in this package
// reads configuration on its own.
type Config struct {
	AccessSecret  string
	AccessExpiry  time.Duration
	RefreshSecret string
	RefreshExpiry time.Duration
}

// Issuer signs and verifies access and refresh tokens with HS256.  It is a
// pure function of its inputs plus the clock: no side effects, safe for
// concurrent use.
type Issuer struct {
	cfg Config
}

func NewIssuer(cfg Config) *Issuer { return &Issuer{cfg: cfg} }

// AccessToken represents a signed access JWT along with its expiry.  Access
// tokens are short-lived, stateless, and verified by signature and expiry
// only.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents the longer-lived token exchanged for a new pair.
// The serialized value is also persisted verbatim as the account's single
// current refresh token, which is what makes rotation and server-side
// revocation possible.
type RefreshToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims is the decoded payload of a verified token.  Refresh tokens carry
// only the subject; the remaining fields are populated for access tokens.
type Claims struct {
	UserID   uint64
	Email    string
	Username string
	FullName string
}

// IssueAccess signs the identity claims of an account with the access secret
// and access lifetime.  Claims: sub, email, username, full_name, exp, iat.
func (i *Issuer) IssueAccess(u model.User) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(i.cfg.AccessExpiry)
	claims := jwt.MapClaims{
		"sub":       u.ID,
		"email":     u.Email,
		"username":  u.Username,
		"full_name": u.FullName,
		"exp":       exp.Unix(),
		"iat":       now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(i.cfg.AccessSecret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// IssueRefresh signs a minimal token carrying only the account id, using the
// refresh secret and refresh lifetime.  A random jti keeps two tokens minted
// within the same second distinct, which rotation depends on: the superseded
// value must never equal its replacement.
func (i *Issuer) IssueRefresh(u model.User) (RefreshToken, error) {
	now := time.Now().UTC()
	exp := now.Add(i.cfg.RefreshExpiry)
	jti, err := randomHex(16)
	if err != nil {
		return RefreshToken{}, err
	}
	claims := jwt.MapClaims{
		"sub": u.ID,
		"jti": jti,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(i.cfg.RefreshSecret))
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Token: signed, Exp: exp}, nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// VerifyAccess parses and validates an access token string.
func (i *Issuer) VerifyAccess(raw string) (Claims, error) {
	return i.verify(raw, i.cfg.AccessSecret)
}

// VerifyRefresh parses and validates a refresh token string.
func (i *Issuer) VerifyRefresh(raw string) (Claims, error) {
	return i.verify(raw, i.cfg.RefreshSecret)
}

// verify parses a token with the given secret, enforcing the HMAC signing
// method, and maps library errors onto the package sentinels.
func (i *Issuer) verify(raw, secret string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}
	c := Claims{}
	switch sub := mc["sub"].(type) {
	case float64:
		c.UserID = uint64(sub)
	default:
		return Claims{}, ErrTokenInvalid
	}
	if v, ok := mc["email"].(string); ok {
		c.Email = v
	}
	if v, ok := mc["username"].(string); ok {
		c.Username = v
	}
	if v, ok := mc["full_name"].(string); ok {
		c.FullName = v
	}
	return c, nil
}
