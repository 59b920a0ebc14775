package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-account-service/internal/apperror"
	"github.com/iliyamo/user-account-service/internal/config"
	"github.com/iliyamo/user-account-service/internal/model"
	"github.com/iliyamo/user-account-service/internal/token"
)

// Cookie names used as token carriers.  Clearing a session means removing
// these cookies with identical attributes.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Context keys populated by Authenticate.
const (
	ctxUserKey   = "user"
	ctxUserIDKey = "user_id"
	ctxRoleKey   = "role"
)

// PrincipalResolver is the slice of the credential store the gate needs to
// turn a verified token subject back into a live account.
type PrincipalResolver interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Authenticate returns the auth gate: it extracts the access token from the
// configured carrier, verifies it, resolves the account and attaches the
// sanitized principal to the request context.  Every rejection is a uniform
// 401; the reason (missing, malformed, expired, vanished principal) is not
// distinguishable from outside.
func Authenticate(cfg config.Config, issuer *token.Issuer, store PrincipalResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractToken(cfg.TokenSource, c)
			if raw == "" {
				return unauthorized(c, "unauthorized access")
			}

			claims, err := issuer.VerifyAccess(raw)
			if err != nil {
				return unauthorized(c, "invalid access token")
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			// A deleted account must not keep using tokens minted before the
			// deletion, so the principal is resolved on every request.
			u, err := store.GetByID(ctx, claims.UserID)
			if err != nil {
				return unauthorized(c, "invalid access token")
			}

			// Attach only the sanitized record; secret material never rides
			// the request context.
			u.PasswordHash = ""
			u.RefreshToken = nil
			c.Set(ctxUserKey, u)
			c.Set(ctxUserIDKey, u.ID)
			c.Set(ctxRoleKey, u.Role)
			return next(c)
		}
	}
}

// extractToken reads the access token from exactly one canonical carrier.
// The header carrier expects the conventional "Bearer <token>" shape.
func extractToken(source string, c echo.Context) string {
	switch source {
	case config.TokenSourceHeader:
		auth := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			return ""
		}
		return strings.TrimPrefix(auth, "Bearer ")
	default:
		ck, err := c.Cookie(AccessTokenCookie)
		if err != nil || ck == nil {
			return ""
		}
		return ck.Value
	}
}

// CurrentUser returns the sanitized principal attached by Authenticate.
func CurrentUser(c echo.Context) (model.User, error) {
	u, ok := c.Get(ctxUserKey).(model.User)
	if !ok {
		return model.User{}, apperror.Unauthorized("unauthorized access")
	}
	return u, nil
}

// CurrentUserID returns the authenticated account id.
func CurrentUserID(c echo.Context) (uint64, error) {
	id, ok := c.Get(ctxUserIDKey).(uint64)
	if !ok || id == 0 {
		return 0, apperror.Unauthorized("unauthorized access")
	}
	return id, nil
}

func unauthorized(c echo.Context, message string) error {
	e := apperror.Unauthorized(message)
	return c.JSON(http.StatusUnauthorized, e)
}
