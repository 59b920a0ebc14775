package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-account-service/internal/apperror"
	"github.com/iliyamo/user-account-service/internal/config"
	"github.com/iliyamo/user-account-service/internal/middleware"
	"github.com/iliyamo/user-account-service/internal/session"
)

// storeTimeout bounds the database work done on behalf of one request so a
// slow round trip cannot pin a handler.
const storeTimeout = 5 * time.Second

// AuthHandler bundles dependencies for the session endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Sessions *session.Manager
}

func NewAuthHandler(cfg config.Config, s *session.Manager) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Sessions: s}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}
type changePasswordReq struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type loginResp struct {
	User         accountView `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}
type refreshResp struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register: multipart form with the account fields plus the avatar file.
func (h *AuthHandler) Register(c echo.Context) error {
	in := session.RegisterInput{
		FullName: c.FormValue("fullName"),
		Email:    c.FormValue("email"),
		Username: c.FormValue("username"),
		Password: c.FormValue("password"),
	}

	fh, err := c.FormFile("avatar")
	if err == nil && fh != nil {
		f, openErr := fh.Open()
		if openErr != nil {
			return respondErr(c, apperror.Upload("avatar upload failed"))
		}
		defer f.Close()
		in.Avatar = f
		in.Filename = fh.Filename
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	created, err := h.Sessions.Register(ctx, in)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusCreated, viewOf(created), "user registered successfully")
}

// Login: verify credentials, return the pair and set it as cookies.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return respondErr(c, apperror.Validation("invalid body"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, pair, err := h.Sessions.Login(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return respondErr(c, err)
	}

	h.setAuthCookies(c, pair)
	return respond(c, http.StatusOK, loginResp{
		User:         viewOf(u),
		AccessToken:  pair.Access.Token,
		RefreshToken: pair.Refresh.Token,
	}, "user logged in successfully")
}

// Refresh: exchange the presented refresh token for a rotated pair.  The
// token is read from the refreshToken cookie or, failing that, the body.
func (h *AuthHandler) Refresh(c echo.Context) error {
	presented := ""
	if ck, err := c.Cookie(middleware.RefreshTokenCookie); err == nil && ck != nil {
		presented = ck.Value
	}
	if presented == "" {
		var req refreshReq
		_ = c.Bind(&req)
		presented = req.RefreshToken
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	_, pair, err := h.Sessions.Refresh(ctx, presented)
	if err != nil {
		return respondErr(c, err)
	}

	h.setAuthCookies(c, pair)
	return respond(c, http.StatusOK, refreshResp{
		AccessToken:  pair.Access.Token,
		RefreshToken: pair.Refresh.Token,
	}, "access token refreshed")
}

// Logout: clear the stored refresh token and remove both cookies (protected).
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, err := middleware.CurrentUserID(c)
	if err != nil {
		return respondErr(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	if err := h.Sessions.Logout(ctx, uid); err != nil {
		return respondErr(c, err)
	}

	h.clearAuthCookies(c)
	return respond(c, http.StatusOK, struct{}{}, "user logged out")
}

// ChangePassword: verify the old secret and replace it (protected).  The
// stored refresh token is left alone, so existing sessions survive.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, err := middleware.CurrentUserID(c)
	if err != nil {
		return respondErr(c, err)
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return respondErr(c, apperror.Validation("invalid body"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	if err := h.Sessions.ChangePassword(ctx, uid, req.OldPassword, req.NewPassword); err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, struct{}{}, "password changed successfully")
}

// setAuthCookies writes both tokens as HTTP-only cookies with matching
// attributes; clearAuthCookies removes them with the same attributes so
// browsers actually drop them.
func (h *AuthHandler) setAuthCookies(c echo.Context, pair session.TokenPair) {
	c.SetCookie(h.authCookie(middleware.AccessTokenCookie, pair.Access.Token, pair.Access.Exp))
	c.SetCookie(h.authCookie(middleware.RefreshTokenCookie, pair.Refresh.Token, pair.Refresh.Exp))
}

func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		ck := h.authCookie(name, "", time.Unix(0, 0))
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
}

func (h *AuthHandler) authCookie(name, value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}
