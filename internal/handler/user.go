package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-account-service/internal/apperror"
	"github.com/iliyamo/user-account-service/internal/middleware"
	"github.com/iliyamo/user-account-service/internal/session"
)

// UserHandler serves the profile endpoints.
type UserHandler struct {
	Sessions *session.Manager
}

func NewUserHandler(s *session.Manager) *UserHandler {
	return &UserHandler{Sessions: s}
}

type updateAccountReq struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// publicProfile is the reduced projection served to unauthenticated callers.
type publicProfile struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// Me returns the authenticated account; the principal was already resolved
// and sanitized by the auth middleware.
func (h *UserHandler) Me(c echo.Context) error {
	u, err := middleware.CurrentUser(c)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, viewOf(u), "current user fetched successfully")
}

// UpdateAccount replaces the display name and email (protected).
func (h *UserHandler) UpdateAccount(c echo.Context) error {
	uid, err := middleware.CurrentUserID(c)
	if err != nil {
		return respondErr(c, err)
	}
	var req updateAccountReq
	if err := c.Bind(&req); err != nil {
		return respondErr(c, apperror.Validation("invalid body"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Sessions.UpdateAccount(ctx, uid, req.FullName, req.Email)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, viewOf(u), "account details updated successfully")
}

// UpdateAvatar uploads a replacement avatar and swaps the stored reference
// (protected; multipart field "avatar").
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	uid, err := middleware.CurrentUserID(c)
	if err != nil {
		return respondErr(c, err)
	}
	fh, err := c.FormFile("avatar")
	if err != nil || fh == nil {
		return respondErr(c, apperror.Validation("avatar file is required"))
	}
	f, err := fh.Open()
	if err != nil {
		return respondErr(c, apperror.Upload("avatar upload failed"))
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Sessions.UpdateAvatar(ctx, uid, fh.Filename, f)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, viewOf(u), "avatar updated successfully")
}

// Profile returns the public projection of an account by username.  The
// route sits behind the response cache, so this handler must stay free of
// per-caller state.
func (h *UserHandler) Profile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Sessions.PublicProfile(ctx, c.Param("username"))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, publicProfile{
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.AvatarURL,
	}, "profile fetched successfully")
}
