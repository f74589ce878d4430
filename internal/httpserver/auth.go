package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/docshelf/internal/common"
	"github.com/Skotchmaster/docshelf/internal/logging"
	mwauth "github.com/Skotchmaster/docshelf/internal/middleware/auth"
	"github.com/Skotchmaster/docshelf/internal/service"
	"github.com/Skotchmaster/docshelf/internal/session"
)

var errBadBody = fmt.Errorf("Invalid request body: %w", common.ErrValidation)

type AuthHTTP struct {
	Svc          *service.AuthService
	Sessions     *session.Manager
	CookieSecure bool
}

func (h *AuthHTTP) secure(c echo.Context) bool {
	return h.CookieSecure || c.Scheme() == "https"
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req service.SignupInput
	if err := c.Bind(&req); err != nil {
		return fail(c, l, "signup_error", errBadBody)
	}

	res, err := h.Svc.Signup(ctx, req)
	if err != nil {
		return fail(c, l, "signup_error", err)
	}

	c.SetCookie(h.Sessions.Cookie(res.Token, res.ExpiresAt, h.secure(c)))
	l.Info("signup_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": res.User})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req service.LoginInput
	if err := c.Bind(&req); err != nil {
		return fail(c, l, "login_error", errBadBody)
	}

	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(c, l, "login_failed", err)
	}

	c.SetCookie(h.Sessions.Cookie(res.Token, res.ExpiresAt, h.secure(c)))
	l.Info("login_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": res.User})
}

// LogOut revokes the server-side session if there is one and always clears
// the cookie.
func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if cookie, err := c.Cookie(h.Sessions.CookieName()); err == nil && cookie.Value != "" {
		if err := h.Sessions.Destroy(ctx, cookie.Value); err != nil {
			return fail(c, l, "logout_error", err)
		}
	}

	c.SetCookie(h.Sessions.ClearCookie(h.secure(c)))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	u := mwauth.CurrentUser(c)
	if u == nil {
		return c.JSON(http.StatusOK, echo.Map{"success": false, "user": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": u})
}

func (h *AuthHTTP) Users(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_users")

	users, err := h.Svc.ListUsers(ctx, mwauth.CurrentUser(c))
	if err != nil {
		return fail(c, l, "list_users_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "users": users})
}
