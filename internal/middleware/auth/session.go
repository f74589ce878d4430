package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/docshelf/internal/logging"
)

// Sessions resolves the session cookie on every request and stores the
// caller (possibly nil) in the echo context. A cookie that no longer maps to
// a live session is ignored, not rewritten.
func Sessions(r Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(r.CookieName())
			if err != nil || cookie.Value == "" {
				setUserContext(c, nil)
				return next(c)
			}

			ctx := c.Request().Context()
			u, err := r.Resolve(ctx, cookie.Value)
			if err != nil {
				logging.FromContext(ctx).Error("session_resolve_error", "status", 500, "error", err)
				return err
			}
			setUserContext(c, u)
			if u != nil {
				req := c.Request().WithContext(logging.IntoContext(ctx, logging.FromContext(ctx).With("user_id", u.ID)))
				c.SetRequest(req)
			}
			return next(c)
		}
	}
}
