package auth

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/docshelf/internal/models"
)

const userKey = "user"

// Resolver maps a session cookie value to a user; nil means anonymous.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
	CookieName() string
}

func setUserContext(c echo.Context, u *models.User) {
	c.Set(userKey, u)
}

// CurrentUser returns the caller resolved by Sessions, or nil.
func CurrentUser(c echo.Context) *models.User {
	u, _ := c.Get(userKey).(*models.User)
	return u
}
