package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/docshelf/internal/authz"
	"github.com/Skotchmaster/docshelf/internal/models"
)

// RequireAdmin answers 401 to anonymous callers and 403 to non-admins.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return requireWithValidator(next, func(u *models.User) (*models.User, error) {
		return authz.RequireRole(u, models.RoleAdmin)
	})
}
