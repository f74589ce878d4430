package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/docshelf/internal/authz"
	"github.com/Skotchmaster/docshelf/internal/models"
)

type ValidatorFunc func(u *models.User) (*models.User, error)

func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return requireWithValidator(next, authz.RequireAuthenticated)
}

func requireWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := validator(CurrentUser(c)); err != nil {
			return err
		}
		return next(c)
	}
}
