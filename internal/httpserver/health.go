package httpserver

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/docshelf/internal/db"
	"github.com/Skotchmaster/docshelf/internal/logging"
)

type HealthHTTP struct {
	DB *sql.DB
}

func (h *HealthHTTP) Live(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (h *HealthHTTP) Ready(c echo.Context) error {
	ctx := c.Request().Context()
	if h.DB == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}
	if err := db.Ping(ctx, h.DB); err != nil {
		logging.FromContext(ctx).Warn("readiness_failed", "status", 503, "error", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
