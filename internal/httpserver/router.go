package httpserver

import (
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/docshelf/internal/metrics"
	mwauth "github.com/Skotchmaster/docshelf/internal/middleware/auth"
	"github.com/Skotchmaster/docshelf/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/docshelf/internal/middleware/logging"
)

type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Sessions mwauth.Resolver

	Auth      *AuthHTTP
	Documents *DocumentsHTTP
	Upload    *UploadHTTP
	Health    *HealthHTTP

	CookieSecure   bool
	AllowedOrigins []string
	MaxUploadBytes int64

	// StaticDir is served under StaticPath when uploads are kept on local disk.
	StaticDir  string
	StaticPath string
}

// uploadBodyLimit leaves room for multipart framing so an oversized file
// still reaches validation and gets the size-limit message.
func uploadBodyLimit(maxUpload int64) string {
	kib := (2*maxUpload)/1024 + 1024
	return fmt.Sprintf("%dK", kib)
}

func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler
	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.Use(middleware.RequestID())
	e.Use(d.Metrics.Middleware())
	e.Use(loggingmw.RequestLogger(d.Logger))
	e.Use(middleware.Recover())
	e.Use(csrf.Middleware(csrf.Config{AllowedOrigins: d.AllowedOrigins}))
	e.Use(mwauth.Sessions(d.Sessions))

	e.GET("/health/live", d.Health.Live)
	e.GET("/health/ready", d.Health.Ready)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	auth := e.Group("/auth")
	auth.POST("/signup", d.Auth.Signup)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/logout", d.Auth.LogOut)
	auth.GET("/me", d.Auth.Me)
	auth.GET("/users", d.Auth.Users, mwauth.RequireAdmin)

	docs := e.Group("/documents")
	docs.Use(mwauth.RequireAuth)
	docs.GET("/my", d.Documents.Mine)
	docs.GET("/all", d.Documents.All, mwauth.RequireAdmin)
	docs.GET("/search", d.Documents.Search, mwauth.RequireAdmin)
	docs.DELETE("/:id", d.Documents.Delete)

	e.POST("/upload", d.Upload.Upload, mwauth.RequireAuth, middleware.BodyLimit(uploadBodyLimit(d.MaxUploadBytes)))

	if d.StaticDir != "" && d.StaticPath != "" {
		e.Static(d.StaticPath, d.StaticDir)
	}
}
