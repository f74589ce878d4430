// Package csrf rejects state-changing requests that a browser sent from a
// foreign origin. Requests carrying neither Origin nor Referer (API clients)
// pass; the SameSite=Lax session cookie covers the rest.
package csrf

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

type Config struct {
	// AllowedOrigins are extra scheme://host[:port] origins accepted besides
	// the request's own host.
	AllowedOrigins []string
}

func Middleware(cfg Config) echo.MiddlewareFunc {
	allowed := map[string]struct{}{}
	for _, o := range cfg.AllowedOrigins {
		if o = strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/"); o != "" {
			allowed[o] = struct{}{}
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			origin := req.Header.Get("Origin")
			if origin == "" {
				origin = req.Header.Get("Referer")
			}
			if origin == "" {
				return next(c)
			}
			if !sameOrigin(origin, c.Scheme(), req.Host, allowed) {
				return echo.NewHTTPError(http.StatusForbidden, "Invalid origin")
			}
			return next(c)
		}
	}
}

func sameOrigin(origin, scheme, host string, allowed map[string]struct{}) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if _, ok := allowed[strings.ToLower(u.Scheme+"://"+u.Host)]; ok {
		return true
	}
	return strings.EqualFold(u.Scheme, scheme) && strings.EqualFold(u.Host, host)
}
