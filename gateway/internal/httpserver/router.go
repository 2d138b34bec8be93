package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/formify-dev/formify/gateway/internal/middleware"
	"github.com/formify-dev/formify/pkg/middleware/authmw"
)

type Deps struct {
	IAMURL  string
	CoreURL string

	JWTSecret []byte

	RateLimitPerSecond float64
	Logger             *slog.Logger
}

func Register(e *echo.Echo, d *Deps) error {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, m := range middleware.Common(d.Logger) {
		e.Use(m)
	}
	if d.RateLimitPerSecond > 0 {
		e.Use(middleware.RateLimit(d.RateLimitPerSecond))
	}

	iamProxy, err := newProxy(d.IAMURL, "/api/v1/auth")
	if err != nil {
		return err
	}

	coreProxy, err := newProxy(d.CoreURL, "/api/v1")
	if err != nil {
		return err
	}

	// Auth endpoints are open, the IAM service does its own token checks.
	e.Any("/api/v1/auth/*", iamProxy)

	api := e.Group("/api/v1")
	api.Use(authmw.NewBearerMiddleware(d.JWTSecret).RequireAuth)

	api.Any("/forms", coreProxy)
	api.Any("/forms/*", coreProxy)

	return nil
}
