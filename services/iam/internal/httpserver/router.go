package httpserver

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	AuthHandler *AuthHTTP
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = &requestValidator{validate: validator.New()}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/register", d.AuthHandler.RegisterStart)
	e.POST("/register/verify", d.AuthHandler.RegisterComplete)
	e.POST("/register/resend", d.AuthHandler.RegisterResend)

	e.POST("/login", d.AuthHandler.Login)
	e.POST("/refresh", d.AuthHandler.Refresh)
	e.POST("/logout", d.AuthHandler.Logout)
	e.GET("/me", d.AuthHandler.Me)
	e.POST("/profile/change-password", d.AuthHandler.ChangePassword)

	e.POST("/password/forgot", d.AuthHandler.ResetStart)
	e.POST("/password/verify", d.AuthHandler.ResetVerify)
	e.POST("/password/reset", d.AuthHandler.ResetComplete)
	e.POST("/password/resend", d.AuthHandler.ResetResend)
}
