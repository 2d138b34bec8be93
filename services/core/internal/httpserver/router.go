package httpserver

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/formify-dev/formify/pkg/middleware/authmw"
)

type Deps struct {
	CoreHandler  *CoreHTTP
	AccessSecret []byte
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

	authMW := authmw.NewBearerMiddleware(d.AccessSecret)

	forms := e.Group("/forms", authMW.RequireAuth)
	forms.GET("/search", d.CoreHandler.SearchForms)
	forms.POST("", d.CoreHandler.CreateForm)
	forms.GET("", d.CoreHandler.ListForms)
	forms.GET("/:id", d.CoreHandler.GetForm)
	forms.PATCH("/:id", d.CoreHandler.PatchForm)
	forms.DELETE("/:id", d.CoreHandler.DeleteForm)

	forms.POST("/:id/questions", d.CoreHandler.CreateQuestion)
	forms.GET("/:id/questions", d.CoreHandler.ListQuestions)
	forms.PATCH("/:id/questions/:question_id", d.CoreHandler.PatchQuestion)
	forms.DELETE("/:id/questions/:question_id", d.CoreHandler.DeleteQuestion)

	forms.GET("/:id/settings", d.CoreHandler.GetSetting)
	forms.PATCH("/:id/settings", d.CoreHandler.PatchSetting)
}
