package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/formify-dev/formify/pkg/middleware/authmw"
	"github.com/formify-dev/formify/services/core/internal/repo"
	"github.com/formify-dev/formify/services/core/internal/service"
)

type CoreHTTP struct {
	Svc *service.CoreService
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return nil
}

// subjectID reads the user id the auth middleware put into the context.
func subjectID(c echo.Context) (uuid.UUID, error) {
	raw, _ := c.Get(authmw.ContextUserID).(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
	}
	return id, nil
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, name+" is not a uuid")
	}
	return id, nil
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, repo.ErrFormNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "form not found")
	case errors.Is(err, repo.ErrQuestionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "question not found")
	case errors.Is(err, repo.ErrSettingNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "setting not found")
	case errors.Is(err, repo.ErrSlugTaken):
		return echo.NewHTTPError(http.StatusConflict, "slug already taken")
	case errors.Is(err, repo.ErrDuplicateQuestion):
		return echo.NewHTTPError(http.StatusConflict, "question with this text already exists")
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not allowed")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
