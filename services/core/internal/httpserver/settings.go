package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/formify-dev/formify/pkg/logging"
	"github.com/formify-dev/formify/services/core/internal/transport"
)

func (h *CoreHTTP) GetSetting(c echo.Context) error {
	ctx := c.Request().Context()

	viewer, err := subjectID(c)
	if err != nil {
		return err
	}
	formID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	setting, err := h.Svc.GetSetting(ctx, viewer, formID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, setting)
}

func (h *CoreHTTP) PatchSetting(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "setting_patch")

	owner, err := subjectID(c)
	if err != nil {
		return err
	}
	formID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req transport.PatchSettingRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("setting_patch_error", "status", 400, "error", err)
		return err
	}

	setting, err := h.Svc.PatchSetting(ctx, owner, formID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, setting)
}
