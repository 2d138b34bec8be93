package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/formify-dev/formify/pkg/logging"
	"github.com/formify-dev/formify/services/core/internal/transport"
	"github.com/formify-dev/formify/services/core/internal/util"
)

func (h *CoreHTTP) CreateForm(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "form_create")

	owner, err := subjectID(c)
	if err != nil {
		return err
	}

	var req transport.CreateFormRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("form_create_error", "status", 400, "error", err)
		return err
	}

	form, err := h.Svc.CreateForm(ctx, owner, req)
	if err != nil {
		return httpError(err)
	}

	l.Info("form_create_success", "form_id", form.ID)
	return c.JSON(http.StatusCreated, form)
}

func (h *CoreHTTP) GetForm(c echo.Context) error {
	ctx := c.Request().Context()

	viewer, err := subjectID(c)
	if err != nil {
		return err
	}
	formID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	form, err := h.Svc.GetForm(ctx, viewer, formID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, form)
}

func (h *CoreHTTP) ListForms(c echo.Context) error {
	ctx := c.Request().Context()

	owner, err := subjectID(c)
	if err != nil {
		return err
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.ListForms(ctx, owner, offset, limit)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *CoreHTTP) PatchForm(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "form_patch")

	owner, err := subjectID(c)
	if err != nil {
		return err
	}
	formID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req transport.PatchFormRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("form_patch_error", "status", 400, "error", err)
		return err
	}

	form, err := h.Svc.PatchForm(ctx, owner, formID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, form)
}

func (h *CoreHTTP) DeleteForm(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "form_delete")

	owner, err := subjectID(c)
	if err != nil {
		return err
	}
	formID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteForm(ctx, owner, formID); err != nil {
		return httpError(err)
	}

	l.Info("form_delete_success", "form_id", formID)
	return c.NoContent(http.StatusNoContent)
}

func (h *CoreHTTP) SearchForms(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "form_search")

	viewer, err := subjectID(c)
	if err != nil {
		return err
	}

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing query")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, docs, err := h.Svc.SearchForms(ctx, viewer, q, from, limit)
	if err != nil {
		l.Error("form_search_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"total": total,
		"forms": docs,
	})
}
