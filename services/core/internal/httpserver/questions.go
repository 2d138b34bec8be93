package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/formify-dev/formify/pkg/logging"
	"github.com/formify-dev/formify/services/core/internal/transport"
)

func (h *CoreHTTP) CreateQuestion(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "question_create")

	owner, err := subjectID(c)
	if err != nil {
		return err
	}
	formID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req transport.CreateQuestionRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("question_create_error", "status", 400, "error", err)
		return err
	}

	q, err := h.Svc.CreateQuestion(ctx, owner, formID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, q)
}

func (h *CoreHTTP) ListQuestions(c echo.Context) error {
	ctx := c.Request().Context()

	viewer, err := subjectID(c)
	if err != nil {
		return err
	}
	formID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	items, err := h.Svc.ListQuestions(ctx, viewer, formID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CoreHTTP) PatchQuestion(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "question_patch")

	owner, err := subjectID(c)
	if err != nil {
		return err
	}
	formID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	questionID, err := uuidParam(c, "question_id")
	if err != nil {
		return err
	}

	var req transport.PatchQuestionRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("question_patch_error", "status", 400, "error", err)
		return err
	}

	q, err := h.Svc.PatchQuestion(ctx, owner, formID, questionID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *CoreHTTP) DeleteQuestion(c echo.Context) error {
	ctx := c.Request().Context()

	owner, err := subjectID(c)
	if err != nil {
		return err
	}
	formID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	questionID, err := uuidParam(c, "question_id")
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteQuestion(ctx, owner, formID, questionID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
