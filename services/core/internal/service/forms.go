package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/formify-dev/formify/services/core/internal/models"
	"github.com/formify-dev/formify/services/core/internal/repo"
	"github.com/formify-dev/formify/services/core/internal/search"
	"github.com/formify-dev/formify/services/core/internal/transport"
)

func (s *CoreService) CreateForm(ctx context.Context, ownerID uuid.UUID, req transport.CreateFormRequest) (*models.Form, error) {
	slug := req.Slug
	autoSlug := slug == ""
	if autoSlug {
		slug = Slugify(req.Title)
	}

	form := &models.Form{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Slug:        slug,
		IsPublic:    req.IsPublic,
	}

	created, err := s.Repo.CreateForm(ctx, form)
	if errors.Is(err, repo.ErrSlugTaken) && autoSlug {
		// Generated slug collided with an existing form, disambiguate and retry.
		form.ID = uuid.Nil
		form.Slug = slug + "-" + uuid.NewString()[:8]
		created, err = s.Repo.CreateForm(ctx, form)
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.Repo.CreateSetting(ctx, &models.Setting{
		FormID:              created.ID,
		ShowProgress:        true,
		AllowBackNavigation: true,
		Language:            "en",
	}); err != nil {
		return nil, err
	}

	s.indexForm(ctx, created)
	s.publish(ctx, map[string]any{
		"type":     "form_created",
		"form_id":  created.ID.String(),
		"owner_id": ownerID.String(),
	})
	return created, nil
}

// GetForm returns the form to its owner, or to anyone if it is public.
func (s *CoreService) GetForm(ctx context.Context, viewerID, formID uuid.UUID) (*models.Form, error) {
	form, err := s.Repo.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form.OwnerID != viewerID && !form.IsPublic {
		return nil, ErrForbidden
	}
	return form, nil
}

func (s *CoreService) ListForms(ctx context.Context, ownerID uuid.UUID, offset, limit int) (int64, []models.Form, error) {
	return s.Repo.ListForms(ctx, ownerID, offset, limit)
}

func (s *CoreService) PatchForm(ctx context.Context, ownerID, formID uuid.UUID, req transport.PatchFormRequest) (*models.Form, error) {
	if _, err := s.ownedForm(ctx, formID, ownerID); err != nil {
		return nil, err
	}

	form, err := s.Repo.PatchForm(ctx, formID, req)
	if err != nil {
		return nil, err
	}

	s.indexForm(ctx, form)
	s.publish(ctx, map[string]any{
		"type":     "form_updated",
		"form_id":  form.ID.String(),
		"owner_id": ownerID.String(),
	})
	return form, nil
}

func (s *CoreService) DeleteForm(ctx context.Context, ownerID, formID uuid.UUID) error {
	if _, err := s.ownedForm(ctx, formID, ownerID); err != nil {
		return err
	}

	if err := s.Repo.DeleteForm(ctx, formID); err != nil {
		return err
	}

	s.unindexForm(ctx, formID)
	s.publish(ctx, map[string]any{
		"type":     "form_deleted",
		"form_id":  formID.String(),
		"owner_id": ownerID.String(),
	})
	return nil
}

func (s *CoreService) SearchForms(ctx context.Context, viewerID uuid.UUID, query string, from, size int) (int64, []search.FormDoc, error) {
	if s.Search == nil {
		return 0, []search.FormDoc{}, nil
	}
	return s.Search.Search(ctx, viewerID, query, from, size)
}
