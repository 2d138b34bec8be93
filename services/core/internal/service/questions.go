package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/formify-dev/formify/services/core/internal/models"
	"github.com/formify-dev/formify/services/core/internal/transport"
)

func (s *CoreService) CreateQuestion(ctx context.Context, ownerID, formID uuid.UUID, req transport.CreateQuestionRequest) (*models.Question, error) {
	if _, err := s.ownedForm(ctx, formID, ownerID); err != nil {
		return nil, err
	}

	q := &models.Question{
		FormID:      formID,
		Type:        req.Type,
		Text:        req.Text,
		Description: req.Description,
		MinLength:   req.MinLength,
		MaxLength:   req.MaxLength,
		Required:    req.Required,
		OrderIndex:  req.OrderIndex,
	}
	return s.Repo.CreateQuestion(ctx, q)
}

func (s *CoreService) ListQuestions(ctx context.Context, viewerID, formID uuid.UUID) ([]models.Question, error) {
	if _, err := s.GetForm(ctx, viewerID, formID); err != nil {
		return nil, err
	}
	return s.Repo.ListQuestions(ctx, formID)
}

func (s *CoreService) PatchQuestion(ctx context.Context, ownerID, formID, questionID uuid.UUID, req transport.PatchQuestionRequest) (*models.Question, error) {
	if _, err := s.ownedForm(ctx, formID, ownerID); err != nil {
		return nil, err
	}
	return s.Repo.PatchQuestion(ctx, formID, questionID, req)
}

func (s *CoreService) DeleteQuestion(ctx context.Context, ownerID, formID, questionID uuid.UUID) error {
	if _, err := s.ownedForm(ctx, formID, ownerID); err != nil {
		return err
	}
	return s.Repo.DeleteQuestion(ctx, formID, questionID)
}
