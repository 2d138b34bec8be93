package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/formify-dev/formify/services/core/internal/models"
	"github.com/formify-dev/formify/services/core/internal/transport"
)

func (r *GormRepo) CreateQuestion(ctx context.Context, q *models.Question) (*models.Question, error) {
	if err := r.DB.WithContext(ctx).Create(q).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateQuestion
		}
		return nil, err
	}
	return q, nil
}

func (r *GormRepo) GetQuestion(ctx context.Context, formID, id uuid.UUID) (*models.Question, error) {
	var q models.Question
	if err := r.DB.WithContext(ctx).
		First(&q, "id = ? AND form_id = ?", id, formID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *GormRepo) ListQuestions(ctx context.Context, formID uuid.UUID) ([]models.Question, error) {
	var items []models.Question
	if err := r.DB.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("order_index ASC, created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) PatchQuestion(ctx context.Context, formID, id uuid.UUID, req transport.PatchQuestionRequest) (*models.Question, error) {
	q, err := r.GetQuestion(ctx, formID, id)
	if err != nil {
		return nil, err
	}

	if req.Type != nil {
		q.Type = *req.Type
	}
	if req.Text != nil {
		q.Text = *req.Text
	}
	if req.Description != nil {
		q.Description = *req.Description
	}
	if req.MinLength != nil {
		q.MinLength = req.MinLength
	}
	if req.MaxLength != nil {
		q.MaxLength = req.MaxLength
	}
	if req.Required != nil {
		q.Required = *req.Required
	}
	if req.OrderIndex != nil {
		q.OrderIndex = *req.OrderIndex
	}

	if err := r.DB.WithContext(ctx).Save(q).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateQuestion
		}
		return nil, err
	}
	return q, nil
}

func (r *GormRepo) DeleteQuestion(ctx context.Context, formID, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).
		Delete(&models.Question{}, "id = ? AND form_id = ?", id, formID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrQuestionNotFound
	}
	return nil
}
