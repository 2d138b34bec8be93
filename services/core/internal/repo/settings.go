package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/formify-dev/formify/services/core/internal/models"
	"github.com/formify-dev/formify/services/core/internal/transport"
)

func (r *GormRepo) CreateSetting(ctx context.Context, s *models.Setting) (*models.Setting, error) {
	if err := r.DB.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *GormRepo) GetSetting(ctx context.Context, formID uuid.UUID) (*models.Setting, error) {
	var s models.Setting
	if err := r.DB.WithContext(ctx).First(&s, "form_id = ?", formID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) PatchSetting(ctx context.Context, formID uuid.UUID, req transport.PatchSettingRequest) (*models.Setting, error) {
	s, err := r.GetSetting(ctx, formID)
	if err != nil {
		return nil, err
	}

	if req.ShowProgress != nil {
		s.ShowProgress = *req.ShowProgress
	}
	if req.AllowBackNavigation != nil {
		s.AllowBackNavigation = *req.AllowBackNavigation
	}
	if req.Language != nil {
		s.Language = *req.Language
	}
	if req.OpensAt != nil {
		s.OpensAt = req.OpensAt
	}
	if req.ClosesAt != nil {
		s.ClosesAt = req.ClosesAt
	}

	if err := r.DB.WithContext(ctx).Save(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}
