package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/formify-dev/formify/services/core/internal/models"
	"github.com/formify-dev/formify/services/core/internal/transport"
)

func (r *GormRepo) CreateForm(ctx context.Context, form *models.Form) (*models.Form, error) {
	if err := r.DB.WithContext(ctx).Create(form).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return form, nil
}

func (r *GormRepo) GetForm(ctx context.Context, id uuid.UUID) (*models.Form, error) {
	var form models.Form
	if err := r.DB.WithContext(ctx).First(&form, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	return &form, nil
}

func (r *GormRepo) ListForms(ctx context.Context, ownerID uuid.UUID, offset, limit int) (int64, []models.Form, error) {
	var total int64
	if err := r.DB.WithContext(ctx).
		Model(&models.Form{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Form, 0, limit)
	if err := r.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

func (r *GormRepo) PatchForm(ctx context.Context, id uuid.UUID, req transport.PatchFormRequest) (*models.Form, error) {
	form, err := r.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		form.Title = *req.Title
	}
	if req.Description != nil {
		form.Description = *req.Description
	}
	if req.IsPublic != nil {
		form.IsPublic = *req.IsPublic
	}

	if err := r.DB.WithContext(ctx).Save(form).Error; err != nil {
		return nil, err
	}
	return form, nil
}

// DeleteForm soft-deletes the form and hard-deletes its questions and setting.
func (r *GormRepo) DeleteForm(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Form{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrFormNotFound
		}
		if err := tx.Delete(&models.Question{}, "form_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Setting{}, "form_id = ?", id).Error
	})
}
