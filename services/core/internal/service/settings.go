package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/formify-dev/formify/services/core/internal/models"
	"github.com/formify-dev/formify/services/core/internal/transport"
)

func (s *CoreService) GetSetting(ctx context.Context, viewerID, formID uuid.UUID) (*models.Setting, error) {
	if _, err := s.GetForm(ctx, viewerID, formID); err != nil {
		return nil, err
	}
	return s.Repo.GetSetting(ctx, formID)
}

func (s *CoreService) PatchSetting(ctx context.Context, ownerID, formID uuid.UUID, req transport.PatchSettingRequest) (*models.Setting, error) {
	if _, err := s.ownedForm(ctx, formID, ownerID); err != nil {
		return nil, err
	}
	return s.Repo.PatchSetting(ctx, formID, req)
}
