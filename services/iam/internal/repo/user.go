package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/formify-dev/formify/services/iam/internal/models"
)

// NormalizeEmail is applied before every lookup and insert so that the
// unique index on email compares case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser inserts a new user. The application-level existence check is an
// optimization only; the unique index on email is what guarantees uniqueness
// under concurrent inserts.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = NormalizeEmail(u.Email)

	tx := r.DB.WithContext(ctx).Where("email = ?", u.Email).FirstOrCreate(u)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExists
		}
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrUserAlreadyExists
	}
	return nil
}

// CreateAdmin inserts the single admin user. At most one admin row may exist;
// enforced here at creation time, not by a database constraint.
func (r *GormRepo) CreateAdmin(ctx context.Context, u *models.User) error {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrAdminAlreadyExists
	}

	u.Role = models.RoleAdmin
	u.IsVerified = true
	return r.CreateUser(ctx, u)
}

func (r *GormRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UpdatePassword(ctx context.Context, id uuid.UUID, newHash string) error {
	return r.updateColumns(ctx, id, map[string]any{"password_hash": newHash})
}

func (r *GormRepo) SetVerified(ctx context.Context, id uuid.UUID) error {
	return r.updateColumns(ctx, id, map[string]any{"is_verified": true})
}

func (r *GormRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.updateColumns(ctx, id, map[string]any{"status": status})
}

func (r *GormRepo) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return r.updateColumns(ctx, id, map[string]any{"last_login": &now})
}

func (r *GormRepo) updateColumns(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	cols["updated_at"] = time.Now().UTC()
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
