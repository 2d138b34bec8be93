package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleCreator = "creator"
	RoleAdmin   = "admin"

	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"                                                       json:"id"`
	Email        string     `gorm:"size:255;uniqueIndex;not null"                                              json:"email"`
	FullName     string     `gorm:"size:255;not null"                                                          json:"full_name"`
	PasswordHash string     `gorm:"not null"                                                                   json:"-"`
	Role         string     `gorm:"size:20;not null;default:'creator';check:role IN ('creator','admin')"       json:"role"`
	Status       string     `gorm:"size:20;not null;default:'active';check:status IN ('active','inactive','suspended')" json:"status"`
	IsVerified   bool       `gorm:"not null;default:false"                                                     json:"is_verified"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
