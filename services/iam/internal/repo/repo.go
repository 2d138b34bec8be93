package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrAdminAlreadyExists = errors.New("admin user already exists")
	ErrUserNotFound       = errors.New("user not found")
)

type GormRepo struct {
	DB *gorm.DB
}
