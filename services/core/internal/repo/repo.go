package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrFormNotFound      = errors.New("form not found")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrSettingNotFound   = errors.New("setting not found")
	ErrSlugTaken         = errors.New("slug already taken")
	ErrDuplicateQuestion = errors.New("question with this text already exists in the form")
)

type GormRepo struct {
	DB *gorm.DB
}
