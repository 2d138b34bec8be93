package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	QuestionShortText      = "short_text"
	QuestionLongText       = "long_text"
	QuestionSingleChoice   = "single_choice"
	QuestionMultipleChoice = "multiple_choice"
	QuestionNumber         = "number"
	QuestionDate           = "date"
)

type Form struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID      `gorm:"type:uuid;index;not null" json:"owner_id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`
	IsPublic    bool           `gorm:"default:false" json:"is_public"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (f *Form) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

type Question struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FormID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_form_question_text" json:"form_id"`
	Type        string    `gorm:"not null;check:type IN ('short_text','long_text','single_choice','multiple_choice','number','date')" json:"type"`
	Text        string    `gorm:"not null;uniqueIndex:idx_form_question_text" json:"text"`
	Description string    `json:"description"`
	MinLength   *int      `json:"min_length,omitempty"`
	MaxLength   *int      `json:"max_length,omitempty"`
	Required    bool      `gorm:"default:false" json:"required"`
	OrderIndex  int       `gorm:"not null;default:0" json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// Setting holds per-form presentation options. Exactly one row per form,
// created with defaults when the form is created.
type Setting struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FormID              uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"form_id"`
	ShowProgress        bool       `gorm:"default:true" json:"show_progress"`
	AllowBackNavigation bool       `gorm:"default:true" json:"allow_back_navigation"`
	Language            string     `gorm:"default:'en'" json:"language"`
	OpensAt             *time.Time `json:"opens_at,omitempty"`
	ClosesAt            *time.Time `json:"closes_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (s *Setting) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
