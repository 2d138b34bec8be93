package transport

import "time"

type CreateFormRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	Slug        string `json:"slug" validate:"omitempty,max=255"`
	IsPublic    bool   `json:"is_public"`
}

type PatchFormRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsPublic    *bool   `json:"is_public"`
}

type CreateQuestionRequest struct {
	Type        string `json:"type" validate:"required,oneof=short_text long_text single_choice multiple_choice number date"`
	Text        string `json:"text" validate:"required,max=1000"`
	Description string `json:"description" validate:"max=2000"`
	MinLength   *int   `json:"min_length" validate:"omitempty,min=0"`
	MaxLength   *int   `json:"max_length" validate:"omitempty,min=0"`
	Required    bool   `json:"required"`
	OrderIndex  int    `json:"order_index" validate:"min=0"`
}

type PatchQuestionRequest struct {
	Type        *string `json:"type" validate:"omitempty,oneof=short_text long_text single_choice multiple_choice number date"`
	Text        *string `json:"text" validate:"omitempty,max=1000"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	MinLength   *int    `json:"min_length" validate:"omitempty,min=0"`
	MaxLength   *int    `json:"max_length" validate:"omitempty,min=0"`
	Required    *bool   `json:"required"`
	OrderIndex  *int    `json:"order_index" validate:"omitempty,min=0"`
}

type PatchSettingRequest struct {
	ShowProgress        *bool      `json:"show_progress"`
	AllowBackNavigation *bool      `json:"allow_back_navigation"`
	Language            *string    `json:"language" validate:"omitempty,len=2"`
	OpensAt             *time.Time `json:"opens_at"`
	ClosesAt            *time.Time `json:"closes_at"`
}
