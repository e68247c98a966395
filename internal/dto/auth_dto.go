package dto

import "github.com/DJELO6elisee/YouVoice-API/internal/models"

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"full_name" validate:"omitempty,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// UpdateProfileRequest carries the editable profile fields; nil means unchanged.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name" form:"full_name" validate:"omitempty,max=100"`
	Email    *string `json:"email" form:"email" validate:"omitempty,email,max=255"`
	Genre    *string `json:"genre" form:"genre" validate:"omitempty,oneof=homme femme autre prefer_not_say"`
	Pays     *string `json:"pays" form:"pays" validate:"omitempty,max=100"`
	Bio      *string `json:"bio" form:"bio" validate:"omitempty,max=1000"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Error   bool         `json:"error"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
