package dto

import (
	"time"

	"github.com/spec-kit/admissions-service/internal/domain"
)

// CreateUserRequest payload for managed user creation.
type CreateUserRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	SchoolID *string `json:"school_id,omitempty"`
}

// UpdateUserRequest payload for partial user updates.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	SchoolID *string `json:"school_id,omitempty"`
}

// ResetUserPasswordRequest payload for manager-driven password resets.
type ResetUserPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// UserResponse serialized user.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	SchoolID  *string   `json:"school_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		SchoolID:  user.SchoolID,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
