package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for register and login.
type AuthResponse struct {
	User      domain.UserProfile `json:"user"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// UserResponse wraps a single profile.
type UserResponse struct {
	User domain.UserProfile `json:"user"`
}

// UserListResponse wraps the admin user listing.
type UserListResponse struct {
	Users []domain.UserProfile `json:"users"`
}
