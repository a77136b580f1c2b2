package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/enums"
)

// LoginRequest carries the credential payload plus the caller's address for
// rate limiting.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	ClientIP string `json:"-"`
}

// LoginResponse is the issued token pair plus the authenticated profile.
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserSummary `json:"user"`
}

// RefreshRequest rotates a refresh token tied to the (possibly expired)
// access token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse is the replacement token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest revokes the session behind the access token.
type LogoutRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

// UserSummary is the profile shape returned to clients.
type UserSummary struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	Username    string         `json:"username"`
	FullName    string         `json:"full_name"`
	Role        enums.UserRole `json:"role"`
	BaseID      *uuid.UUID     `json:"base_id,omitempty"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
}

// FromModel maps a user row into the response shape.
func FromModel(user *models.User) UserSummary {
	if user == nil {
		return UserSummary{}
	}
	return UserSummary{
		ID:          user.ID,
		Email:       user.Email,
		Username:    user.Username,
		FullName:    user.FullName,
		Role:        user.Role,
		BaseID:      user.BaseID,
		LastLoginAt: user.LastLoginAt,
	}
}
