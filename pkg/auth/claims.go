package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmreyes/milasset-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
	BaseID *uuid.UUID
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients. BaseID is
// present only for base-scoped roles.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	BaseID *uuid.UUID     `json:"base_id,omitempty"`
	jwt.RegisteredClaims
}
