package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmreyes/milasset-backend/pkg/enums"
)

// User is an operator account. Base-scoped roles carry a home base.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string         `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Username     string         `gorm:"column:username;uniqueIndex;not null" json:"username"`
	FullName     string         `gorm:"column:full_name;not null" json:"full_name"`
	PasswordHash string         `gorm:"column:password_hash;not null" json:"-"`
	Role         enums.UserRole `gorm:"column:role;type:user_role;not null" json:"role"`
	BaseID       *uuid.UUID     `gorm:"column:base_id;type:uuid" json:"base_id,omitempty"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
