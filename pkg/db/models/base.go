package models

import (
	"time"

	"github.com/google/uuid"
)

// Base represents a physical installation owning assets and personnel.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string    `gorm:"column:code;uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Location  *string   `gorm:"column:location" json:"location,omitempty"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
