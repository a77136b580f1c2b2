package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmreyes/milasset-backend/pkg/enums"
)

// Assignment records that one asset is held by one user for a stated
// purpose. At most one row per asset may have a null ReturnedAt.
type Assignment struct {
	ID              uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AssetID         uuid.UUID              `gorm:"column:asset_id;type:uuid;not null;index" json:"asset_id"`
	UserID          uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	AssignedBy      uuid.UUID              `gorm:"column:assigned_by;type:uuid;not null" json:"assigned_by"`
	Purpose         string                 `gorm:"column:purpose;not null" json:"purpose"`
	AssignedAt      time.Time              `gorm:"column:assigned_at;not null" json:"assigned_at"`
	ReturnedAt      *time.Time             `gorm:"column:returned_at" json:"returned_at,omitempty"`
	ReturnCondition *enums.ReturnCondition `gorm:"column:return_condition;type:return_condition" json:"return_condition,omitempty"`
	ReturnNotes     *string                `gorm:"column:return_notes" json:"return_notes,omitempty"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Open reports whether the assignment has not been returned yet.
func (a Assignment) Open() bool {
	return a.ReturnedAt == nil
}
