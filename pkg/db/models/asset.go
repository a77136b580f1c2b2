package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmreyes/milasset-backend/pkg/enums"
)

// Asset is one tracked unit of equipment or consumable. Status moves only
// through the lifecycle rules; EXPENDED and DECOMMISSIONED are terminal.
type Asset struct {
	ID            uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SerialNumber  string              `gorm:"column:serial_number;uniqueIndex;not null" json:"serial_number"`
	Name          string              `gorm:"column:name;not null" json:"name"`
	Category      enums.AssetCategory `gorm:"column:category;type:asset_category;not null" json:"category"`
	Status        enums.AssetStatus   `gorm:"column:status;type:asset_status;not null;default:'AVAILABLE'" json:"status"`
	BaseID        uuid.UUID           `gorm:"column:base_id;type:uuid;not null" json:"base_id"`
	PurchaseID    *uuid.UUID          `gorm:"column:purchase_id;type:uuid" json:"purchase_id,omitempty"`
	Value         *decimal.Decimal    `gorm:"column:value;type:numeric(14,2)" json:"value,omitempty"`
	AcquiredAt    *time.Time          `gorm:"column:acquired_at" json:"acquired_at,omitempty"`
	WarrantyUntil *time.Time          `gorm:"column:warranty_until" json:"warranty_until,omitempty"`
	Notes         *string             `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
