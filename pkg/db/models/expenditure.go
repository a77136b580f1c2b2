package models

import (
	"time"

	"github.com/google/uuid"
)

// Expenditure is an irreversible consumption record for an asset.
type Expenditure struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AssetID    uuid.UUID `gorm:"column:asset_id;type:uuid;not null;index" json:"asset_id"`
	Quantity   int       `gorm:"column:quantity;not null;default:1" json:"quantity"`
	Reason     string    `gorm:"column:reason;not null" json:"reason"`
	ExpendedBy uuid.UUID `gorm:"column:expended_by;type:uuid;not null" json:"expended_by"`
	ExpendedAt time.Time `gorm:"column:expended_at;not null" json:"expended_at"`
	Notes      *string   `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
