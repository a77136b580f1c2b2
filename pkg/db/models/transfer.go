package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmreyes/milasset-backend/pkg/enums"
)

// Transfer moves a set of assets between bases through an approval gate.
// An asset may belong to at most one transfer whose status is not terminal.
type Transfer struct {
	ID          uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code        string               `gorm:"column:code;uniqueIndex;not null" json:"code"`
	Status      enums.TransferStatus `gorm:"column:status;type:transfer_status;not null;default:'PENDING'" json:"status"`
	FromBaseID  uuid.UUID            `gorm:"column:from_base_id;type:uuid;not null" json:"from_base_id"`
	ToBaseID    uuid.UUID            `gorm:"column:to_base_id;type:uuid;not null" json:"to_base_id"`
	CreatedBy   uuid.UUID            `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	ApprovedBy  *uuid.UUID           `gorm:"column:approved_by;type:uuid" json:"approved_by,omitempty"`
	ApprovedAt  *time.Time           `gorm:"column:approved_at" json:"approved_at,omitempty"`
	CompletedAt *time.Time           `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Notes       *string              `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TransferItem is one asset's membership in a transfer.
type TransferItem struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TransferID uuid.UUID `gorm:"column:transfer_id;type:uuid;not null;index" json:"transfer_id"`
	AssetID    uuid.UUID `gorm:"column:asset_id;type:uuid;not null;index" json:"asset_id"`
	Quantity   int       `gorm:"column:quantity;not null;default:1" json:"quantity"`
	Notes      *string   `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
