package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is a procurement record tied to one base. The assets it creates
// inherit its base.
type Purchase struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber string           `gorm:"column:order_number;uniqueIndex;not null" json:"order_number"`
	BaseID      uuid.UUID        `gorm:"column:base_id;type:uuid;not null" json:"base_id"`
	Supplier    *string          `gorm:"column:supplier" json:"supplier,omitempty"`
	TotalCost   *decimal.Decimal `gorm:"column:total_cost;type:numeric(14,2)" json:"total_cost,omitempty"`
	PurchasedAt time.Time        `gorm:"column:purchased_at;not null" json:"purchased_at"`
	CreatedBy   uuid.UUID        `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	Notes       *string          `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
