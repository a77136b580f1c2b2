package assets

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmreyes/milasset-backend/internal/scope"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	"github.com/dmreyes/milasset-backend/pkg/pagination"
)

// CreateAssetInput registers a new asset directly (outside a purchase).
type CreateAssetInput struct {
	Actor         scope.Actor
	SerialNumber  string
	Name          string
	Category      enums.AssetCategory
	BaseID        uuid.UUID
	Value         *decimal.Decimal
	AcquiredAt    *time.Time
	WarrantyUntil *time.Time
	Notes         *string
}

// UpdateAssetInput edits mutable fields. Status changes go through the
// manual-change rules; nil fields are left untouched.
type UpdateAssetInput struct {
	Actor         scope.Actor
	AssetID       uuid.UUID
	Name          *string
	Status        *enums.AssetStatus
	Value         *decimal.Decimal
	AcquiredAt    *time.Time
	WarrantyUntil *time.Time
	Notes         *string
}

// ListAssetsInput carries the browse filters.
type ListAssetsInput struct {
	Actor      scope.Actor
	Status     *enums.AssetStatus
	Category   *enums.AssetCategory
	BaseID     *uuid.UUID
	Serial     string
	From       *time.Time
	To         *time.Time
	Pagination pagination.Params
}
