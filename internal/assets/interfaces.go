package assets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	"github.com/dmreyes/milasset-backend/pkg/pagination"
)

// Repository exposes asset persistence. ClaimAvailable and ReleaseTo are the
// conditional bulk writes the transfer and assignment workflows use as their
// concurrency guard.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, asset *models.Asset) (*models.Asset, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Asset, error)
	List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Asset, error)
	Update(ctx context.Context, asset *models.Asset) (*models.Asset, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountHistory(ctx context.Context, id uuid.UUID) (HistoryCounts, error)
	ClaimAvailable(ctx context.Context, ids []uuid.UUID, next enums.AssetStatus) (int64, error)
	ReleaseTo(ctx context.Context, ids []uuid.UUID, baseID uuid.UUID, status enums.AssetStatus) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AssetStatus) error
}
