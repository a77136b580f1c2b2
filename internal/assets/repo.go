package assets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	"github.com/dmreyes/milasset-backend/pkg/pagination"
)

// ListFilters narrows asset list queries.
type ListFilters struct {
	Status   *enums.AssetStatus
	Category *enums.AssetCategory
	BaseID   *uuid.UUID
	Serial   string
	From     *time.Time
	To       *time.Time
}

// HistoryCounts are the historical references that block hard deletion.
type HistoryCounts struct {
	Assignments   int64
	TransferItems int64
	Expenditures  int64
}

// Total returns the combined reference count.
func (h HistoryCounts) Total() int64 {
	return h.Assignments + h.TransferItems + h.Expenditures
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an asset repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts a new asset row.
func (r *repository) Create(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	if err := r.db.WithContext(ctx).Create(asset).Error; err != nil {
		return nil, err
	}
	return asset, nil
}

// FindByID loads the asset without associations.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	if err := r.db.WithContext(ctx).First(&asset, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// FindByIDs loads the given assets in one query.
func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Asset, error) {
	var result []models.Asset
	if len(ids) == 0 {
		return result, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// List returns assets newest-first using cursor pagination.
func (r *repository) List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Asset, error) {
	query := r.db.WithContext(ctx).Model(&models.Asset{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.BaseID != nil {
		query = query.Where("base_id = ?", *filters.BaseID)
	}
	if filters.Serial != "" {
		query = query.Where("serial_number LIKE ?", "%"+filters.Serial+"%")
	}
	if filters.From != nil {
		query = query.Where("created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("created_at < ?", *filters.To)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var result []models.Asset
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Update saves the full asset row.
func (r *repository) Update(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	if err := r.db.WithContext(ctx).Save(asset).Error; err != nil {
		return nil, err
	}
	return asset, nil
}

// Delete removes the asset row.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Asset{}).Error
}

// CountHistory counts every historical reference to the asset, open or not.
func (r *repository) CountHistory(ctx context.Context, id uuid.UUID) (HistoryCounts, error) {
	var counts HistoryCounts
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Assignment{}).Where("asset_id = ?", id).Count(&counts.Assignments).Error; err != nil {
		return counts, err
	}
	if err := db.Model(&models.TransferItem{}).Where("asset_id = ?", id).Count(&counts.TransferItems).Error; err != nil {
		return counts, err
	}
	if err := db.Model(&models.Expenditure{}).Where("asset_id = ?", id).Count(&counts.Expenditures).Error; err != nil {
		return counts, err
	}
	return counts, nil
}

// ClaimAvailable conditionally moves the given assets out of AVAILABLE. The
// returned count lets callers detect a concurrent claim: fewer rows than ids
// means another transaction got there first.
func (r *repository) ClaimAvailable(ctx context.Context, ids []uuid.UUID, next enums.AssetStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("id IN ? AND status = ?", ids, enums.AssetStatusAvailable).
		Updates(map[string]any{
			"status":     next,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ReleaseTo moves the given assets to the provided status and base. Used by
// transfer completion (destination base) and cancellation (source base).
func (r *repository) ReleaseTo(ctx context.Context, ids []uuid.UUID, baseID uuid.UUID, status enums.AssetStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("id IN ? AND status = ?", ids, enums.AssetStatusInTransit).
		Updates(map[string]any{
			"status":     status,
			"base_id":    baseID,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// UpdateStatus writes just the status column.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AssetStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}
