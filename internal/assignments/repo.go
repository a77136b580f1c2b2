package assignments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	"github.com/dmreyes/milasset-backend/pkg/pagination"
)

// ListFilters narrows assignment list queries. BaseID restricts to
// assignments whose asset currently sits at that base.
type ListFilters struct {
	BaseID   *uuid.UUID
	AssetID  *uuid.UUID
	UserID   *uuid.UUID
	OpenOnly bool
}

// Repository exposes assignment persistence. Close is conditional on the
// assignment still being open; a zero row count means it was already closed.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, assignment *models.Assignment) (*models.Assignment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	FindOpenByAsset(ctx context.Context, assetID uuid.UUID) (*models.Assignment, error)
	List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Assignment, error)
	Close(ctx context.Context, id uuid.UUID, at time.Time, condition enums.ReturnCondition, notes *string) (int64, error)
	ForceCloseOpen(ctx context.Context, assetID uuid.UUID, at time.Time, note string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an assignment repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts a new assignment row.
func (r *repository) Create(ctx context.Context, assignment *models.Assignment) (*models.Assignment, error) {
	if err := r.db.WithContext(ctx).Create(assignment).Error; err != nil {
		return nil, err
	}
	return assignment, nil
}

// FindByID loads one assignment.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).First(&assignment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindOpenByAsset returns the asset's open assignment, if any.
func (r *repository) FindOpenByAsset(ctx context.Context, assetID uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).
		Where("asset_id = ? AND returned_at IS NULL", assetID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// List returns assignments newest-first using cursor pagination. Columns are
// qualified because the base filter joins assets, which carries the same
// created_at/id pair.
func (r *repository) List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{})
	if filters.BaseID != nil {
		query = query.
			Joins("JOIN assets ON assets.id = assignments.asset_id").
			Where("assets.base_id = ?", *filters.BaseID)
	}
	if filters.AssetID != nil {
		query = query.Where("assignments.asset_id = ?", *filters.AssetID)
	}
	if filters.UserID != nil {
		query = query.Where("assignments.user_id = ?", *filters.UserID)
	}
	if filters.OpenOnly {
		query = query.Where("assignments.returned_at IS NULL")
	}
	if cursor != nil {
		query = query.Where("(assignments.created_at, assignments.id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var result []models.Assignment
	err := query.
		Order("assignments.created_at DESC, assignments.id DESC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Close records the return in a single conditional UPDATE.
func (r *repository) Close(ctx context.Context, id uuid.UUID, at time.Time, condition enums.ReturnCondition, notes *string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND returned_at IS NULL", id).
		Updates(map[string]any{
			"returned_at":      at,
			"return_condition": condition,
			"return_notes":     notes,
		})
	return result.RowsAffected, result.Error
}

// ForceCloseOpen closes the asset's open assignment, if any, with an
// auto-generated return note. Expenditure recording uses it so an asset is
// never EXPENDED and actively assigned at the same time.
func (r *repository) ForceCloseOpen(ctx context.Context, assetID uuid.UUID, at time.Time, note string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("asset_id = ? AND returned_at IS NULL", assetID).
		Updates(map[string]any{
			"returned_at":  at,
			"return_notes": note,
		})
	return result.RowsAffected, result.Error
}
