package expenditures

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/pagination"
)

// ListFilters narrows expenditure list queries. BaseID restricts to
// expenditures whose asset currently sits at that base.
type ListFilters struct {
	BaseID  *uuid.UUID
	AssetID *uuid.UUID
	From    *time.Time
	To      *time.Time
}

// Repository exposes expenditure persistence. Expenditures are append-only.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, expenditure *models.Expenditure) (*models.Expenditure, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Expenditure, error)
	List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Expenditure, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an expenditure repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts a new expenditure row.
func (r *repository) Create(ctx context.Context, expenditure *models.Expenditure) (*models.Expenditure, error) {
	if err := r.db.WithContext(ctx).Create(expenditure).Error; err != nil {
		return nil, err
	}
	return expenditure, nil
}

// FindByID loads one expenditure.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Expenditure, error) {
	var expenditure models.Expenditure
	if err := r.db.WithContext(ctx).First(&expenditure, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &expenditure, nil
}

// List returns expenditures newest-first using cursor pagination. Columns are
// qualified because the base filter joins assets, which carries the same
// created_at/id pair.
func (r *repository) List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Expenditure, error) {
	query := r.db.WithContext(ctx).Model(&models.Expenditure{})
	if filters.BaseID != nil {
		query = query.
			Joins("JOIN assets ON assets.id = expenditures.asset_id").
			Where("assets.base_id = ?", *filters.BaseID)
	}
	if filters.AssetID != nil {
		query = query.Where("expenditures.asset_id = ?", *filters.AssetID)
	}
	if filters.From != nil {
		query = query.Where("expenditures.expended_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("expenditures.expended_at <= ?", *filters.To)
	}
	if cursor != nil {
		query = query.Where("(expenditures.created_at, expenditures.id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var result []models.Expenditure
	err := query.
		Order("expenditures.created_at DESC, expenditures.id DESC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}
