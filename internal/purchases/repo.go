package purchases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/pagination"
)

// ListFilters narrows purchase list queries.
type ListFilters struct {
	BaseID *uuid.UUID
	From   *time.Time
	To     *time.Time
}

// Repository exposes purchase persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, purchase *models.Purchase) (*models.Purchase, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Purchase, error)
	Update(ctx context.Context, purchase *models.Purchase) (*models.Purchase, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchase repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts a new purchase row.
func (r *repository) Create(ctx context.Context, purchase *models.Purchase) (*models.Purchase, error) {
	if err := r.db.WithContext(ctx).Create(purchase).Error; err != nil {
		return nil, err
	}
	return purchase, nil
}

// FindByID loads one purchase.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// List returns purchases newest-first using cursor pagination.
func (r *repository) List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Purchase, error) {
	query := r.db.WithContext(ctx).Model(&models.Purchase{})
	if filters.BaseID != nil {
		query = query.Where("base_id = ?", *filters.BaseID)
	}
	if filters.From != nil {
		query = query.Where("purchased_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("purchased_at <= ?", *filters.To)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var result []models.Purchase
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Update saves the full purchase row.
func (r *repository) Update(ctx context.Context, purchase *models.Purchase) (*models.Purchase, error) {
	if err := r.db.WithContext(ctx).Save(purchase).Error; err != nil {
		return nil, err
	}
	return purchase, nil
}
