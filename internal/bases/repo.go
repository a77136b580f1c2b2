package bases

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/pagination"
)

// ChildCounts are the references that force a base into soft deletion.
type ChildCounts struct {
	Assets    int64
	Users     int64
	Purchases int64
	Transfers int64
}

// Total returns the combined reference count.
func (c ChildCounts) Total() int64 {
	return c.Assets + c.Users + c.Purchases + c.Transfers
}

// Repository exposes base persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, base *models.Base) (*models.Base, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Base, error)
	List(ctx context.Context, activeOnly bool, cursor *pagination.Cursor, limit int) ([]models.Base, error)
	Update(ctx context.Context, base *models.Base) (*models.Base, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	CountChildren(ctx context.Context, id uuid.UUID) (ChildCounts, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a base repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts a new base row.
func (r *repository) Create(ctx context.Context, base *models.Base) (*models.Base, error) {
	if err := r.db.WithContext(ctx).Create(base).Error; err != nil {
		return nil, err
	}
	return base, nil
}

// FindByID loads one base.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Base, error) {
	var base models.Base
	if err := r.db.WithContext(ctx).First(&base, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &base, nil
}

// List returns bases newest-first using cursor pagination.
func (r *repository) List(ctx context.Context, activeOnly bool, cursor *pagination.Cursor, limit int) ([]models.Base, error) {
	query := r.db.WithContext(ctx).Model(&models.Base{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var result []models.Base
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Update saves the full base row.
func (r *repository) Update(ctx context.Context, base *models.Base) (*models.Base, error) {
	if err := r.db.WithContext(ctx).Save(base).Error; err != nil {
		return nil, err
	}
	return base, nil
}

// Delete removes the base row.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Base{}).Error
}

// Deactivate flips the base to inactive.
func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Base{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// CountChildren counts the rows that reference the base.
func (r *repository) CountChildren(ctx context.Context, id uuid.UUID) (ChildCounts, error) {
	var counts ChildCounts
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Asset{}).Where("base_id = ?", id).Count(&counts.Assets).Error; err != nil {
		return counts, err
	}
	if err := db.Model(&models.User{}).Where("base_id = ?", id).Count(&counts.Users).Error; err != nil {
		return counts, err
	}
	if err := db.Model(&models.Purchase{}).Where("base_id = ?", id).Count(&counts.Purchases).Error; err != nil {
		return counts, err
	}
	if err := db.Model(&models.Transfer{}).Where("from_base_id = ? OR to_base_id = ?", id, id).Count(&counts.Transfers).Error; err != nil {
		return counts, err
	}
	return counts, nil
}
