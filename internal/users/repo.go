package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/pagination"
)

// ReferenceCounts are the rows that force a user into soft deletion.
type ReferenceCounts struct {
	Assignments  int64
	Purchases    int64
	Transfers    int64
	Expenditures int64
}

// Total returns the combined reference count.
func (c ReferenceCounts) Total() int64 {
	return c.Assignments + c.Purchases + c.Transfers + c.Expenditures
}

// ListFilters narrows user list queries.
type ListFilters struct {
	BaseID     *uuid.UUID
	ActiveOnly bool
}

// Repository exposes user persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	CountReferences(ctx context.Context, id uuid.UUID) (ReferenceCounts, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a user repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts a new user row.
func (r *repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads one user.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns users newest-first using cursor pagination.
func (r *repository) List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.User, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if filters.BaseID != nil {
		query = query.Where("base_id = ?", *filters.BaseID)
	}
	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var result []models.User
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Update saves the full user row.
func (r *repository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the user row.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{}).Error
}

// Deactivate flips the user to inactive.
func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// CountReferences counts the rows that reference the user.
func (r *repository) CountReferences(ctx context.Context, id uuid.UUID) (ReferenceCounts, error) {
	var counts ReferenceCounts
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Assignment{}).Where("user_id = ? OR assigned_by = ?", id, id).Count(&counts.Assignments).Error; err != nil {
		return counts, err
	}
	if err := db.Model(&models.Purchase{}).Where("created_by = ?", id).Count(&counts.Purchases).Error; err != nil {
		return counts, err
	}
	if err := db.Model(&models.Transfer{}).Where("created_by = ? OR approved_by = ?", id, id).Count(&counts.Transfers).Error; err != nil {
		return counts, err
	}
	if err := db.Model(&models.Expenditure{}).Where("expended_by = ?", id).Count(&counts.Expenditures).Error; err != nil {
		return counts, err
	}
	return counts, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}
