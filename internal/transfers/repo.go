package transfers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	"github.com/dmreyes/milasset-backend/pkg/pagination"
)

// ListFilters narrows transfer list queries. BaseID matches either end.
type ListFilters struct {
	Status     *enums.TransferStatus
	FromBaseID *uuid.UUID
	ToBaseID   *uuid.UUID
	BaseID     *uuid.UUID
}

// Repository exposes transfer persistence. TransitionStatus is the
// conditional UPDATE the workflow uses as its concurrency guard.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, transfer *models.Transfer, items []models.TransferItem) (*models.Transfer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transfer, error)
	FindByCode(ctx context.Context, code string) (*models.Transfer, error)
	ListItems(ctx context.Context, transferID uuid.UUID) ([]models.TransferItem, error)
	List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Transfer, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.TransferStatus, updates map[string]any) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a transfer repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the transfer and its items.
func (r *repository) Create(ctx context.Context, transfer *models.Transfer, items []models.TransferItem) (*models.Transfer, error) {
	db := r.db.WithContext(ctx)
	if err := db.Create(transfer).Error; err != nil {
		return nil, err
	}
	for i := range items {
		items[i].TransferID = transfer.ID
	}
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			return nil, err
		}
	}
	return transfer, nil
}

// FindByID loads one transfer.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transfer, error) {
	var transfer models.Transfer
	if err := r.db.WithContext(ctx).First(&transfer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

// FindByCode loads one transfer by its human-facing code.
func (r *repository) FindByCode(ctx context.Context, code string) (*models.Transfer, error) {
	var transfer models.Transfer
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&transfer).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

// ListItems returns the member rows of a transfer.
func (r *repository) ListItems(ctx context.Context, transferID uuid.UUID) ([]models.TransferItem, error) {
	var items []models.TransferItem
	err := r.db.WithContext(ctx).
		Where("transfer_id = ?", transferID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// List returns transfers newest-first using cursor pagination.
func (r *repository) List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Transfer, error) {
	query := r.db.WithContext(ctx).Model(&models.Transfer{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.FromBaseID != nil {
		query = query.Where("from_base_id = ?", *filters.FromBaseID)
	}
	if filters.ToBaseID != nil {
		query = query.Where("to_base_id = ?", *filters.ToBaseID)
	}
	if filters.BaseID != nil {
		query = query.Where("from_base_id = ? OR to_base_id = ?", *filters.BaseID, *filters.BaseID)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var result []models.Transfer
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TransitionStatus moves the transfer from one status to another in a single
// conditional UPDATE. A zero row count means another writer got there first.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.TransferStatus, updates map[string]any) (int64, error) {
	values := map[string]any{"status": to}
	for key, value := range updates {
		values[key] = value
	}
	result := r.db.WithContext(ctx).
		Model(&models.Transfer{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	return result.RowsAffected, result.Error
}
