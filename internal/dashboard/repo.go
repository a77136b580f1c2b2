package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/enums"
)

// StatusCount is one slice of the asset status breakdown.
type StatusCount struct {
	Status enums.AssetStatus `json:"status"`
	Count  int64             `json:"count"`
}

// CategoryCount is one slice of the asset category breakdown.
type CategoryCount struct {
	Category enums.AssetCategory `json:"category"`
	Count    int64               `json:"count"`
}

// BaseCount is one slice of the per-base asset breakdown.
type BaseCount struct {
	BaseID uuid.UUID `json:"base_id"`
	Count  int64     `json:"count"`
}

// Repository runs the read-only aggregate queries behind the dashboard.
type Repository interface {
	CountAssetsByStatus(ctx context.Context, baseID *uuid.UUID) ([]StatusCount, error)
	CountAssetsByCategory(ctx context.Context, baseID *uuid.UUID) ([]CategoryCount, error)
	CountAssetsByBase(ctx context.Context) ([]BaseCount, error)
	CountPurchasedAssets(ctx context.Context, baseID uuid.UUID, from, to time.Time) (int64, error)
	CountTransferredIn(ctx context.Context, baseID uuid.UUID, from, to time.Time) (int64, error)
	CountTransferredOut(ctx context.Context, baseID uuid.UUID, from, to time.Time) (int64, error)
	RecentTransfers(ctx context.Context, baseID *uuid.UUID, limit int) ([]models.Transfer, error)
	RecentAssignments(ctx context.Context, baseID *uuid.UUID, limit int) ([]models.Assignment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a dashboard repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CountAssetsByStatus groups live asset rows by status.
func (r *repository) CountAssetsByStatus(ctx context.Context, baseID *uuid.UUID) ([]StatusCount, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Asset{}).
		Select("status, COUNT(*) AS count").
		Group("status")
	if baseID != nil {
		query = query.Where("base_id = ?", *baseID)
	}

	var rows []StatusCount
	if err := query.Order("status ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountAssetsByCategory groups live asset rows by category.
func (r *repository) CountAssetsByCategory(ctx context.Context, baseID *uuid.UUID) ([]CategoryCount, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Asset{}).
		Select("category, COUNT(*) AS count").
		Group("category")
	if baseID != nil {
		query = query.Where("base_id = ?", *baseID)
	}

	var rows []CategoryCount
	if err := query.Order("category ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountAssetsByBase groups live asset rows by owning base.
func (r *repository) CountAssetsByBase(ctx context.Context) ([]BaseCount, error) {
	var rows []BaseCount
	err := r.db.WithContext(ctx).
		Model(&models.Asset{}).
		Select("base_id, COUNT(*) AS count").
		Group("base_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountPurchasedAssets counts assets created by the base's purchases within
// the window.
func (r *repository) CountPurchasedAssets(ctx context.Context, baseID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Asset{}).
		Joins("JOIN purchases ON purchases.id = assets.purchase_id").
		Where("purchases.base_id = ?", baseID).
		Where("purchases.purchased_at >= ? AND purchases.purchased_at <= ?", from, to).
		Count(&count).Error
	return count, err
}

// CountTransferredIn counts items of COMPLETED transfers into the base
// within the window.
func (r *repository) CountTransferredIn(ctx context.Context, baseID uuid.UUID, from, to time.Time) (int64, error) {
	return r.countTransferItems(ctx, "transfers.to_base_id = ?", baseID, from, to)
}

// CountTransferredOut counts items of COMPLETED transfers out of the base
// within the window.
func (r *repository) CountTransferredOut(ctx context.Context, baseID uuid.UUID, from, to time.Time) (int64, error) {
	return r.countTransferItems(ctx, "transfers.from_base_id = ?", baseID, from, to)
}

func (r *repository) countTransferItems(ctx context.Context, baseClause string, baseID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TransferItem{}).
		Joins("JOIN transfers ON transfers.id = transfer_items.transfer_id").
		Where("transfers.status = ?", enums.TransferStatusCompleted).
		Where(baseClause, baseID).
		Where("transfers.completed_at >= ? AND transfers.completed_at <= ?", from, to).
		Count(&count).Error
	return count, err
}

// RecentTransfers returns the latest transfers touching the base.
func (r *repository) RecentTransfers(ctx context.Context, baseID *uuid.UUID, limit int) ([]models.Transfer, error) {
	query := r.db.WithContext(ctx).Model(&models.Transfer{})
	if baseID != nil {
		query = query.Where("from_base_id = ? OR to_base_id = ?", *baseID, *baseID)
	}

	var rows []models.Transfer
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// RecentAssignments returns the latest assignments of assets at the base.
func (r *repository) RecentAssignments(ctx context.Context, baseID *uuid.UUID, limit int) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{})
	if baseID != nil {
		query = query.
			Joins("JOIN assets ON assets.id = assignments.asset_id").
			Where("assets.base_id = ?", *baseID)
	}

	var rows []models.Assignment
	err := query.
		Order("assignments.created_at DESC, assignments.id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
