package dashboard

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/enums"
)

func setupDashboardTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS assets (
  id TEXT PRIMARY KEY,
  serial_number TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'AVAILABLE',
  base_id TEXT NOT NULL,
  purchase_id TEXT,
  value NUMERIC,
  acquired_at DATETIME,
  warranty_until DATETIME,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS purchases (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  base_id TEXT NOT NULL,
  supplier TEXT,
  total_cost NUMERIC,
  purchased_at DATETIME NOT NULL,
  created_by TEXT NOT NULL,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS transfers (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'PENDING',
  from_base_id TEXT NOT NULL,
  to_base_id TEXT NOT NULL,
  created_by TEXT NOT NULL,
  approved_by TEXT,
  approved_at DATETIME,
  completed_at DATETIME,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS transfer_items (
  id TEXT PRIMARY KEY,
  transfer_id TEXT NOT NULL,
  asset_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  notes TEXT,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS assignments (
  id TEXT PRIMARY KEY,
  asset_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  assigned_by TEXT NOT NULL,
  purpose TEXT NOT NULL,
  assigned_at DATETIME NOT NULL,
  returned_at DATETIME,
  return_condition TEXT,
  return_notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedAsset(t *testing.T, db *gorm.DB, baseID uuid.UUID, serial string, category enums.AssetCategory, status enums.AssetStatus, purchaseID *uuid.UUID) models.Asset {
	t.Helper()
	asset := models.Asset{
		ID:           uuid.New(),
		SerialNumber: serial,
		Name:         "asset " + serial,
		Category:     category,
		Status:       status,
		BaseID:       baseID,
		PurchaseID:   purchaseID,
	}
	require.NoError(t, db.Create(&asset).Error)
	return asset
}

func seedCompletedTransfer(t *testing.T, db *gorm.DB, from, to uuid.UUID, completedAt time.Time, itemCount int) models.Transfer {
	t.Helper()
	transfer := models.Transfer{
		ID:          uuid.New(),
		Code:        "TR-" + uuid.NewString()[:8],
		Status:      enums.TransferStatusCompleted,
		FromBaseID:  from,
		ToBaseID:    to,
		CreatedBy:   uuid.New(),
		CompletedAt: &completedAt,
	}
	require.NoError(t, db.Create(&transfer).Error)
	for i := 0; i < itemCount; i++ {
		require.NoError(t, db.Create(&models.TransferItem{
			ID:         uuid.New(),
			TransferID: transfer.ID,
			AssetID:    uuid.New(),
			Quantity:   1,
		}).Error)
	}
	return transfer
}

func TestRepoCountAssetsByStatusAndCategory(t *testing.T) {
	db := setupDashboardTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := uuid.New()
	other := uuid.New()
	seedAsset(t, db, base, "A-1", enums.AssetCategoryWeapon, enums.AssetStatusAvailable, nil)
	seedAsset(t, db, base, "A-2", enums.AssetCategoryWeapon, enums.AssetStatusAssigned, nil)
	seedAsset(t, db, base, "A-3", enums.AssetCategoryVehicle, enums.AssetStatusAvailable, nil)
	seedAsset(t, db, other, "B-1", enums.AssetCategoryMedical, enums.AssetStatusAvailable, nil)

	byStatus, err := repo.CountAssetsByStatus(ctx, &base)
	require.NoError(t, err)
	statusCounts := map[enums.AssetStatus]int64{}
	for _, row := range byStatus {
		statusCounts[row.Status] = row.Count
	}
	assert.Equal(t, int64(2), statusCounts[enums.AssetStatusAvailable])
	assert.Equal(t, int64(1), statusCounts[enums.AssetStatusAssigned])

	byCategory, err := repo.CountAssetsByCategory(ctx, nil)
	require.NoError(t, err)
	categoryCounts := map[enums.AssetCategory]int64{}
	for _, row := range byCategory {
		categoryCounts[row.Category] = row.Count
	}
	assert.Equal(t, int64(2), categoryCounts[enums.AssetCategoryWeapon])
	assert.Equal(t, int64(1), categoryCounts[enums.AssetCategoryMedical])
}

func TestRepoNetMovementCounts(t *testing.T) {
	db := setupDashboardTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := uuid.New()
	other := uuid.New()
	now := time.Now().UTC()
	from := now.Add(-24 * time.Hour)
	to := now.Add(time.Hour)

	purchase := models.Purchase{
		ID:          uuid.New(),
		OrderNumber: "PO-1001",
		BaseID:      base,
		PurchasedAt: now.Add(-2 * time.Hour),
		CreatedBy:   uuid.New(),
	}
	require.NoError(t, db.Create(&purchase).Error)
	seedAsset(t, db, base, "P-1", enums.AssetCategorySupply, enums.AssetStatusAvailable, &purchase.ID)
	seedAsset(t, db, base, "P-2", enums.AssetCategorySupply, enums.AssetStatusAvailable, &purchase.ID)

	seedCompletedTransfer(t, db, other, base, now.Add(-3*time.Hour), 3)
	seedCompletedTransfer(t, db, base, other, now.Add(-time.Hour), 1)
	// outside the window
	seedCompletedTransfer(t, db, other, base, now.Add(-48*time.Hour), 5)

	purchased, err := repo.CountPurchasedAssets(ctx, base, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purchased)

	in, err := repo.CountTransferredIn(ctx, base, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(3), in)

	out, err := repo.CountTransferredOut(ctx, base, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out)
}

func TestRepoRecentTransfersFiltersBase(t *testing.T) {
	db := setupDashboardTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := uuid.New()
	other := uuid.New()
	elsewhere := uuid.New()
	now := time.Now().UTC()
	seedCompletedTransfer(t, db, base, other, now, 1)
	seedCompletedTransfer(t, db, other, base, now, 1)
	seedCompletedTransfer(t, db, other, elsewhere, now, 1)

	rows, err := repo.RecentTransfers(ctx, &base, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = repo.RecentTransfers(ctx, nil, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
