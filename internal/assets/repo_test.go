package assets

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

func setupAssetsTestDB(t *testing.T) *gorm.DB {
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
);`, `
CREATE TABLE IF NOT EXISTS transfer_items (
  id TEXT PRIMARY KEY,
  transfer_id TEXT NOT NULL,
  asset_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  notes TEXT,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS expenditures (
  id TEXT PRIMARY KEY,
  asset_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  reason TEXT NOT NULL,
  expended_by TEXT NOT NULL,
  expended_at DATETIME NOT NULL,
  notes TEXT,
  created_at DATETIME
);`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedAsset(t *testing.T, db *gorm.DB, baseID uuid.UUID, serial string, status enums.AssetStatus, createdAt time.Time) models.Asset {
	t.Helper()
	asset := models.Asset{
		ID:           uuid.New(),
		SerialNumber: serial,
		Name:         "asset " + serial,
		Category:     enums.AssetCategoryWeapon,
		Status:       status,
		BaseID:       baseID,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	require.NoError(t, db.Create(&asset).Error)
	return asset
}

func TestRepoListFilters(t *testing.T) {
	db := setupAssetsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	baseA := uuid.New()
	baseB := uuid.New()
	now := time.Now().UTC()

	seedAsset(t, db, baseA, "A-1", enums.AssetStatusAvailable, now.Add(-3*time.Minute))
	seedAsset(t, db, baseA, "A-2", enums.AssetStatusInTransit, now.Add(-2*time.Minute))
	seedAsset(t, db, baseB, "B-1", enums.AssetStatusAvailable, now.Add(-time.Minute))

	available := enums.AssetStatusAvailable
	rows, err := repo.List(ctx, ListFilters{Status: &available}, nil, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = repo.List(ctx, ListFilters{BaseID: &baseA}, nil, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = repo.List(ctx, ListFilters{Serial: "B-"}, nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "B-1", rows[0].SerialNumber)
}

func TestRepoClaimAvailableGuardsConcurrentClaims(t *testing.T) {
	db := setupAssetsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := uuid.New()
	now := time.Now().UTC()
	a := seedAsset(t, db, base, "C-1", enums.AssetStatusAvailable, now)
	b := seedAsset(t, db, base, "C-2", enums.AssetStatusAvailable, now)

	claimed, err := repo.ClaimAvailable(ctx, []uuid.UUID{a.ID, b.ID}, enums.AssetStatusInTransit)
	require.NoError(t, err)
	assert.Equal(t, int64(2), claimed)

	// second claim sees no AVAILABLE rows
	claimed, err = repo.ClaimAvailable(ctx, []uuid.UUID{a.ID, b.ID}, enums.AssetStatusInTransit)
	require.NoError(t, err)
	assert.Equal(t, int64(0), claimed)

	reloaded, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AssetStatusInTransit, reloaded.Status)
}

func TestRepoReleaseToMovesBase(t *testing.T) {
	db := setupAssetsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	source := uuid.New()
	destination := uuid.New()
	asset := seedAsset(t, db, source, "D-1", enums.AssetStatusInTransit, time.Now().UTC())

	released, err := repo.ReleaseTo(ctx, []uuid.UUID{asset.ID}, destination, enums.AssetStatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)

	reloaded, err := repo.FindByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, destination, reloaded.BaseID)
	assert.Equal(t, enums.AssetStatusAvailable, reloaded.Status)
}

func TestRepoCountHistory(t *testing.T) {
	db := setupAssetsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := uuid.New()
	asset := seedAsset(t, db, base, "E-1", enums.AssetStatusAvailable, time.Now().UTC())

	counts, err := repo.CountHistory(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Total())

	require.NoError(t, db.Create(&models.Assignment{
		ID:         uuid.New(),
		AssetID:    asset.ID,
		UserID:     uuid.New(),
		AssignedBy: uuid.New(),
		Purpose:    "training",
		AssignedAt: time.Now().UTC(),
	}).Error)
	require.NoError(t, db.Create(&models.Expenditure{
		ID:         uuid.New(),
		AssetID:    asset.ID,
		Quantity:   1,
		Reason:     "exercise",
		ExpendedBy: uuid.New(),
		ExpendedAt: time.Now().UTC(),
	}).Error)

	counts, err = repo.CountHistory(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Assignments)
	assert.Equal(t, int64(1), counts.Expenditures)
	assert.Equal(t, int64(2), counts.Total())
}
