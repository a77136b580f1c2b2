package transfers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmreyes/milasset-backend/internal/assets"
	"github.com/dmreyes/milasset-backend/internal/audit"
	"github.com/dmreyes/milasset-backend/internal/scope"
	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/milasset-backend/pkg/errors"
	"github.com/dmreyes/milasset-backend/pkg/pagination"
)

type stubRepo struct {
	transfers   map[uuid.UUID]*models.Transfer
	items       map[uuid.UUID][]models.TransferItem
	lastFilters ListFilters
	lastUpdates map[string]any
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		transfers: make(map[uuid.UUID]*models.Transfer),
		items:     make(map[uuid.UUID][]models.TransferItem),
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, transfer *models.Transfer, items []models.TransferItem) (*models.Transfer, error) {
	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}
	copied := *transfer
	s.transfers[transfer.ID] = &copied
	for i := range items {
		items[i].TransferID = transfer.ID
	}
	s.items[transfer.ID] = append([]models.TransferItem(nil), items...)
	return transfer, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Transfer, error) {
	transfer, ok := s.transfers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *transfer
	return &copied, nil
}

func (s *stubRepo) FindByCode(ctx context.Context, code string) (*models.Transfer, error) {
	for _, transfer := range s.transfers {
		if transfer.Code == code {
			copied := *transfer
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) ListItems(ctx context.Context, transferID uuid.UUID) ([]models.TransferItem, error) {
	return append([]models.TransferItem(nil), s.items[transferID]...), nil
}

func (s *stubRepo) List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Transfer, error) {
	s.lastFilters = filters
	var out []models.Transfer
	for _, transfer := range s.transfers {
		out = append(out, *transfer)
	}
	return out, nil
}

func (s *stubRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.TransferStatus, updates map[string]any) (int64, error) {
	transfer, ok := s.transfers[id]
	if !ok || transfer.Status != from {
		return 0, nil
	}
	transfer.Status = to
	if notes, ok := updates["notes"].(string); ok {
		transfer.Notes = &notes
	}
	s.lastUpdates = updates
	return 1, nil
}

// stubAssetRepo keeps real claim/release semantics so the workflow's
// concurrency guard is exercised.
type stubAssetRepo struct {
	assets map[uuid.UUID]*models.Asset
}

func newStubAssetRepo() *stubAssetRepo {
	return &stubAssetRepo{assets: make(map[uuid.UUID]*models.Asset)}
}

func (s *stubAssetRepo) WithTx(tx *gorm.DB) assets.Repository { return s }

func (s *stubAssetRepo) Create(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	copied := *asset
	s.assets[asset.ID] = &copied
	return asset, nil
}

func (s *stubAssetRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	asset, ok := s.assets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *asset
	return &copied, nil
}

func (s *stubAssetRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Asset, error) {
	var out []models.Asset
	for _, id := range ids {
		if asset, ok := s.assets[id]; ok {
			out = append(out, *asset)
		}
	}
	return out, nil
}

func (s *stubAssetRepo) List(ctx context.Context, filters assets.ListFilters, cursor *pagination.Cursor, limit int) ([]models.Asset, error) {
	return nil, nil
}

func (s *stubAssetRepo) Update(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	copied := *asset
	s.assets[asset.ID] = &copied
	return asset, nil
}

func (s *stubAssetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.assets, id)
	return nil
}

func (s *stubAssetRepo) CountHistory(ctx context.Context, id uuid.UUID) (assets.HistoryCounts, error) {
	return assets.HistoryCounts{}, nil
}

func (s *stubAssetRepo) ClaimAvailable(ctx context.Context, ids []uuid.UUID, next enums.AssetStatus) (int64, error) {
	var claimed int64
	for _, id := range ids {
		asset, ok := s.assets[id]
		if !ok || asset.Status != enums.AssetStatusAvailable {
			continue
		}
		asset.Status = next
		claimed++
	}
	return claimed, nil
}

func (s *stubAssetRepo) ReleaseTo(ctx context.Context, ids []uuid.UUID, baseID uuid.UUID, status enums.AssetStatus) (int64, error) {
	var released int64
	for _, id := range ids {
		asset, ok := s.assets[id]
		if !ok || asset.Status != enums.AssetStatusInTransit {
			continue
		}
		asset.Status = status
		asset.BaseID = baseID
		released++
	}
	return released, nil
}

func (s *stubAssetRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AssetStatus) error {
	if asset, ok := s.assets[id]; ok {
		asset.Status = status
	}
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubBases struct {
	bases map[uuid.UUID]*models.Base
}

func (s *stubBases) FindByID(ctx context.Context, id uuid.UUID) (*models.Base, error) {
	base, ok := s.bases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return base, nil
}

type stubRecorder struct {
	entries []audit.Entry
}

func (s *stubRecorder) Record(ctx context.Context, entry audit.Entry) {
	s.entries = append(s.entries, entry)
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

type fixture struct {
	svc       *Service
	repo      *stubRepo
	assetRepo *stubAssetRepo
	recorder  *stubRecorder
	source    *models.Base
	dest      *models.Base
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newStubRepo()
	assetRepo := newStubAssetRepo()
	recorder := &stubRecorder{}
	source := &models.Base{ID: uuid.New(), Code: "SRC", Name: "Fort Source", IsActive: true}
	dest := &models.Base{ID: uuid.New(), Code: "DST", Name: "Fort Destination", IsActive: true}
	bases := &stubBases{bases: map[uuid.UUID]*models.Base{source.ID: source, dest.ID: dest}}
	svc, err := NewService(repo, assetRepo, stubTx{}, bases, recorder)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, repo: repo, assetRepo: assetRepo, recorder: recorder, source: source, dest: dest}
}

func (f *fixture) seedAsset(t *testing.T, serial string, baseID uuid.UUID, status enums.AssetStatus) *models.Asset {
	t.Helper()
	asset := &models.Asset{
		ID:           uuid.New(),
		SerialNumber: serial,
		Name:         "Field Radio",
		Category:     enums.AssetCategoryCommunication,
		Status:       status,
		BaseID:       baseID,
	}
	f.assetRepo.assets[asset.ID] = asset
	return asset
}

func admin() scope.Actor {
	return scope.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
}

func commanderAt(baseID uuid.UUID) scope.Actor {
	return scope.Actor{UserID: uuid.New(), Role: enums.UserRoleBaseCommander, BaseID: &baseID}
}

func TestCreateTransferClaimsAssetsInTransit(t *testing.T) {
	f := newFixture(t)
	a := f.seedAsset(t, "CM-1", f.source.ID, enums.AssetStatusAvailable)
	b := f.seedAsset(t, "CM-2", f.source.ID, enums.AssetStatusAvailable)
	officer := scope.Actor{UserID: uuid.New(), Role: enums.UserRoleLogisticsOfficer, BaseID: &f.source.ID}

	detail, err := f.svc.Create(context.Background(), CreateTransferInput{
		Actor:      officer,
		FromBaseID: f.source.ID,
		ToBaseID:   f.dest.ID,
		AssetIDs:   []uuid.UUID{a.ID, b.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if detail.Transfer.Status != enums.TransferStatusPending {
		t.Fatalf("new transfer should be PENDING, got %s", detail.Transfer.Status)
	}
	if len(detail.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(detail.Items))
	}
	if f.assetRepo.assets[a.ID].Status != enums.AssetStatusInTransit {
		t.Fatal("member assets should be claimed IN_TRANSIT")
	}
	if detail.Transfer.Code == "" {
		t.Fatal("transfer should carry a code")
	}
	if len(f.recorder.entries) != 1 || f.recorder.entries[0].Action != enums.AuditActionCreate {
		t.Fatalf("expected one create audit entry, got %+v", f.recorder.entries)
	}
}

func TestCreateTransferSameBaseRejected(t *testing.T) {
	f := newFixture(t)
	a := f.seedAsset(t, "CM-1", f.source.ID, enums.AssetStatusAvailable)

	_, err := f.svc.Create(context.Background(), CreateTransferInput{
		Actor:      admin(),
		FromBaseID: f.source.ID,
		ToBaseID:   f.source.ID,
		AssetIDs:   []uuid.UUID{a.ID},
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateTransferUnavailableAssetConflicts(t *testing.T) {
	f := newFixture(t)
	a := f.seedAsset(t, "CM-1", f.source.ID, enums.AssetStatusMaintenance)

	_, err := f.svc.Create(context.Background(), CreateTransferInput{
		Actor:      admin(),
		FromBaseID: f.source.ID,
		ToBaseID:   f.dest.ID,
		AssetIDs:   []uuid.UUID{a.ID},
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCreateTransferForeignAssetConflicts(t *testing.T) {
	f := newFixture(t)
	a := f.seedAsset(t, "CM-1", f.dest.ID, enums.AssetStatusAvailable)

	_, err := f.svc.Create(context.Background(), CreateTransferInput{
		Actor:      admin(),
		FromBaseID: f.source.ID,
		ToBaseID:   f.dest.ID,
		AssetIDs:   []uuid.UUID{a.ID},
	})
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestApproveRequiresDestinationAuthority(t *testing.T) {
	f := newFixture(t)
	a := f.seedAsset(t, "CM-1", f.source.ID, enums.AssetStatusAvailable)
	detail, err := f.svc.Create(context.Background(), CreateTransferInput{
		Actor:      admin(),
		FromBaseID: f.source.ID,
		ToBaseID:   f.dest.ID,
		AssetIDs:   []uuid.UUID{a.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.Approve(context.Background(), commanderAt(f.source.ID), detail.Transfer.ID)
	expectCode(t, err, pkgerrors.CodeForbidden)

	approved, err := f.svc.Approve(context.Background(), commanderAt(f.dest.ID), detail.Transfer.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != enums.TransferStatusApproved {
		t.Fatalf("expected APPROVED, got %s", approved.Status)
	}

	// Approving twice hits the conditional update guard.
	_, err = f.svc.Approve(context.Background(), commanderAt(f.dest.ID), detail.Transfer.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCompleteMovesAssetsToDestination(t *testing.T) {
	f := newFixture(t)
	a := f.seedAsset(t, "CM-1", f.source.ID, enums.AssetStatusAvailable)
	detail, err := f.svc.Create(context.Background(), CreateTransferInput{
		Actor:      admin(),
		FromBaseID: f.source.ID,
		ToBaseID:   f.dest.ID,
		AssetIDs:   []uuid.UUID{a.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Completing before approval is rejected.
	_, err = f.svc.Complete(context.Background(), commanderAt(f.dest.ID), detail.Transfer.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)

	if _, err := f.svc.Approve(context.Background(), commanderAt(f.dest.ID), detail.Transfer.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	completed, err := f.svc.Complete(context.Background(), commanderAt(f.dest.ID), detail.Transfer.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != enums.TransferStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", completed.Status)
	}

	moved := f.assetRepo.assets[a.ID]
	if moved.BaseID != f.dest.ID || moved.Status != enums.AssetStatusAvailable {
		t.Fatalf("asset should be AVAILABLE at the destination, got %s at %s", moved.Status, moved.BaseID)
	}
}

func TestCancelReturnsAssetsToSource(t *testing.T) {
	f := newFixture(t)
	a := f.seedAsset(t, "CM-1", f.source.ID, enums.AssetStatusAvailable)
	detail, err := f.svc.Create(context.Background(), CreateTransferInput{
		Actor:      admin(),
		FromBaseID: f.source.ID,
		ToBaseID:   f.dest.ID,
		AssetIDs:   []uuid.UUID{a.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Approve(context.Background(), commanderAt(f.dest.ID), detail.Transfer.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	cancelled, err := f.svc.Cancel(context.Background(), commanderAt(f.source.ID), detail.Transfer.ID, "convoy route closed")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.TransferStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}

	reverted := f.assetRepo.assets[a.ID]
	if reverted.BaseID != f.source.ID || reverted.Status != enums.AssetStatusAvailable {
		t.Fatalf("asset should be AVAILABLE back at the source, got %s at %s", reverted.Status, reverted.BaseID)
	}

	// Terminal transfers never move again.
	_, err = f.svc.Cancel(context.Background(), commanderAt(f.source.ID), detail.Transfer.ID, "second attempt")
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCancelAppendsReasonToNotes(t *testing.T) {
	f := newFixture(t)
	a := f.seedAsset(t, "CM-1", f.source.ID, enums.AssetStatusAvailable)
	notes := "priority resupply"
	detail, err := f.svc.Create(context.Background(), CreateTransferInput{
		Actor:      admin(),
		FromBaseID: f.source.ID,
		ToBaseID:   f.dest.ID,
		AssetIDs:   []uuid.UUID{a.ID},
		Notes:      &notes,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.Cancel(context.Background(), commanderAt(f.source.ID), detail.Transfer.ID, "  ")
	expectCode(t, err, pkgerrors.CodeValidation)

	cancelled, err := f.svc.Cancel(context.Background(), commanderAt(f.source.ID), detail.Transfer.ID, "convoy route closed")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	want := "priority resupply\ncancelled: convoy route closed"
	if cancelled.Notes == nil || *cancelled.Notes != want {
		t.Fatalf("expected notes %q, got %v", want, cancelled.Notes)
	}
	// The notes ride the same conditional UPDATE as the status change.
	if got, ok := f.repo.lastUpdates["notes"].(string); !ok || got != want {
		t.Fatalf("status update should carry the appended notes, got %v", f.repo.lastUpdates)
	}

	stored, err := f.repo.FindByID(context.Background(), detail.Transfer.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Notes == nil || *stored.Notes != want {
		t.Fatalf("stored notes should carry the reason, got %v", stored.Notes)
	}
}

func TestTransitionAuditsCarryBeforeState(t *testing.T) {
	f := newFixture(t)
	a := f.seedAsset(t, "CM-1", f.source.ID, enums.AssetStatusAvailable)
	detail, err := f.svc.Create(context.Background(), CreateTransferInput{
		Actor:      admin(),
		FromBaseID: f.source.ID,
		ToBaseID:   f.dest.ID,
		AssetIDs:   []uuid.UUID{a.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Approve(context.Background(), commanderAt(f.dest.ID), detail.Transfer.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := f.svc.Complete(context.Background(), commanderAt(f.dest.ID), detail.Transfer.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if len(f.recorder.entries) != 3 {
		t.Fatalf("expected 3 audit entries, got %d", len(f.recorder.entries))
	}
	approveBefore, ok := f.recorder.entries[1].Before.(*models.Transfer)
	if !ok || approveBefore == nil {
		t.Fatalf("approve audit should snapshot the prior row, got %v", f.recorder.entries[1].Before)
	}
	if approveBefore.Status != enums.TransferStatusPending {
		t.Fatalf("approve snapshot should be PENDING, got %s", approveBefore.Status)
	}
	completeBefore, ok := f.recorder.entries[2].Before.(*models.Transfer)
	if !ok || completeBefore == nil {
		t.Fatalf("complete audit should snapshot the prior row, got %v", f.recorder.entries[2].Before)
	}
	if completeBefore.Status != enums.TransferStatusApproved {
		t.Fatalf("complete snapshot should be APPROVED, got %s", completeBefore.Status)
	}
}

func TestGetTransferVisibleFromEitherEnd(t *testing.T) {
	f := newFixture(t)
	a := f.seedAsset(t, "CM-1", f.source.ID, enums.AssetStatusAvailable)
	detail, err := f.svc.Create(context.Background(), CreateTransferInput{
		Actor:      admin(),
		FromBaseID: f.source.ID,
		ToBaseID:   f.dest.ID,
		AssetIDs:   []uuid.UUID{a.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.Get(context.Background(), commanderAt(f.source.ID), detail.Transfer.ID); err != nil {
		t.Fatalf("source lookup: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), commanderAt(f.dest.ID), detail.Transfer.ID); err != nil {
		t.Fatalf("destination lookup: %v", err)
	}

	_, err = f.svc.Get(context.Background(), commanderAt(uuid.New()), detail.Transfer.ID)
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestListTransfersPinsScopedActor(t *testing.T) {
	f := newFixture(t)
	officer := scope.Actor{UserID: uuid.New(), Role: enums.UserRoleLogisticsOfficer, BaseID: &f.source.ID}

	if _, err := f.svc.List(context.Background(), ListTransfersInput{Actor: officer}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if f.repo.lastFilters.BaseID == nil || *f.repo.lastFilters.BaseID != f.source.ID {
		t.Fatal("scoped actor should be pinned to their home base")
	}
}

func TestTransferCodeShape(t *testing.T) {
	code, err := newCode(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("new code: %v", err)
	}
	if len(code) < 10 || code[:3] != "TR-" {
		t.Fatalf("unexpected code shape %q", code)
	}
}
