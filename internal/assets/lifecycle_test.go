package assets

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/milasset-backend/pkg/errors"
)

func availableAsset(baseID uuid.UUID) models.Asset {
	return models.Asset{
		ID:     uuid.New(),
		Status: enums.AssetStatusAvailable,
		BaseID: baseID,
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error with code %s, got %v", code, err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s got %s (%s)", code, typed.Code(), typed.Message())
	}
}

func TestNextForAssignment(t *testing.T) {
	base := uuid.New()
	asset := availableAsset(base)

	next, err := NextForAssignment(asset, false, &base)
	if err != nil {
		t.Fatalf("expected legal assignment: %v", err)
	}
	if next != enums.AssetStatusAssigned {
		t.Fatalf("expected ASSIGNED got %s", next)
	}

	busy := asset
	busy.Status = enums.AssetStatusMaintenance
	if _, err := NextForAssignment(busy, false, &base); err == nil {
		t.Fatal("maintenance asset must not be assignable")
	} else {
		assertCode(t, err, pkgerrors.CodeStateConflict)
	}

	if _, err := NextForAssignment(asset, true, &base); err == nil {
		t.Fatal("open assignment must block a second one")
	}

	otherBase := uuid.New()
	if _, err := NextForAssignment(asset, false, &otherBase); err == nil {
		t.Fatal("cross-base holder must be rejected")
	} else {
		assertCode(t, err, pkgerrors.CodeConflict)
	}
}

func TestNextForReturnConditionMapping(t *testing.T) {
	open := models.Assignment{ID: uuid.New()}

	cases := []struct {
		condition enums.ReturnCondition
		want      enums.AssetStatus
	}{
		{enums.ReturnConditionGood, enums.AssetStatusAvailable},
		{enums.ReturnConditionDamaged, enums.AssetStatusMaintenance},
		{enums.ReturnConditionNeedsMaintenance, enums.AssetStatusMaintenance},
		{enums.ReturnConditionDecommissioned, enums.AssetStatusDecommissioned},
	}
	for _, tc := range cases {
		got, err := NextForReturn(open, tc.condition)
		if err != nil {
			t.Fatalf("condition %s: %v", tc.condition, err)
		}
		if got != tc.want {
			t.Fatalf("condition %s: expected %s got %s", tc.condition, tc.want, got)
		}
	}
}

func TestNextForReturnRejectsClosedAssignment(t *testing.T) {
	returned := time.Now()
	closed := models.Assignment{ID: uuid.New(), ReturnedAt: &returned}

	_, err := NextForReturn(closed, enums.ReturnConditionGood)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestNextForTransferCreate(t *testing.T) {
	base := uuid.New()
	asset := availableAsset(base)

	next, err := NextForTransferCreate(asset, base)
	if err != nil {
		t.Fatalf("expected legal transfer membership: %v", err)
	}
	if next != enums.AssetStatusInTransit {
		t.Fatalf("expected IN_TRANSIT got %s", next)
	}

	if _, err := NextForTransferCreate(asset, uuid.New()); err == nil {
		t.Fatal("asset at another base must be rejected")
	}

	claimed := asset
	claimed.Status = enums.AssetStatusInTransit
	if _, err := NextForTransferCreate(claimed, base); err == nil {
		t.Fatal("in-transit asset must not join a second transfer")
	}
}

func TestNextForTransferCompleteAndCancel(t *testing.T) {
	approved := models.Transfer{Status: enums.TransferStatusApproved}
	if next, err := NextForTransferComplete(approved); err != nil || next != enums.AssetStatusAvailable {
		t.Fatalf("expected AVAILABLE, got %s err=%v", next, err)
	}

	pending := models.Transfer{Status: enums.TransferStatusPending}
	_, err := NextForTransferComplete(pending)
	assertCode(t, err, pkgerrors.CodeStateConflict)

	if next, err := NextForTransferCancel(pending); err != nil || next != enums.AssetStatusAvailable {
		t.Fatalf("cancel from pending should be legal, got %s err=%v", next, err)
	}
	if next, err := NextForTransferCancel(approved); err != nil || next != enums.AssetStatusAvailable {
		t.Fatalf("cancel from approved should be legal, got %s err=%v", next, err)
	}

	done := models.Transfer{Status: enums.TransferStatusCompleted}
	_, err = NextForTransferCancel(done)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestNextForExpenditure(t *testing.T) {
	base := uuid.New()

	asset := availableAsset(base)
	if next, err := NextForExpenditure(asset); err != nil || next != enums.AssetStatusExpended {
		t.Fatalf("expected EXPENDED, got %s err=%v", next, err)
	}

	// an assigned asset can still be expended; the workflow force-closes
	// the assignment
	assigned := asset
	assigned.Status = enums.AssetStatusAssigned
	if _, err := NextForExpenditure(assigned); err != nil {
		t.Fatalf("assigned asset should be expendable: %v", err)
	}

	for _, status := range []enums.AssetStatus{
		enums.AssetStatusExpended,
		enums.AssetStatusDecommissioned,
		enums.AssetStatusInTransit,
	} {
		blocked := asset
		blocked.Status = status
		_, err := NextForExpenditure(blocked)
		assertCode(t, err, pkgerrors.CodeStateConflict)
	}
}

func TestNextForManualChange(t *testing.T) {
	base := uuid.New()
	asset := availableAsset(base)

	if next, err := NextForManualChange(asset, enums.AssetStatusMaintenance); err != nil || next != enums.AssetStatusMaintenance {
		t.Fatalf("available -> maintenance should be legal, got %s err=%v", next, err)
	}
	if next, err := NextForManualChange(asset, enums.AssetStatusAvailable); err != nil || next != enums.AssetStatusAvailable {
		t.Fatalf("no-op change should be legal, got %s err=%v", next, err)
	}

	if _, err := NextForManualChange(asset, enums.AssetStatusAssigned); err == nil {
		t.Fatal("workflow statuses must not be set by hand")
	}

	expended := asset
	expended.Status = enums.AssetStatusExpended
	_, err := NextForManualChange(expended, enums.AssetStatusAvailable)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}
