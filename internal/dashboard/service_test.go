package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dmreyes/milasset-backend/internal/scope"
	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/milasset-backend/pkg/errors"
)

type stubDashboardRepo struct {
	lastStatusBase *uuid.UUID
	byBaseCalls    int
	purchased      int64
	in             int64
	out            int64
}

func (s *stubDashboardRepo) CountAssetsByStatus(ctx context.Context, baseID *uuid.UUID) ([]StatusCount, error) {
	s.lastStatusBase = baseID
	return []StatusCount{{Status: enums.AssetStatusAvailable, Count: 4}}, nil
}

func (s *stubDashboardRepo) CountAssetsByCategory(ctx context.Context, baseID *uuid.UUID) ([]CategoryCount, error) {
	return []CategoryCount{{Category: enums.AssetCategoryWeapon, Count: 4}}, nil
}

func (s *stubDashboardRepo) CountAssetsByBase(ctx context.Context) ([]BaseCount, error) {
	s.byBaseCalls++
	return []BaseCount{{BaseID: uuid.New(), Count: 4}}, nil
}

func (s *stubDashboardRepo) CountPurchasedAssets(ctx context.Context, baseID uuid.UUID, from, to time.Time) (int64, error) {
	return s.purchased, nil
}

func (s *stubDashboardRepo) CountTransferredIn(ctx context.Context, baseID uuid.UUID, from, to time.Time) (int64, error) {
	return s.in, nil
}

func (s *stubDashboardRepo) CountTransferredOut(ctx context.Context, baseID uuid.UUID, from, to time.Time) (int64, error) {
	return s.out, nil
}

func (s *stubDashboardRepo) RecentTransfers(ctx context.Context, baseID *uuid.UUID, limit int) ([]models.Transfer, error) {
	return nil, nil
}

func (s *stubDashboardRepo) RecentAssignments(ctx context.Context, baseID *uuid.UUID, limit int) ([]models.Assignment, error) {
	return nil, nil
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestSummaryPinsScopedActor(t *testing.T) {
	repo := &stubDashboardRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	home := uuid.New()
	commander := scope.Actor{UserID: uuid.New(), Role: enums.UserRoleBaseCommander, BaseID: &home}
	summary, err := svc.Summary(context.Background(), commander, nil)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if repo.lastStatusBase == nil || *repo.lastStatusBase != home {
		t.Fatal("scoped actor should be pinned to their home base")
	}
	if summary.ByBase != nil || repo.byBaseCalls != 0 {
		t.Fatal("per-base breakdown is admin only")
	}

	other := uuid.New()
	_, err = svc.Summary(context.Background(), commander, &other)
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestSummaryAdminGetsBaseBreakdown(t *testing.T) {
	repo := &stubDashboardRepo{}
	svc, _ := NewService(repo)

	admin := scope.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	summary, err := svc.Summary(context.Background(), admin, nil)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary.ByBase) == 0 {
		t.Fatal("admin summary should include the per-base breakdown")
	}
}

func TestNetMovementArithmetic(t *testing.T) {
	repo := &stubDashboardRepo{purchased: 5, in: 3, out: 2}
	svc, _ := NewService(repo)

	admin := scope.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	base := uuid.New()
	now := time.Now().UTC()

	movement, err := svc.NetMovement(context.Background(), admin, base, now.Add(-24*time.Hour), now)
	if err != nil {
		t.Fatalf("net movement: %v", err)
	}
	if movement.Net != 6 {
		t.Fatalf("expected net 6, got %d", movement.Net)
	}
}

func TestNetMovementValidatesRange(t *testing.T) {
	repo := &stubDashboardRepo{}
	svc, _ := NewService(repo)
	admin := scope.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	now := time.Now().UTC()

	_, err := svc.NetMovement(context.Background(), admin, uuid.New(), now, now.Add(-time.Hour))
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestNetMovementForeignBaseHidden(t *testing.T) {
	repo := &stubDashboardRepo{}
	svc, _ := NewService(repo)

	home := uuid.New()
	commander := scope.Actor{UserID: uuid.New(), Role: enums.UserRoleBaseCommander, BaseID: &home}
	now := time.Now().UTC()

	_, err := svc.NetMovement(context.Background(), commander, uuid.New(), now.Add(-time.Hour), now)
	expectCode(t, err, pkgerrors.CodeNotFound)
}
