package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmreyes/milasset-backend/internal/scope"
	"github.com/dmreyes/milasset-backend/pkg/db/models"
	pkgerrors "github.com/dmreyes/milasset-backend/pkg/errors"
)

const recentActivityLimit = 10

// Summary is the asset inventory breakdown.
type Summary struct {
	ByStatus   []StatusCount   `json:"by_status"`
	ByCategory []CategoryCount `json:"by_category"`
	ByBase     []BaseCount     `json:"by_base,omitempty"`
}

// Movement is the net flow of assets for one base over a window.
type Movement struct {
	BaseID       uuid.UUID `json:"base_id"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	Purchased    int64     `json:"purchased"`
	TransfersIn  int64     `json:"transfers_in"`
	TransfersOut int64     `json:"transfers_out"`
	Net          int64     `json:"net"`
}

// Activity is the recent-events panel.
type Activity struct {
	Transfers   []models.Transfer   `json:"transfers"`
	Assignments []models.Assignment `json:"assignments"`
}

// Service serves the read-only dashboard. It consumes the entity store but
// never mutates it.
type Service struct {
	repo Repository
}

// NewService builds the dashboard service.
func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	return &Service{repo: repo}, nil
}

// Summary returns asset counts by status and category, plus the per-base
// breakdown for admins.
func (s *Service) Summary(ctx context.Context, actor scope.Actor, baseID *uuid.UUID) (*Summary, error) {
	baseFilter, err := resolveBase(actor, baseID)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.repo.CountAssetsByStatus(ctx, baseFilter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count by status")
	}
	byCategory, err := s.repo.CountAssetsByCategory(ctx, baseFilter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count by category")
	}

	summary := &Summary{ByStatus: byStatus, ByCategory: byCategory}
	if actor.IsAdmin() && baseFilter == nil {
		byBase, err := s.repo.CountAssetsByBase(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count by base")
		}
		summary.ByBase = byBase
	}
	return summary, nil
}

// NetMovement reports purchases plus completed transfers in, minus completed
// transfers out, for one base over the window.
func (s *Service) NetMovement(ctx context.Context, actor scope.Actor, baseID uuid.UUID, from, to time.Time) (*Movement, error) {
	if baseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base id required")
	}
	if from.IsZero() || to.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range required")
	}
	if from.After(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range is inverted")
	}
	if !actor.CanSeeBase(baseID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "base not found")
	}

	purchased, err := s.repo.CountPurchasedAssets(ctx, baseID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count purchased assets")
	}
	in, err := s.repo.CountTransferredIn(ctx, baseID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count transfers in")
	}
	out, err := s.repo.CountTransferredOut(ctx, baseID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count transfers out")
	}

	return &Movement{
		BaseID:       baseID,
		From:         from,
		To:           to,
		Purchased:    purchased,
		TransfersIn:  in,
		TransfersOut: out,
		Net:          purchased + in - out,
	}, nil
}

// RecentActivity returns the latest transfers and assignments visible to the
// actor.
func (s *Service) RecentActivity(ctx context.Context, actor scope.Actor, baseID *uuid.UUID) (*Activity, error) {
	baseFilter, err := resolveBase(actor, baseID)
	if err != nil {
		return nil, err
	}

	transfers, err := s.repo.RecentTransfers(ctx, baseFilter, recentActivityLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recent transfers")
	}
	assignments, err := s.repo.RecentAssignments(ctx, baseFilter, recentActivityLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recent assignments")
	}

	return &Activity{Transfers: transfers, Assignments: assignments}, nil
}

// resolveBase pins base-scoped actors to their home base and hides foreign
// base filters as not found.
func resolveBase(actor scope.Actor, requested *uuid.UUID) (*uuid.UUID, error) {
	visible := actor.VisibleBase()
	if visible == nil {
		return requested, nil
	}
	if requested != nil && *requested != *visible {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "base not found")
	}
	return visible, nil
}
