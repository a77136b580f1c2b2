package assignments

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service implements personnel assignments. An asset carries at most one
// open assignment, and the holder must belong to the asset's base.
type Service struct {
	repo   Repository
	assets assets.Repository
	tx     txRunner
	users  userFinder
	audit  auditRecorder
}

// AssignInput hands an asset to a user.
type AssignInput struct {
	Actor   scope.Actor
	AssetID uuid.UUID
	UserID  uuid.UUID
	Purpose string
}

// ReturnInput closes an open assignment with the reported condition.
type ReturnInput struct {
	Actor        scope.Actor
	AssignmentID uuid.UUID
	Condition    enums.ReturnCondition
	Notes        *string
}

// ListAssignmentsInput carries the browse parameters.
type ListAssignmentsInput struct {
	Actor      scope.Actor
	AssetID    *uuid.UUID
	UserID     *uuid.UUID
	OpenOnly   bool
	Pagination pagination.Params
}

// ListResult is one page of assignments plus the cursor for the next page.
type ListResult struct {
	Assignments []models.Assignment
	NextCursor  string
}

// NewService builds the assignment service.
func NewService(repo Repository, assetRepo assets.Repository, tx txRunner, users userFinder, recorder auditRecorder) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("assignment repository required")
	}
	if assetRepo == nil {
		return nil, fmt.Errorf("asset repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &Service{repo: repo, assets: assetRepo, tx: tx, users: users, audit: recorder}, nil
}

// Assign opens an assignment and claims the asset ASSIGNED in the same
// transaction.
func (s *Service) Assign(ctx context.Context, input AssignInput) (*models.Assignment, error) {
	if input.AssetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	purpose := strings.TrimSpace(input.Purpose)
	if purpose == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purpose required")
	}

	var created *models.Assignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assetRepo := s.assets.WithTx(tx)

		asset, err := assetRepo.FindByID(ctx, input.AssetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset")
		}
		if !input.Actor.CanSeeBase(asset.BaseID) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
		}
		if !input.Actor.CanManageAssets(asset.BaseID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to assign assets at this base")
		}

		holder, err := s.users.FindByID(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if !holder.IsActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "user is deactivated")
		}

		hasOpen := false
		if _, err := repo.FindOpenByAsset(ctx, asset.ID); err == nil {
			hasOpen = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open assignment")
		}

		next, err := assets.NextForAssignment(*asset, hasOpen, holder.BaseID)
		if err != nil {
			return err
		}

		// Conditional claim closes the race with a concurrent transfer or
		// assignment on the same asset.
		claimed, err := assetRepo.ClaimAvailable(ctx, []uuid.UUID{asset.ID}, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim asset")
		}
		if claimed != 1 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "asset is no longer available")
		}

		created, err = repo.Create(ctx, &models.Assignment{
			AssetID:    asset.ID,
			UserID:     holder.ID,
			AssignedBy: input.Actor.UserID,
			Purpose:    purpose,
			AssignedAt: time.Now().UTC(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    input.Actor.UserID,
		Action:     enums.AuditActionAssign,
		EntityType: enums.EntityTypeAssignment,
		EntityID:   created.ID,
		After:      created,
	})
	return created, nil
}

// Return closes the assignment and moves the asset to the status the
// reported condition maps to.
func (s *Service) Return(ctx context.Context, input ReturnInput) (*models.Assignment, error) {
	if input.AssignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	if !input.Condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown return condition")
	}

	var closed *models.Assignment
	var before models.Assignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assetRepo := s.assets.WithTx(tx)

		assignment, err := repo.FindByID(ctx, input.AssignmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
		}

		asset, err := assetRepo.FindByID(ctx, assignment.AssetID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset")
		}
		if !input.Actor.CanSeeBase(asset.BaseID) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		if !input.Actor.CanManageAssets(asset.BaseID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to return assets at this base")
		}

		next, err := assets.NextForReturn(*assignment, input.Condition)
		if err != nil {
			return err
		}
		before = *assignment

		now := time.Now().UTC()
		rows, err := repo.Close(ctx, assignment.ID, now, input.Condition, input.Notes)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close assignment")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment already returned")
		}

		if err := assetRepo.UpdateStatus(ctx, asset.ID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update asset status")
		}

		assignment.ReturnedAt = &now
		condition := input.Condition
		assignment.ReturnCondition = &condition
		assignment.ReturnNotes = input.Notes
		closed = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    input.Actor.UserID,
		Action:     enums.AuditActionReturn,
		EntityType: enums.EntityTypeAssignment,
		EntityID:   closed.ID,
		Before:     &before,
		After:      closed,
	})
	return closed, nil
}

// Get loads one assignment visible to the actor.
func (s *Service) Get(ctx context.Context, actor scope.Actor, id uuid.UUID) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}

	asset, err := s.assets.FindByID(ctx, assignment.AssetID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset")
	}
	if !actor.CanSeeBase(asset.BaseID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
	}
	return assignment, nil
}

// List returns assignments visible to the actor. Base-scoped actors only see
// assignments whose asset sits at their base; the restriction is applied in
// the query so pages stay full and the cursor stays stable.
func (s *Service) List(ctx context.Context, input ListAssignmentsInput) (*ListResult, error) {
	if input.AssetID != nil {
		asset, err := s.assets.FindByID(ctx, *input.AssetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset")
		}
		if !input.Actor.CanSeeBase(asset.BaseID) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
		}
	}

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	filters := ListFilters{
		AssetID:  input.AssetID,
		UserID:   input.UserID,
		OpenOnly: input.OpenOnly,
	}
	if visible := input.Actor.VisibleBase(); visible != nil {
		filters.BaseID = visible
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	rows, err := s.repo.List(ctx, filters, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}

	result := &ListResult{Assignments: rows}
	if len(rows) > limit {
		result.Assignments = rows[:limit]
		last := result.Assignments[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}
