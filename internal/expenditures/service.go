package expenditures

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmreyes/milasset-backend/internal/assets"
	"github.com/dmreyes/milasset-backend/internal/assignments"
	"github.com/dmreyes/milasset-backend/internal/audit"
	"github.com/dmreyes/milasset-backend/internal/scope"
	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/milasset-backend/pkg/errors"
	"github.com/dmreyes/milasset-backend/pkg/pagination"
)

const forceCloseNote = "auto-closed: asset expended"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service records irreversible consumption. Expending an asset is terminal:
// it force-closes any open assignment and the asset never moves again.
type Service struct {
	repo       Repository
	assets     assets.Repository
	assignRepo assignments.Repository
	tx         txRunner
	audit      auditRecorder
}

// CreateExpenditureInput consumes an asset.
type CreateExpenditureInput struct {
	Actor    scope.Actor
	AssetID  uuid.UUID
	Quantity int
	Reason   string
	Notes    *string
}

// ListExpendituresInput carries the browse parameters.
type ListExpendituresInput struct {
	Actor      scope.Actor
	AssetID    *uuid.UUID
	From       *time.Time
	To         *time.Time
	Pagination pagination.Params
}

// ListResult is one page of expenditures plus the cursor for the next page.
type ListResult struct {
	Expenditures []models.Expenditure
	NextCursor   string
}

// NewService builds the expenditure service.
func NewService(repo Repository, assetRepo assets.Repository, assignRepo assignments.Repository, tx txRunner, recorder auditRecorder) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("expenditure repository required")
	}
	if assetRepo == nil {
		return nil, fmt.Errorf("asset repository required")
	}
	if assignRepo == nil {
		return nil, fmt.Errorf("assignment repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &Service{repo: repo, assets: assetRepo, assignRepo: assignRepo, tx: tx, audit: recorder}, nil
}

// Create records the expenditure, expends the asset, and force-closes any
// open assignment in one transaction.
func (s *Service) Create(ctx context.Context, input CreateExpenditureInput) (*models.Expenditure, error) {
	if input.AssetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset id required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}

	var created *models.Expenditure
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assetRepo := s.assets.WithTx(tx)
		closer := s.assignRepo.WithTx(tx)

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
			return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to expend assets at this base")
		}

		next, err := assets.NextForExpenditure(*asset)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if _, err := closer.ForceCloseOpen(ctx, asset.ID, now, forceCloseNote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close open assignment")
		}
		if err := assetRepo.UpdateStatus(ctx, asset.ID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update asset status")
		}

		created, err = repo.Create(ctx, &models.Expenditure{
			AssetID:    asset.ID,
			Quantity:   input.Quantity,
			Reason:     reason,
			ExpendedBy: input.Actor.UserID,
			ExpendedAt: now,
			Notes:      input.Notes,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create expenditure")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    input.Actor.UserID,
		Action:     enums.AuditActionExpend,
		EntityType: enums.EntityTypeExpenditure,
		EntityID:   created.ID,
		After:      created,
	})
	return created, nil
}

// Get loads one expenditure visible to the actor.
func (s *Service) Get(ctx context.Context, actor scope.Actor, id uuid.UUID) (*models.Expenditure, error) {
	expenditure, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "expenditure not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load expenditure")
	}

	asset, err := s.assets.FindByID(ctx, expenditure.AssetID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset")
	}
	if !actor.CanSeeBase(asset.BaseID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "expenditure not found")
	}
	return expenditure, nil
}

// List returns expenditures visible to the actor. Base-scoped actors only
// see expenditures whose asset sits at their base; the restriction is applied
// in the query so pages stay full and the cursor stays stable.
func (s *Service) List(ctx context.Context, input ListExpendituresInput) (*ListResult, error) {
	if input.From != nil && input.To != nil && input.From.After(*input.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range is inverted")
	}
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
		AssetID: input.AssetID,
		From:    input.From,
		To:      input.To,
	}
	if visible := input.Actor.VisibleBase(); visible != nil {
		filters.BaseID = visible
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	rows, err := s.repo.List(ctx, filters, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expenditures")
	}

	result := &ListResult{Expenditures: rows}
	if len(rows) > limit {
		result.Expenditures = rows[:limit]
		last := result.Expenditures[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}
