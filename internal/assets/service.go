package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmreyes/milasset-backend/internal/audit"
	"github.com/dmreyes/milasset-backend/internal/scope"
	pkgdb "github.com/dmreyes/milasset-backend/pkg/db"
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

type baseFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Base, error)
}

// Service implements asset CRUD with the lifecycle and deletion rules.
type Service struct {
	repo  Repository
	tx    txRunner
	bases baseFinder
	audit auditRecorder
}

// NewService builds the asset service with the required dependencies.
func NewService(repo Repository, tx txRunner, bases baseFinder, recorder auditRecorder) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("asset repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if bases == nil {
		return nil, fmt.Errorf("base finder required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &Service{repo: repo, tx: tx, bases: bases, audit: recorder}, nil
}

// Create registers a new asset at the given base.
func (s *Service) Create(ctx context.Context, input CreateAssetInput) (*models.Asset, error) {
	if strings.TrimSpace(input.SerialNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial number required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset name required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown asset category")
	}
	if !input.Actor.CanSeeBase(input.BaseID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "base not found")
	}
	if !input.Actor.CanManageAssets(input.BaseID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not manage assets at this base")
	}

	base, err := s.bases.FindByID(ctx, input.BaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "base not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load base")
	}
	if !base.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "base is deactivated")
	}

	asset := &models.Asset{
		SerialNumber:  strings.TrimSpace(input.SerialNumber),
		Name:          strings.TrimSpace(input.Name),
		Category:      input.Category,
		Status:        enums.AssetStatusAvailable,
		BaseID:        input.BaseID,
		Value:         input.Value,
		AcquiredAt:    input.AcquiredAt,
		WarrantyUntil: input.WarrantyUntil,
		Notes:         input.Notes,
	}
	created, err := s.repo.Create(ctx, asset)
	if err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "serial number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create asset")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    input.Actor.UserID,
		Action:     enums.AuditActionCreate,
		EntityType: enums.EntityTypeAsset,
		EntityID:   created.ID,
		After:      created,
	})
	return created, nil
}

// Get loads one asset. Out-of-scope assets read as not found.
func (s *Service) Get(ctx context.Context, actor scope.Actor, id uuid.UUID) (*models.Asset, error) {
	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset")
	}
	if !actor.CanSeeBase(asset.BaseID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
	}
	return asset, nil
}

// ListResult is one page of assets plus the cursor for the next page.
type ListResult struct {
	Assets     []models.Asset
	NextCursor string
}

// List returns assets visible to the actor.
func (s *Service) List(ctx context.Context, input ListAssetsInput) (*ListResult, error) {
	baseFilter := input.BaseID
	if visible := input.Actor.VisibleBase(); visible != nil {
		if baseFilter != nil && *baseFilter != *visible {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "base not found")
		}
		baseFilter = visible
	}

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	rows, err := s.repo.List(ctx, ListFilters{
		Status:   input.Status,
		Category: input.Category,
		BaseID:   baseFilter,
		Serial:   strings.TrimSpace(input.Serial),
		From:     input.From,
		To:       input.To,
	}, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assets")
	}

	result := &ListResult{Assets: rows}
	if len(rows) > limit {
		result.Assets = rows[:limit]
		last := result.Assets[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

// Update edits mutable fields. A requested status change goes through the
// manual-change rules; the read and write share one transaction.
func (s *Service) Update(ctx context.Context, input UpdateAssetInput) (*models.Asset, error) {
	if input.AssetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset id required")
	}

	var updated *models.Asset
	var before models.Asset
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		asset, err := repo.FindByID(ctx, input.AssetID)
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
			return pkgerrors.New(pkgerrors.CodeForbidden, "role may not manage assets at this base")
		}
		before = *asset

		if input.Name != nil {
			if strings.TrimSpace(*input.Name) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "asset name required")
			}
			asset.Name = strings.TrimSpace(*input.Name)
		}
		if input.Status != nil {
			next, err := NextForManualChange(*asset, *input.Status)
			if err != nil {
				return err
			}
			asset.Status = next
		}
		if input.Value != nil {
			asset.Value = input.Value
		}
		if input.AcquiredAt != nil {
			asset.AcquiredAt = input.AcquiredAt
		}
		if input.WarrantyUntil != nil {
			asset.WarrantyUntil = input.WarrantyUntil
		}
		if input.Notes != nil {
			asset.Notes = input.Notes
		}

		updated, err = repo.Update(ctx, asset)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update asset")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    input.Actor.UserID,
		Action:     enums.AuditActionUpdate,
		EntityType: enums.EntityTypeAsset,
		EntityID:   updated.ID,
		Before:     before,
		After:      updated,
	})
	return updated, nil
}

// Delete hard-deletes the asset only when it has no historical assignments,
// transfer memberships, or expenditures.
func (s *Service) Delete(ctx context.Context, actor scope.Actor, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "asset id required")
	}

	var before models.Asset
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		asset, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset")
		}
		if !actor.CanSeeBase(asset.BaseID) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
		}
		if !actor.CanManageAssets(asset.BaseID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "role may not manage assets at this base")
		}
		before = *asset

		counts, err := repo.CountHistory(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count asset history")
		}
		if counts.Total() > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "asset has historical records and cannot be deleted")
		}

		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete asset")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actor.UserID,
		Action:     enums.AuditActionDelete,
		EntityType: enums.EntityTypeAsset,
		EntityID:   id,
		Before:     before,
	})
	return nil
}
