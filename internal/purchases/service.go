package purchases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmreyes/milasset-backend/internal/assets"
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

// Service implements procurement. A purchase owns the assets it creates;
// every created asset inherits the purchase's base.
type Service struct {
	repo   Repository
	assets assets.Repository
	tx     txRunner
	bases  baseFinder
	audit  auditRecorder
}

// ItemInput describes one asset created by the purchase.
type ItemInput struct {
	SerialNumber  string
	Name          string
	Category      enums.AssetCategory
	Value         *decimal.Decimal
	WarrantyUntil *time.Time
	Notes         *string
}

// CreatePurchaseInput records a procurement and its assets in one shot.
type CreatePurchaseInput struct {
	Actor       scope.Actor
	OrderNumber string
	BaseID      uuid.UUID
	Supplier    *string
	TotalCost   *decimal.Decimal
	PurchasedAt time.Time
	Notes       *string
	Items       []ItemInput
}

// UpdatePurchaseInput edits descriptive fields; the asset set is immutable.
type UpdatePurchaseInput struct {
	Actor      scope.Actor
	PurchaseID uuid.UUID
	Supplier   *string
	TotalCost  *decimal.Decimal
	Notes      *string
}

// ListPurchasesInput carries the browse parameters.
type ListPurchasesInput struct {
	Actor      scope.Actor
	BaseID     *uuid.UUID
	From       *time.Time
	To         *time.Time
	Pagination pagination.Params
}

// ListResult is one page of purchases plus the cursor for the next page.
type ListResult struct {
	Purchases  []models.Purchase
	NextCursor string
}

// CreateResult is the purchase row plus the assets it created.
type CreateResult struct {
	Purchase *models.Purchase
	Assets   []models.Asset
}

// NewService builds the purchase service.
func NewService(repo Repository, assetRepo assets.Repository, tx txRunner, bases baseFinder, recorder auditRecorder) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if assetRepo == nil {
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
	return &Service{repo: repo, assets: assetRepo, tx: tx, bases: bases, audit: recorder}, nil
}

// Create records the purchase and its assets in one transaction.
func (s *Service) Create(ctx context.Context, input CreatePurchaseInput) (*CreateResult, error) {
	orderNumber := strings.TrimSpace(input.OrderNumber)
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	if input.BaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base id required")
	}
	if input.PurchasedAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase date required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase needs at least one item")
	}
	for _, item := range input.Items {
		if strings.TrimSpace(item.SerialNumber) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item serial number required")
		}
		if strings.TrimSpace(item.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
		}
		if !item.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown asset category")
		}
		if item.Value != nil && item.Value.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item value cannot be negative")
		}
	}
	if input.TotalCost != nil && input.TotalCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total cost cannot be negative")
	}

	if !input.Actor.CanSeeBase(input.BaseID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "base not found")
	}
	if !input.Actor.CanManageLogistics(input.BaseID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to record purchases at this base")
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

	result := &CreateResult{}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assetRepo := s.assets.WithTx(tx)

		purchase := &models.Purchase{
			OrderNumber: orderNumber,
			BaseID:      input.BaseID,
			Supplier:    input.Supplier,
			TotalCost:   input.TotalCost,
			PurchasedAt: input.PurchasedAt,
			CreatedBy:   input.Actor.UserID,
			Notes:       input.Notes,
		}
		created, err := repo.Create(ctx, purchase)
		if err != nil {
			if pkgdb.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "order number already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase")
		}
		result.Purchase = created

		acquiredAt := input.PurchasedAt
		for _, item := range input.Items {
			asset := &models.Asset{
				SerialNumber:  strings.TrimSpace(item.SerialNumber),
				Name:          strings.TrimSpace(item.Name),
				Category:      item.Category,
				Status:        enums.AssetStatusAvailable,
				BaseID:        created.BaseID,
				PurchaseID:    &created.ID,
				Value:         item.Value,
				AcquiredAt:    &acquiredAt,
				WarrantyUntil: item.WarrantyUntil,
				Notes:         item.Notes,
			}
			saved, err := assetRepo.Create(ctx, asset)
			if err != nil {
				if pkgdb.IsUniqueViolation(err, "") {
					return pkgerrors.New(pkgerrors.CodeConflict, "serial number already registered")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchased asset")
			}
			result.Assets = append(result.Assets, *saved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    input.Actor.UserID,
		Action:     enums.AuditActionCreate,
		EntityType: enums.EntityTypePurchase,
		EntityID:   result.Purchase.ID,
		After:      result.Purchase,
	})
	return result, nil
}

// Get loads one purchase visible to the actor.
func (s *Service) Get(ctx context.Context, actor scope.Actor, id uuid.UUID) (*models.Purchase, error) {
	purchase, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	if !actor.CanSeeBase(purchase.BaseID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
	}
	return purchase, nil
}

// List returns purchases visible to the actor.
func (s *Service) List(ctx context.Context, input ListPurchasesInput) (*ListResult, error) {
	if input.From != nil && input.To != nil && input.From.After(*input.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range is inverted")
	}

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
	rows, err := s.repo.List(ctx, ListFilters{BaseID: baseFilter, From: input.From, To: input.To}, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}

	result := &ListResult{Purchases: rows}
	if len(rows) > limit {
		result.Purchases = rows[:limit]
		last := result.Purchases[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

// Update edits descriptive purchase fields. The asset set never changes
// after creation.
func (s *Service) Update(ctx context.Context, input UpdatePurchaseInput) (*models.Purchase, error) {
	if input.PurchaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}
	if input.TotalCost != nil && input.TotalCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total cost cannot be negative")
	}

	var updated *models.Purchase
	var before models.Purchase
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		purchase, err := repo.FindByID(ctx, input.PurchaseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
		}
		if !input.Actor.CanSeeBase(purchase.BaseID) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		if !input.Actor.CanManageLogistics(purchase.BaseID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to edit purchases at this base")
		}
		before = *purchase

		if input.Supplier != nil {
			purchase.Supplier = input.Supplier
		}
		if input.TotalCost != nil {
			purchase.TotalCost = input.TotalCost
		}
		if input.Notes != nil {
			purchase.Notes = input.Notes
		}

		updated, err = repo.Update(ctx, purchase)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    input.Actor.UserID,
		Action:     enums.AuditActionUpdate,
		EntityType: enums.EntityTypePurchase,
		EntityID:   updated.ID,
		Before:     before,
		After:      updated,
	})
	return updated, nil
}
