package transfers

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
	pkgdb "github.com/dmreyes/milasset-backend/pkg/db"
	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/milasset-backend/pkg/errors"
	"github.com/dmreyes/milasset-backend/pkg/pagination"
)

const codeAttempts = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type baseFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Base, error)
}

// Service implements the transfer workflow. A transfer is created PENDING
// with its member assets claimed IN_TRANSIT, moves through APPROVED to
// COMPLETED at the destination, or is cancelled back to the source.
type Service struct {
	repo   Repository
	assets assets.Repository
	tx     txRunner
	bases  baseFinder
	audit  auditRecorder
}

// CreateTransferInput opens a transfer between two bases.
type CreateTransferInput struct {
	Actor      scope.Actor
	FromBaseID uuid.UUID
	ToBaseID   uuid.UUID
	AssetIDs   []uuid.UUID
	Notes      *string
}

// ListTransfersInput carries the browse parameters.
type ListTransfersInput struct {
	Actor      scope.Actor
	Status     *enums.TransferStatus
	FromBaseID *uuid.UUID
	ToBaseID   *uuid.UUID
	Pagination pagination.Params
}

// ListResult is one page of transfers plus the cursor for the next page.
type ListResult struct {
	Transfers  []models.Transfer
	NextCursor string
}

// Detail is a transfer with its member items.
type Detail struct {
	Transfer *models.Transfer
	Items    []models.TransferItem
}

// NewService builds the transfer service.
func NewService(repo Repository, assetRepo assets.Repository, tx txRunner, bases baseFinder, recorder auditRecorder) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transfer repository required")
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

// Create opens a PENDING transfer and claims every member asset IN_TRANSIT
// in the same transaction.
func (s *Service) Create(ctx context.Context, input CreateTransferInput) (*Detail, error) {
	if input.FromBaseID == uuid.Nil || input.ToBaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source and destination bases required")
	}
	if input.FromBaseID == input.ToBaseID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source and destination must differ")
	}
	assetIDs := dedupe(input.AssetIDs)
	if len(assetIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer needs at least one asset")
	}

	if !input.Actor.CanSeeBase(input.FromBaseID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "base not found")
	}
	if !input.Actor.CanManageLogistics(input.FromBaseID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to create transfers from this base")
	}

	for _, baseID := range []uuid.UUID{input.FromBaseID, input.ToBaseID} {
		base, err := s.bases.FindByID(ctx, baseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "base not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load base")
		}
		if !base.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "base is deactivated")
		}
	}

	detail := &Detail{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assetRepo := s.assets.WithTx(tx)

		rows, err := assetRepo.FindByIDs(ctx, assetIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assets")
		}
		if len(rows) != len(assetIDs) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
		}
		for _, asset := range rows {
			if _, err := assets.NextForTransferCreate(asset, input.FromBaseID); err != nil {
				return err
			}
		}

		// Conditional bulk claim guards against a concurrent transfer or
		// assignment grabbing the same assets between load and write.
		claimed, err := assetRepo.ClaimAvailable(ctx, assetIDs, enums.AssetStatusInTransit)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim assets")
		}
		if claimed != int64(len(assetIDs)) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "asset is no longer available")
		}

		code, err := s.freeCode(ctx, repo)
		if err != nil {
			return err
		}

		transfer := &models.Transfer{
			Code:       code,
			Status:     enums.TransferStatusPending,
			FromBaseID: input.FromBaseID,
			ToBaseID:   input.ToBaseID,
			CreatedBy:  input.Actor.UserID,
			Notes:      input.Notes,
		}
		items := make([]models.TransferItem, 0, len(assetIDs))
		for _, id := range assetIDs {
			items = append(items, models.TransferItem{AssetID: id, Quantity: 1})
		}

		created, err := repo.Create(ctx, transfer, items)
		if err != nil {
			if pkgdb.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "transfer code already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transfer")
		}
		detail.Transfer = created
		detail.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    input.Actor.UserID,
		Action:     enums.AuditActionCreate,
		EntityType: enums.EntityTypeTransfer,
		EntityID:   detail.Transfer.ID,
		After:      detail.Transfer,
	})
	return detail, nil
}

// Approve moves a PENDING transfer to APPROVED. Destination authority only.
func (s *Service) Approve(ctx context.Context, actor scope.Actor, id uuid.UUID) (*models.Transfer, error) {
	var approved *models.Transfer
	var before models.Transfer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		transfer, err := s.loadVisible(ctx, repo, actor, id)
		if err != nil {
			return err
		}
		if !actor.CanManageLogistics(transfer.ToBaseID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the destination base approves transfers")
		}
		before = *transfer

		now := time.Now().UTC()
		rows, err := repo.TransitionStatus(ctx, id, enums.TransferStatusPending, enums.TransferStatusApproved, map[string]any{
			"approved_by": actor.UserID,
			"approved_at": now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve transfer")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transfer is not pending")
		}

		transfer.Status = enums.TransferStatusApproved
		transfer.ApprovedBy = &actor.UserID
		transfer.ApprovedAt = &now
		approved = transfer
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actor.UserID,
		Action:     enums.AuditActionTransferApprove,
		EntityType: enums.EntityTypeTransfer,
		EntityID:   approved.ID,
		Before:     &before,
		After:      approved,
	})
	return approved, nil
}

// Complete releases every member asset AVAILABLE at the destination and
// closes the transfer. Destination authority only.
func (s *Service) Complete(ctx context.Context, actor scope.Actor, id uuid.UUID) (*models.Transfer, error) {
	var completed *models.Transfer
	var before models.Transfer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assetRepo := s.assets.WithTx(tx)

		transfer, err := s.loadVisible(ctx, repo, actor, id)
		if err != nil {
			return err
		}
		if !actor.CanManageLogistics(transfer.ToBaseID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the destination base completes transfers")
		}
		if _, err := assets.NextForTransferComplete(*transfer); err != nil {
			return err
		}
		before = *transfer

		now := time.Now().UTC()
		rows, err := repo.TransitionStatus(ctx, id, enums.TransferStatusApproved, enums.TransferStatusCompleted, map[string]any{
			"completed_at": now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete transfer")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transfer is not approved")
		}

		if err := s.releaseItems(ctx, repo, assetRepo, transfer.ID, transfer.ToBaseID); err != nil {
			return err
		}

		transfer.Status = enums.TransferStatusCompleted
		transfer.CompletedAt = &now
		completed = transfer
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actor.UserID,
		Action:     enums.AuditActionTransferComplete,
		EntityType: enums.EntityTypeTransfer,
		EntityID:   completed.ID,
		Before:     &before,
		After:      completed,
	})
	return completed, nil
}

// Cancel aborts a PENDING or APPROVED transfer, appends the cancellation
// reason to the transfer notes, and returns every member asset AVAILABLE at
// the source.
func (s *Service) Cancel(ctx context.Context, actor scope.Actor, id uuid.UUID, reason string) (*models.Transfer, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}

	var cancelled *models.Transfer
	var before models.Transfer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assetRepo := s.assets.WithTx(tx)

		transfer, err := s.loadVisible(ctx, repo, actor, id)
		if err != nil {
			return err
		}
		if !actor.CanManageLogistics(transfer.FromBaseID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the source base cancels transfers")
		}
		if _, err := assets.NextForTransferCancel(*transfer); err != nil {
			return err
		}
		before = *transfer

		notes := appendNote(transfer.Notes, "cancelled: "+reason)
		rows, err := repo.TransitionStatus(ctx, id, transfer.Status, enums.TransferStatusCancelled, map[string]any{
			"notes": notes,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel transfer")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transfer already finished")
		}

		if err := s.releaseItems(ctx, repo, assetRepo, transfer.ID, transfer.FromBaseID); err != nil {
			return err
		}

		transfer.Status = enums.TransferStatusCancelled
		transfer.Notes = &notes
		cancelled = transfer
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actor.UserID,
		Action:     enums.AuditActionTransferCancel,
		EntityType: enums.EntityTypeTransfer,
		EntityID:   cancelled.ID,
		Before:     &before,
		After:      cancelled,
	})
	return cancelled, nil
}

// Get loads one transfer with its items. Either end of the transfer grants
// visibility.
func (s *Service) Get(ctx context.Context, actor scope.Actor, id uuid.UUID) (*Detail, error) {
	transfer, err := s.loadVisible(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, transfer.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transfer items")
	}
	return &Detail{Transfer: transfer, Items: items}, nil
}

// List returns transfers visible to the actor.
func (s *Service) List(ctx context.Context, input ListTransfersInput) (*ListResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown transfer status")
	}

	filters := ListFilters{
		Status:     input.Status,
		FromBaseID: input.FromBaseID,
		ToBaseID:   input.ToBaseID,
	}
	if visible := input.Actor.VisibleBase(); visible != nil {
		if input.FromBaseID != nil && *input.FromBaseID != *visible {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "base not found")
		}
		if input.ToBaseID != nil && *input.ToBaseID != *visible {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "base not found")
		}
		if input.FromBaseID == nil && input.ToBaseID == nil {
			filters.BaseID = visible
		}
	}

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	rows, err := s.repo.List(ctx, filters, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transfers")
	}

	result := &ListResult{Transfers: rows}
	if len(rows) > limit {
		result.Transfers = rows[:limit]
		last := result.Transfers[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func (s *Service) loadVisible(ctx context.Context, repo Repository, actor scope.Actor, id uuid.UUID) (*models.Transfer, error) {
	transfer, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transfer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transfer")
	}
	if !actor.CanSeeBase(transfer.FromBaseID) && !actor.CanSeeBase(transfer.ToBaseID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transfer not found")
	}
	return transfer, nil
}

// releaseItems moves every member asset out of IN_TRANSIT to the given base.
func (s *Service) releaseItems(ctx context.Context, repo Repository, assetRepo assets.Repository, transferID, baseID uuid.UUID) error {
	items, err := repo.ListItems(ctx, transferID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transfer items")
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.AssetID)
	}

	released, err := assetRepo.ReleaseTo(ctx, ids, baseID, enums.AssetStatusAvailable)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release assets")
	}
	if released != int64(len(ids)) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "transfer items are not in transit")
	}
	return nil
}

func (s *Service) freeCode(ctx context.Context, repo Repository) (string, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := newCode(time.Now().UTC())
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate transfer code")
		}
		_, err = repo.FindByCode(ctx, code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code, nil
		}
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check transfer code")
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a transfer code")
}

// appendNote tacks a line onto existing free-text notes.
func appendNote(existing *string, line string) string {
	if existing != nil && strings.TrimSpace(*existing) != "" {
		return *existing + "\n" + line
	}
	return line
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
