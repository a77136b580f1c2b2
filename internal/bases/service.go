package bases

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

// Service implements base CRUD. Bases are reference data: every
// authenticated user can read them, only admins mutate them.
type Service struct {
	repo  Repository
	tx    txRunner
	audit auditRecorder
}

// CreateBaseInput registers a new installation.
type CreateBaseInput struct {
	Actor    scope.Actor
	Code     string
	Name     string
	Location *string
}

// UpdateBaseInput edits mutable fields; nil fields are left untouched.
type UpdateBaseInput struct {
	Actor    scope.Actor
	BaseID   uuid.UUID
	Name     *string
	Location *string
	IsActive *bool
}

// ListBasesInput carries the browse parameters.
type ListBasesInput struct {
	Actor      scope.Actor
	ActiveOnly bool
	Pagination pagination.Params
}

// ListResult is one page of bases plus the cursor for the next page.
type ListResult struct {
	Bases      []models.Base
	NextCursor string
}

// NewService builds the base service.
func NewService(repo Repository, tx txRunner, recorder auditRecorder) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("base repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &Service{repo: repo, tx: tx, audit: recorder}, nil
}

// Create registers a new base. Admin only.
func (s *Service) Create(ctx context.Context, input CreateBaseInput) (*models.Base, error) {
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins manage bases")
	}
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	name := strings.TrimSpace(input.Name)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base code required")
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base name required")
	}

	base := &models.Base{
		Code:     code,
		Name:     name,
		Location: input.Location,
		IsActive: true,
	}
	created, err := s.repo.Create(ctx, base)
	if err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "base code or name already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create base")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    input.Actor.UserID,
		Action:     enums.AuditActionCreate,
		EntityType: enums.EntityTypeBase,
		EntityID:   created.ID,
		After:      created,
	})
	return created, nil
}

// Get loads one base.
func (s *Service) Get(ctx context.Context, actor scope.Actor, id uuid.UUID) (*models.Base, error) {
	base, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "base not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load base")
	}
	return base, nil
}

// List returns bases. Available to every authenticated user so transfer and
// assignment pickers can name destinations.
func (s *Service) List(ctx context.Context, input ListBasesInput) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	rows, err := s.repo.List(ctx, input.ActiveOnly, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bases")
	}

	result := &ListResult{Bases: rows}
	if len(rows) > limit {
		result.Bases = rows[:limit]
		last := result.Bases[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

// Update edits base fields. Admin only.
func (s *Service) Update(ctx context.Context, input UpdateBaseInput) (*models.Base, error) {
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins manage bases")
	}
	if input.BaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base id required")
	}

	var updated *models.Base
	var before models.Base
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		base, err := repo.FindByID(ctx, input.BaseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "base not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load base")
		}
		before = *base

		if input.Name != nil {
			if strings.TrimSpace(*input.Name) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "base name required")
			}
			base.Name = strings.TrimSpace(*input.Name)
		}
		if input.Location != nil {
			base.Location = input.Location
		}
		if input.IsActive != nil {
			base.IsActive = *input.IsActive
		}

		updated, err = repo.Update(ctx, base)
		if err != nil {
			if pkgdb.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "base name already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update base")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    input.Actor.UserID,
		Action:     enums.AuditActionUpdate,
		EntityType: enums.EntityTypeBase,
		EntityID:   updated.ID,
		Before:     before,
		After:      updated,
	})
	return updated, nil
}

// Delete removes the base if nothing references it, otherwise deactivates it.
func (s *Service) Delete(ctx context.Context, actor scope.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins manage bases")
	}
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "base id required")
	}

	var before models.Base
	var action enums.AuditAction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		base, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "base not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load base")
		}
		before = *base

		counts, err := repo.CountChildren(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count base references")
		}
		if counts.Total() > 0 {
			action = enums.AuditActionDeactivate
			if err := repo.Deactivate(ctx, id); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate base")
			}
			return nil
		}

		action = enums.AuditActionDelete
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete base")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actor.UserID,
		Action:     action,
		EntityType: enums.EntityTypeBase,
		EntityID:   id,
		Before:     before,
	})
	return nil
}
