package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmreyes/milasset-backend/internal/audit"
	"github.com/dmreyes/milasset-backend/internal/scope"
	"github.com/dmreyes/milasset-backend/pkg/config"
	pkgdb "github.com/dmreyes/milasset-backend/pkg/db"
	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/milasset-backend/pkg/errors"
	"github.com/dmreyes/milasset-backend/pkg/pagination"
	"github.com/dmreyes/milasset-backend/pkg/security"
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

// Service implements user administration. Accounts are created by admins;
// base-scoped roles must name a home base.
type Service struct {
	repo     Repository
	tx       txRunner
	bases    baseFinder
	audit    auditRecorder
	password config.PasswordConfig
}

// CreateUserInput registers a new account.
type CreateUserInput struct {
	Actor    scope.Actor
	Email    string
	Username string
	FullName string
	Password string
	Role     enums.UserRole
	BaseID   *uuid.UUID
}

// UpdateUserInput edits mutable fields; nil fields are left untouched.
type UpdateUserInput struct {
	Actor    scope.Actor
	UserID   uuid.UUID
	FullName *string
	Role     *enums.UserRole
	BaseID   *uuid.UUID
	IsActive *bool
	Password *string
}

// ListUsersInput carries the browse parameters.
type ListUsersInput struct {
	Actor      scope.Actor
	BaseID     *uuid.UUID
	ActiveOnly bool
	Pagination pagination.Params
}

// ListResult is one page of users plus the cursor for the next page.
type ListResult struct {
	Users      []models.User
	NextCursor string
}

// NewService builds the user service.
func NewService(repo Repository, tx txRunner, bases baseFinder, recorder auditRecorder, password config.PasswordConfig) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
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
	return &Service{repo: repo, tx: tx, bases: bases, audit: recorder, password: password}, nil
}

// Create registers a new account. Admin only.
func (s *Service) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins manage users")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid email required")
	}
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username required")
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown role")
	}
	if input.Role.IsBaseScoped() {
		if input.BaseID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base-scoped roles require a home base")
		}
		if _, err := s.bases.FindByID(ctx, *input.BaseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "base not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load base")
		}
	} else {
		input.BaseID = nil
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: hash,
		Role:         input.Role,
		BaseID:       input.BaseID,
		IsActive:     true,
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email or username already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    input.Actor.UserID,
		Action:     enums.AuditActionCreate,
		EntityType: enums.EntityTypeUser,
		EntityID:   created.ID,
		After:      sanitize(created),
	})
	return created, nil
}

// Get loads one user. Base-scoped actors only see users at their home base.
func (s *Service) Get(ctx context.Context, actor scope.Actor, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !actor.IsAdmin() && actor.UserID != user.ID {
		if user.BaseID == nil || !actor.CanSeeBase(*user.BaseID) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
	}
	return user, nil
}

// List returns users visible to the actor.
func (s *Service) List(ctx context.Context, input ListUsersInput) (*ListResult, error) {
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
	rows, err := s.repo.List(ctx, ListFilters{BaseID: baseFilter, ActiveOnly: input.ActiveOnly}, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	result := &ListResult{Users: rows}
	if len(rows) > limit {
		result.Users = rows[:limit]
		last := result.Users[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

// Update edits user fields. Admin only.
func (s *Service) Update(ctx context.Context, input UpdateUserInput) (*models.User, error) {
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins manage users")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var updated *models.User
	var before models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := repo.FindByID(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		before = *user

		if input.FullName != nil {
			if strings.TrimSpace(*input.FullName) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "full name required")
			}
			user.FullName = strings.TrimSpace(*input.FullName)
		}
		if input.Role != nil {
			if !input.Role.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "unknown role")
			}
			user.Role = *input.Role
		}
		if input.BaseID != nil {
			user.BaseID = input.BaseID
		}
		if user.Role.IsBaseScoped() && user.BaseID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "base-scoped roles require a home base")
		}
		if !user.Role.IsBaseScoped() {
			user.BaseID = nil
		}
		if input.IsActive != nil {
			user.IsActive = *input.IsActive
		}
		if input.Password != nil {
			if len(*input.Password) < 8 {
				return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
			}
			hash, err := security.HashPassword(*input.Password, s.password)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
			}
			user.PasswordHash = hash
		}

		updated, err = repo.Update(ctx, user)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    input.Actor.UserID,
		Action:     enums.AuditActionUpdate,
		EntityType: enums.EntityTypeUser,
		EntityID:   updated.ID,
		Before:     sanitize(&before),
		After:      sanitize(updated),
	})
	return updated, nil
}

// Delete removes the user if nothing references them, otherwise deactivates.
func (s *Service) Delete(ctx context.Context, actor scope.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins manage users")
	}
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if id == actor.UserID {
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete your own account")
	}

	var before models.User
	var action enums.AuditAction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		before = *user

		counts, err := repo.CountReferences(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count user references")
		}
		if counts.Total() > 0 {
			action = enums.AuditActionDeactivate
			if err := repo.Deactivate(ctx, id); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate user")
			}
			return nil
		}

		action = enums.AuditActionDelete
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actor.UserID,
		Action:     action,
		EntityType: enums.EntityTypeUser,
		EntityID:   id,
		Before:     sanitize(&before),
	})
	return nil
}

// sanitize strips the password hash from audit snapshots.
func sanitize(user *models.User) map[string]any {
	if user == nil {
		return nil
	}
	return map[string]any{
		"id":        user.ID,
		"email":     user.Email,
		"username":  user.Username,
		"full_name": user.FullName,
		"role":      user.Role,
		"base_id":   user.BaseID,
		"is_active": user.IsActive,
	}
}
