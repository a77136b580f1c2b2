package audit

import (
	"context"
	"fmt"

	"github.com/dmreyes/milasset-backend/pkg/db/models"
	pkgerrors "github.com/dmreyes/milasset-backend/pkg/errors"
	"github.com/dmreyes/milasset-backend/pkg/pagination"
)

type listRepo interface {
	List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.AuditLog, error)
}

// Service exposes the admin read API over the audit log.
type Service struct {
	repo listRepo
}

// NewService builds the audit read service.
func NewService(repo listRepo) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &Service{repo: repo}, nil
}

// ListResult is one page of audit rows plus the cursor for the next page.
type ListResult struct {
	Logs       []models.AuditLog
	NextCursor string
}

// List returns audit rows for admins. Non-admin actors are rejected.
func (s *Service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "audit log is admin only")
	}
	if input.From != nil && input.To != nil && input.To.Before(*input.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range end precedes start")
	}

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	logs, err := s.repo.List(ctx, ListFilters{
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		ActorID:    input.ActorID,
		From:       input.From,
		To:         input.To,
	}, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit logs")
	}

	result := &ListResult{Logs: logs}
	if len(logs) > limit {
		result.Logs = logs[:limit]
		last := result.Logs[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}
