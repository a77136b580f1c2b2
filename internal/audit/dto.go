package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmreyes/milasset-backend/internal/scope"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	"github.com/dmreyes/milasset-backend/pkg/pagination"
)

// Entry is one successful mutation to be recorded. Before and After are
// snapshots of the entity around the mutation; either may be nil.
type Entry struct {
	ActorID    uuid.UUID
	Action     enums.AuditAction
	EntityType enums.EntityType
	EntityID   uuid.UUID
	Before     any
	After      any
}

// ListInput carries the admin read-API filters.
type ListInput struct {
	Actor      scope.Actor
	EntityType *enums.EntityType
	EntityID   *uuid.UUID
	ActorID    *uuid.UUID
	From       *time.Time
	To         *time.Time
	Pagination pagination.Params
}
