package scope

import (
	"github.com/google/uuid"

	"github.com/dmreyes/milasset-backend/pkg/enums"
)

// Actor is the authenticated identity attached to every request. Base-scoped
// roles always carry a home base.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
	BaseID *uuid.UUID
}

// IsAdmin reports whether the actor has the unrestricted role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// CanSeeBase reports whether records owned by baseID are visible to the actor.
// Out-of-scope records are reported as not found by callers, never forbidden.
func (a Actor) CanSeeBase(baseID uuid.UUID) bool {
	if a.IsAdmin() {
		return true
	}
	return a.BaseID != nil && *a.BaseID == baseID
}

// CanManageAssets reports whether the actor may mutate assets, assignments,
// and expenditures at the given base.
func (a Actor) CanManageAssets(baseID uuid.UUID) bool {
	switch a.Role {
	case enums.UserRoleAdmin:
		return true
	case enums.UserRoleBaseCommander:
		return a.BaseID != nil && *a.BaseID == baseID
	default:
		return false
	}
}

// CanManageLogistics reports whether the actor may create purchases and
// transfers sourced at the given base. Logistics officers hold this at their
// home base only.
func (a Actor) CanManageLogistics(baseID uuid.UUID) bool {
	switch a.Role {
	case enums.UserRoleAdmin:
		return true
	case enums.UserRoleBaseCommander, enums.UserRoleLogisticsOfficer:
		return a.BaseID != nil && *a.BaseID == baseID
	default:
		return false
	}
}

// VisibleBase returns the single base the actor is restricted to, or nil for
// unrestricted actors. List queries use it as a filter.
func (a Actor) VisibleBase() *uuid.UUID {
	if a.IsAdmin() {
		return nil
	}
	return a.BaseID
}
