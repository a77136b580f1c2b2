package controllers

import (
	"net/http"

	"github.com/dmreyes/milasset-backend/api/responses"
	"github.com/dmreyes/milasset-backend/api/validators"
	"github.com/dmreyes/milasset-backend/internal/audit"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/milasset-backend/pkg/errors"
	"github.com/dmreyes/milasset-backend/pkg/logger"
)

// AuditList pages through the audit log. Admin only.
func AuditList(svc *audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := audit.ListInput{Actor: actor, Pagination: page}
		if raw := validators.SanitizeString(r.URL.Query().Get("entity_type"), 32); raw != "" {
			entityType, err := enums.ParseEntityType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entity type"))
				return
			}
			input.EntityType = &entityType
		}
		if input.EntityID, err = validators.ParseQueryUUID(r, "entity_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.ActorID, err = validators.ParseQueryUUID(r, "actor_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.From, err = validators.ParseQueryTime(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.To, err = validators.ParseQueryTime(r, "to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"logs":        result.Logs,
			"next_cursor": result.NextCursor,
		})
	}
}
