package controllers

import (
	"net/http"

	"github.com/dmreyes/milasset-backend/api/responses"
	"github.com/dmreyes/milasset-backend/api/validators"
	"github.com/dmreyes/milasset-backend/internal/bases"
	pkgerrors "github.com/dmreyes/milasset-backend/pkg/errors"
	"github.com/dmreyes/milasset-backend/pkg/logger"
)

type baseCreateRequest struct {
	Code     string  `json:"code" validate:"required,min=2,max=16"`
	Name     string  `json:"name" validate:"required,min=2"`
	Location *string `json:"location,omitempty"`
}

type baseUpdateRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2"`
	Location *string `json:"location,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// BaseCreate registers a new base. Admin only.
func BaseCreate(svc *bases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body baseCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), bases.CreateBaseInput{
			Actor:    actor,
			Code:     body.Code,
			Name:     body.Name,
			Location: body.Location,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// BaseGet loads one base by id.
func BaseGet(svc *bases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "baseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		base, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, base)
	}
}

// BaseList pages through bases.
func BaseList(svc *bases.Service, logg *logger.Logger) http.HandlerFunc {
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
		activeOnly, err := validators.ParseQueryBool(r, "active_only")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), bases.ListBasesInput{
			Actor:      actor,
			ActiveOnly: activeOnly,
			Pagination: page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"bases":       result.Bases,
			"next_cursor": result.NextCursor,
		})
	}
}

// BaseUpdate edits mutable base fields. Admin only.
func BaseUpdate(svc *bases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "baseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body baseUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Name == nil && body.Location == nil && body.IsActive == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update"))
			return
		}

		updated, err := svc.Update(r.Context(), bases.UpdateBaseInput{
			Actor:    actor,
			BaseID:   id,
			Name:     body.Name,
			Location: body.Location,
			IsActive: body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// BaseDelete removes or deactivates a base. Admin only.
func BaseDelete(svc *bases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "baseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
