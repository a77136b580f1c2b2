package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dmreyes/milasset-backend/api/responses"
	"github.com/dmreyes/milasset-backend/api/validators"
	"github.com/dmreyes/milasset-backend/internal/assignments"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/milasset-backend/pkg/errors"
	"github.com/dmreyes/milasset-backend/pkg/logger"
)

type assignmentCreateRequest struct {
	AssetID uuid.UUID `json:"asset_id" validate:"required"`
	UserID  uuid.UUID `json:"user_id" validate:"required"`
	Purpose string    `json:"purpose" validate:"required,min=1"`
}

type assignmentReturnRequest struct {
	Condition string  `json:"condition" validate:"required"`
	Notes     *string `json:"notes,omitempty"`
}

// AssignmentCreate hands an available asset to a user.
func AssignmentCreate(svc *assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assignmentCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Assign(r.Context(), assignments.AssignInput{
			Actor:   actor,
			AssetID: body.AssetID,
			UserID:  body.UserID,
			Purpose: body.Purpose,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// AssignmentReturn closes an open assignment with the reported condition.
func AssignmentReturn(svc *assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assignmentReturnRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		condition, err := enums.ParseReturnCondition(body.Condition)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition"))
			return
		}

		returned, err := svc.Return(r.Context(), assignments.ReturnInput{
			Actor:        actor,
			AssignmentID: id,
			Condition:    condition,
			Notes:        body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, returned)
	}
}

// AssignmentGet loads one assignment visible to the actor.
func AssignmentGet(svc *assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}

// AssignmentList pages through assignments with the optional filters.
func AssignmentList(svc *assignments.Service, logg *logger.Logger) http.HandlerFunc {
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

		input := assignments.ListAssignmentsInput{Actor: actor, Pagination: page}
		if input.AssetID, err = validators.ParseQueryUUID(r, "asset_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.UserID, err = validators.ParseQueryUUID(r, "user_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.OpenOnly, err = validators.ParseQueryBool(r, "open_only"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"assignments": result.Assignments,
			"next_cursor": result.NextCursor,
		})
	}
}
