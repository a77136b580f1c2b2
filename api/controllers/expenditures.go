package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dmreyes/milasset-backend/api/responses"
	"github.com/dmreyes/milasset-backend/api/validators"
	"github.com/dmreyes/milasset-backend/internal/expenditures"
	"github.com/dmreyes/milasset-backend/pkg/logger"
)

type expenditureCreateRequest struct {
	AssetID  uuid.UUID `json:"asset_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
	Reason   string    `json:"reason" validate:"required,min=1"`
	Notes    *string   `json:"notes,omitempty"`
}

// ExpenditureCreate marks an asset as consumed. Irreversible.
func ExpenditureCreate(svc *expenditures.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body expenditureCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), expenditures.CreateExpenditureInput{
			Actor:    actor,
			AssetID:  body.AssetID,
			Quantity: body.Quantity,
			Reason:   body.Reason,
			Notes:    body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ExpenditureGet loads one expenditure visible to the actor.
func ExpenditureGet(svc *expenditures.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "expenditureId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		expenditure, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, expenditure)
	}
}

// ExpenditureList pages through expenditures with the optional filters.
func ExpenditureList(svc *expenditures.Service, logg *logger.Logger) http.HandlerFunc {
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

		input := expenditures.ListExpendituresInput{Actor: actor, Pagination: page}
		if input.AssetID, err = validators.ParseQueryUUID(r, "asset_id"); err != nil {
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
			"expenditures": result.Expenditures,
			"next_cursor":  result.NextCursor,
		})
	}
}
