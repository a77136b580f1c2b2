package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dmreyes/milasset-backend/api/responses"
	"github.com/dmreyes/milasset-backend/api/validators"
	"github.com/dmreyes/milasset-backend/internal/scope"
	"github.com/dmreyes/milasset-backend/internal/transfers"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/milasset-backend/pkg/errors"
	"github.com/dmreyes/milasset-backend/pkg/logger"
)

type transferCreateRequest struct {
	FromBaseID uuid.UUID   `json:"from_base_id" validate:"required"`
	ToBaseID   uuid.UUID   `json:"to_base_id" validate:"required"`
	AssetIDs   []uuid.UUID `json:"asset_ids" validate:"required,min=1"`
	Notes      *string     `json:"notes,omitempty"`
}

// TransferCreate opens a transfer and locks its assets in transit.
func TransferCreate(svc *transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body transferCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Create(r.Context(), transfers.CreateTransferInput{
			Actor:      actor,
			FromBaseID: body.FromBaseID,
			ToBaseID:   body.ToBaseID,
			AssetIDs:   body.AssetIDs,
			Notes:      body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, transferDetailPayload(detail))
	}
}

// TransferApprove moves a pending transfer to APPROVED.
func TransferApprove(svc *transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return transferTransition(logg, func(r *http.Request, svc *transfers.Service, actor scope.Actor, id uuid.UUID) (any, error) {
		return svc.Approve(r.Context(), actor, id)
	}, svc)
}

// TransferComplete lands an approved transfer at the destination base.
func TransferComplete(svc *transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return transferTransition(logg, func(r *http.Request, svc *transfers.Service, actor scope.Actor, id uuid.UUID) (any, error) {
		return svc.Complete(r.Context(), actor, id)
	}, svc)
}

type transferCancelRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=1000"`
}

// TransferCancel aborts a live transfer, recording the reason in the transfer
// notes, and returns its assets to the source.
func TransferCancel(svc *transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "transferId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body transferCancelRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Cancel(r.Context(), actor, id, body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func transferTransition(logg *logger.Logger, fn func(*http.Request, *transfers.Service, scope.Actor, uuid.UUID) (any, error), svc *transfers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "transferId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := fn(r, svc, actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// TransferGet loads one transfer with its items.
func TransferGet(svc *transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "transferId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transferDetailPayload(detail))
	}
}

// TransferList pages through transfers touching the actor's scope.
func TransferList(svc *transfers.Service, logg *logger.Logger) http.HandlerFunc {
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

		input := transfers.ListTransfersInput{Actor: actor, Pagination: page}
		if raw := validators.SanitizeString(r.URL.Query().Get("status"), 32); raw != "" {
			status, err := enums.ParseTransferStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}
		if input.FromBaseID, err = validators.ParseQueryUUID(r, "from_base_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.ToBaseID, err = validators.ParseQueryUUID(r, "to_base_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"transfers":   result.Transfers,
			"next_cursor": result.NextCursor,
		})
	}
}

func transferDetailPayload(detail *transfers.Detail) map[string]any {
	return map[string]any{
		"transfer": detail.Transfer,
		"items":    detail.Items,
	}
}
