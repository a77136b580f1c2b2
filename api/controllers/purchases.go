package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmreyes/milasset-backend/api/responses"
	"github.com/dmreyes/milasset-backend/api/validators"
	"github.com/dmreyes/milasset-backend/internal/purchases"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/milasset-backend/pkg/errors"
	"github.com/dmreyes/milasset-backend/pkg/logger"
)

type purchaseItemRequest struct {
	SerialNumber  string           `json:"serial_number" validate:"required,min=1"`
	Name          string           `json:"name" validate:"required,min=1"`
	Category      string           `json:"category" validate:"required"`
	Value         *decimal.Decimal `json:"value,omitempty"`
	WarrantyUntil *time.Time       `json:"warranty_until,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

type purchaseCreateRequest struct {
	OrderNumber string                `json:"order_number" validate:"required,min=1"`
	BaseID      uuid.UUID             `json:"base_id" validate:"required"`
	Supplier    *string               `json:"supplier,omitempty"`
	TotalCost   *decimal.Decimal      `json:"total_cost,omitempty"`
	PurchasedAt time.Time             `json:"purchased_at" validate:"required"`
	Notes       *string               `json:"notes,omitempty"`
	Items       []purchaseItemRequest `json:"items" validate:"required,min=1,dive"`
}

type purchaseUpdateRequest struct {
	Supplier  *string          `json:"supplier,omitempty"`
	TotalCost *decimal.Decimal `json:"total_cost,omitempty"`
	Notes     *string          `json:"notes,omitempty"`
}

// PurchaseCreate records a procurement and registers its assets.
func PurchaseCreate(svc *purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body purchaseCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]purchases.ItemInput, 0, len(body.Items))
		for _, item := range body.Items {
			category, err := enums.ParseAssetCategory(item.Category)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			items = append(items, purchases.ItemInput{
				SerialNumber:  item.SerialNumber,
				Name:          item.Name,
				Category:      category,
				Value:         item.Value,
				WarrantyUntil: item.WarrantyUntil,
				Notes:         item.Notes,
			})
		}

		result, err := svc.Create(r.Context(), purchases.CreatePurchaseInput{
			Actor:       actor,
			OrderNumber: body.OrderNumber,
			BaseID:      body.BaseID,
			Supplier:    body.Supplier,
			TotalCost:   body.TotalCost,
			PurchasedAt: body.PurchasedAt,
			Notes:       body.Notes,
			Items:       items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"purchase": result.Purchase,
			"assets":   result.Assets,
		})
	}
}

// PurchaseGet loads one purchase visible to the actor.
func PurchaseGet(svc *purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "purchaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchase, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, purchase)
	}
}

// PurchaseList pages through purchases with the optional base and date
// filters.
func PurchaseList(svc *purchases.Service, logg *logger.Logger) http.HandlerFunc {
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

		input := purchases.ListPurchasesInput{Actor: actor, Pagination: page}
		if input.BaseID, err = validators.ParseQueryUUID(r, "base_id"); err != nil {
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
			"purchases":   result.Purchases,
			"next_cursor": result.NextCursor,
		})
	}
}

// PurchaseUpdate edits descriptive fields only; the asset set is immutable.
func PurchaseUpdate(svc *purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "purchaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body purchaseUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), purchases.UpdatePurchaseInput{
			Actor:      actor,
			PurchaseID: id,
			Supplier:   body.Supplier,
			TotalCost:  body.TotalCost,
			Notes:      body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}
