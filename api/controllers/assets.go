package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmreyes/milasset-backend/api/responses"
	"github.com/dmreyes/milasset-backend/api/validators"
	"github.com/dmreyes/milasset-backend/internal/assets"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/milasset-backend/pkg/errors"
	"github.com/dmreyes/milasset-backend/pkg/logger"
)

type assetCreateRequest struct {
	SerialNumber  string           `json:"serial_number" validate:"required,min=1"`
	Name          string           `json:"name" validate:"required,min=1"`
	Category      string           `json:"category" validate:"required"`
	BaseID        uuid.UUID        `json:"base_id" validate:"required"`
	Value         *decimal.Decimal `json:"value,omitempty"`
	AcquiredAt    *time.Time       `json:"acquired_at,omitempty"`
	WarrantyUntil *time.Time       `json:"warranty_until,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

type assetUpdateRequest struct {
	Name          *string          `json:"name,omitempty" validate:"omitempty,min=1"`
	Status        *string          `json:"status,omitempty"`
	Value         *decimal.Decimal `json:"value,omitempty"`
	AcquiredAt    *time.Time       `json:"acquired_at,omitempty"`
	WarrantyUntil *time.Time       `json:"warranty_until,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

// AssetCreate registers an asset at a base.
func AssetCreate(svc *assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assetCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := enums.ParseAssetCategory(body.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}

		created, err := svc.Create(r.Context(), assets.CreateAssetInput{
			Actor:         actor,
			SerialNumber:  body.SerialNumber,
			Name:          body.Name,
			Category:      category,
			BaseID:        body.BaseID,
			Value:         body.Value,
			AcquiredAt:    body.AcquiredAt,
			WarrantyUntil: body.WarrantyUntil,
			Notes:         body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// AssetGet loads one asset visible to the actor.
func AssetGet(svc *assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asset, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, asset)
	}
}

// AssetList pages through assets with the optional filters.
func AssetList(svc *assets.Service, logg *logger.Logger) http.HandlerFunc {
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

		input := assets.ListAssetsInput{
			Actor:      actor,
			Serial:     validators.SanitizeString(r.URL.Query().Get("serial"), 128),
			Pagination: page,
		}
		if raw := validators.SanitizeString(r.URL.Query().Get("status"), 32); raw != "" {
			status, err := enums.ParseAssetStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}
		if raw := validators.SanitizeString(r.URL.Query().Get("category"), 32); raw != "" {
			category, err := enums.ParseAssetCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			input.Category = &category
		}
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
			"assets":      result.Assets,
			"next_cursor": result.NextCursor,
		})
	}
}

// AssetUpdate edits mutable fields; status edits follow the manual-change
// rules.
func AssetUpdate(svc *assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assetUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := assets.UpdateAssetInput{
			Actor:         actor,
			AssetID:       id,
			Name:          body.Name,
			Value:         body.Value,
			AcquiredAt:    body.AcquiredAt,
			WarrantyUntil: body.WarrantyUntil,
			Notes:         body.Notes,
		}
		if body.Status != nil {
			status, err := enums.ParseAssetStatus(*body.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}

		updated, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// AssetDelete removes an asset with no history.
func AssetDelete(svc *assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "assetId")
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
