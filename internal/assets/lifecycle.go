package assets

import (
	"github.com/google/uuid"

	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/milasset-backend/pkg/errors"
)

// The lifecycle rules are pure: callers pass the current snapshot of the
// asset and its relations, and get back the permitted next status or a
// conflict error naming the broken rule. All I/O stays in the workflows.

// NextForAssignment decides whether the asset can be handed to a user.
// The holder must belong to the asset's base.
func NextForAssignment(asset models.Asset, hasOpenAssignment bool, holderBaseID *uuid.UUID) (enums.AssetStatus, error) {
	if asset.Status != enums.AssetStatusAvailable {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "asset is not available for assignment")
	}
	if hasOpenAssignment {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "asset already has an open assignment")
	}
	if holderBaseID == nil || *holderBaseID != asset.BaseID {
		return "", pkgerrors.New(pkgerrors.CodeConflict, "holder does not belong to the asset's base")
	}
	return enums.AssetStatusAssigned, nil
}

// NextForReturn maps the reported condition to the asset's next status.
// The assignment being returned must still be open.
func NextForReturn(assignment models.Assignment, condition enums.ReturnCondition) (enums.AssetStatus, error) {
	if !assignment.Open() {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "assignment already returned")
	}
	switch condition {
	case enums.ReturnConditionGood:
		return enums.AssetStatusAvailable, nil
	case enums.ReturnConditionDamaged, enums.ReturnConditionNeedsMaintenance:
		return enums.AssetStatusMaintenance, nil
	case enums.ReturnConditionDecommissioned:
		return enums.AssetStatusDecommissioned, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown return condition")
	}
}

// NextForTransferCreate decides whether the asset can join a new transfer
// sourced at fromBaseID.
func NextForTransferCreate(asset models.Asset, fromBaseID uuid.UUID) (enums.AssetStatus, error) {
	if asset.Status != enums.AssetStatusAvailable {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "asset is not available for transfer")
	}
	if asset.BaseID != fromBaseID {
		return "", pkgerrors.New(pkgerrors.CodeConflict, "asset does not belong to the source base")
	}
	return enums.AssetStatusInTransit, nil
}

// NextForTransferComplete releases a member asset at the destination. The
// caller reassigns the base alongside the status write.
func NextForTransferComplete(transfer models.Transfer) (enums.AssetStatus, error) {
	if transfer.Status != enums.TransferStatusApproved {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "transfer is not approved")
	}
	return enums.AssetStatusAvailable, nil
}

// NextForTransferCancel reverts a member asset at its original base.
func NextForTransferCancel(transfer models.Transfer) (enums.AssetStatus, error) {
	if transfer.Status.IsTerminal() {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "transfer already finished")
	}
	return enums.AssetStatusAvailable, nil
}

// NextForExpenditure decides whether the asset can be consumed. Terminal
// statuses never move again.
func NextForExpenditure(asset models.Asset) (enums.AssetStatus, error) {
	switch asset.Status {
	case enums.AssetStatusExpended:
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "asset already expended")
	case enums.AssetStatusDecommissioned:
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "asset is decommissioned")
	case enums.AssetStatusInTransit:
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "asset is in transit")
	}
	return enums.AssetStatusExpended, nil
}

// manual status changes permitted through the asset update endpoint
var manualTransitions = map[enums.AssetStatus][]enums.AssetStatus{
	enums.AssetStatusAvailable:   {enums.AssetStatusMaintenance, enums.AssetStatusDecommissioned},
	enums.AssetStatusMaintenance: {enums.AssetStatusAvailable, enums.AssetStatusDecommissioned},
}

// NextForManualChange validates a direct status edit. Workflow-owned
// statuses (ASSIGNED, IN_TRANSIT, EXPENDED) are never set by hand.
func NextForManualChange(asset models.Asset, requested enums.AssetStatus) (enums.AssetStatus, error) {
	if !requested.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown asset status")
	}
	if requested == asset.Status {
		return requested, nil
	}
	for _, allowed := range manualTransitions[asset.Status] {
		if allowed == requested {
			return requested, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeStateConflict, "status change not permitted from current state")
}
