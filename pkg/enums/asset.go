package enums

import "fmt"

// AssetCategory represents the canonical asset_category enum in Postgres.
type AssetCategory string

const (
	AssetCategoryVehicle       AssetCategory = "VEHICLE"
	AssetCategoryWeapon        AssetCategory = "WEAPON"
	AssetCategoryAmmunition    AssetCategory = "AMMUNITION"
	AssetCategoryCommunication AssetCategory = "COMMUNICATION"
	AssetCategoryMedical       AssetCategory = "MEDICAL"
	AssetCategorySupply        AssetCategory = "SUPPLY"
	AssetCategoryOther         AssetCategory = "OTHER"
)

var validAssetCategories = []AssetCategory{
	AssetCategoryVehicle,
	AssetCategoryWeapon,
	AssetCategoryAmmunition,
	AssetCategoryCommunication,
	AssetCategoryMedical,
	AssetCategorySupply,
	AssetCategoryOther,
}

// String implements fmt.Stringer.
func (c AssetCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known AssetCategory.
func (c AssetCategory) IsValid() bool {
	for _, candidate := range validAssetCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseAssetCategory converts raw input into an AssetCategory.
func ParseAssetCategory(value string) (AssetCategory, error) {
	for _, candidate := range validAssetCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid asset category %q", value)
}

// AssetStatus captures the lifecycle state of a tracked asset.
type AssetStatus string

const (
	AssetStatusAvailable      AssetStatus = "AVAILABLE"
	AssetStatusAssigned       AssetStatus = "ASSIGNED"
	AssetStatusInTransit      AssetStatus = "IN_TRANSIT"
	AssetStatusMaintenance    AssetStatus = "MAINTENANCE"
	AssetStatusExpended       AssetStatus = "EXPENDED"
	AssetStatusDecommissioned AssetStatus = "DECOMMISSIONED"
)

var validAssetStatuses = []AssetStatus{
	AssetStatusAvailable,
	AssetStatusAssigned,
	AssetStatusInTransit,
	AssetStatusMaintenance,
	AssetStatusExpended,
	AssetStatusDecommissioned,
}

// String implements fmt.Stringer.
func (s AssetStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AssetStatus.
func (s AssetStatus) IsValid() bool {
	for _, candidate := range validAssetStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether an asset can ever leave this status.
func (s AssetStatus) IsTerminal() bool {
	return s == AssetStatusExpended || s == AssetStatusDecommissioned
}

// ParseAssetStatus converts raw input into an AssetStatus.
func ParseAssetStatus(value string) (AssetStatus, error) {
	for _, candidate := range validAssetStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid asset status %q", value)
}
