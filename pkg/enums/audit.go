package enums

import "fmt"

// AuditAction names a mutating operation recorded in the audit log.
type AuditAction string

const (
	AuditActionCreate           AuditAction = "create"
	AuditActionUpdate           AuditAction = "update"
	AuditActionDelete           AuditAction = "delete"
	AuditActionDeactivate       AuditAction = "deactivate"
	AuditActionAssign           AuditAction = "assign"
	AuditActionReturn           AuditAction = "return"
	AuditActionExpend           AuditAction = "expend"
	AuditActionTransferApprove  AuditAction = "transfer_approve"
	AuditActionTransferComplete AuditAction = "transfer_complete"
	AuditActionTransferCancel   AuditAction = "transfer_cancel"
)

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// EntityType names the kind of row an audit record points at.
type EntityType string

const (
	EntityTypeBase        EntityType = "base"
	EntityTypeUser        EntityType = "user"
	EntityTypeAsset       EntityType = "asset"
	EntityTypePurchase    EntityType = "purchase"
	EntityTypeTransfer    EntityType = "transfer"
	EntityTypeAssignment  EntityType = "assignment"
	EntityTypeExpenditure EntityType = "expenditure"
)

var validEntityTypes = []EntityType{
	EntityTypeBase,
	EntityTypeUser,
	EntityTypeAsset,
	EntityTypePurchase,
	EntityTypeTransfer,
	EntityTypeAssignment,
	EntityTypeExpenditure,
}

// String implements fmt.Stringer.
func (e EntityType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EntityType.
func (e EntityType) IsValid() bool {
	for _, candidate := range validEntityTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEntityType converts raw input into an EntityType.
func ParseEntityType(value string) (EntityType, error) {
	for _, candidate := range validEntityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity type %q", value)
}
