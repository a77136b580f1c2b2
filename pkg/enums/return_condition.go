package enums

import "fmt"

// ReturnCondition is the condition tag supplied when an assignment is returned.
// It decides the asset's next status.
type ReturnCondition string

const (
	ReturnConditionGood             ReturnCondition = "GOOD"
	ReturnConditionDamaged          ReturnCondition = "DAMAGED"
	ReturnConditionNeedsMaintenance ReturnCondition = "NEEDS_MAINTENANCE"
	ReturnConditionDecommissioned   ReturnCondition = "DECOMMISSIONED"
)

var validReturnConditions = []ReturnCondition{
	ReturnConditionGood,
	ReturnConditionDamaged,
	ReturnConditionNeedsMaintenance,
	ReturnConditionDecommissioned,
}

// String implements fmt.Stringer.
func (c ReturnCondition) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ReturnCondition.
func (c ReturnCondition) IsValid() bool {
	for _, candidate := range validReturnConditions {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseReturnCondition converts raw input into a ReturnCondition.
func ParseReturnCondition(value string) (ReturnCondition, error) {
	for _, candidate := range validReturnConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return condition %q", value)
}
