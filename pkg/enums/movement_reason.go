package enums

import "fmt"

// MovementReason classifies entries in the stock movement history.
type MovementReason string

const (
	MovementReasonAdjust       MovementReason = "adjust"
	MovementReasonTransferIn   MovementReason = "transfer_in"
	MovementReasonTransferOut  MovementReason = "transfer_out"
	MovementReasonCraftConsume MovementReason = "craft_consume"
	MovementReasonCraftOutput  MovementReason = "craft_output"
)

var validMovementReasons = []MovementReason{
	MovementReasonAdjust,
	MovementReasonTransferIn,
	MovementReasonTransferOut,
	MovementReasonCraftConsume,
	MovementReasonCraftOutput,
}

// String implements fmt.Stringer.
func (m MovementReason) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementReason.
func (m MovementReason) IsValid() bool {
	for _, candidate := range validMovementReasons {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementReason converts raw input into a MovementReason.
func ParseMovementReason(value string) (MovementReason, error) {
	for _, candidate := range validMovementReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement reason %q", value)
}
