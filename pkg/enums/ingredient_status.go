package enums

import "fmt"

// IngredientStatus tracks a craft ingredient's reservation lifecycle.
// Transitions are monotonic: pending -> reserved -> fulfilled, except that
// cancellation moves reserved back to pending.
type IngredientStatus string

const (
	IngredientStatusPending   IngredientStatus = "pending"
	IngredientStatusReserved  IngredientStatus = "reserved"
	IngredientStatusFulfilled IngredientStatus = "fulfilled"
)

var validIngredientStatuses = []IngredientStatus{
	IngredientStatusPending,
	IngredientStatusReserved,
	IngredientStatusFulfilled,
}

// String implements fmt.Stringer.
func (i IngredientStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known IngredientStatus.
func (i IngredientStatus) IsValid() bool {
	for _, candidate := range validIngredientStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseIngredientStatus converts raw input into an IngredientStatus.
func ParseIngredientStatus(value string) (IngredientStatus, error) {
	for _, candidate := range validIngredientStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ingredient status %q", value)
}
