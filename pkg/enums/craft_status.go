package enums

import "fmt"

// CraftStatus tracks the lifecycle state of a craft job.
type CraftStatus string

const (
	CraftStatusPlanned    CraftStatus = "planned"
	CraftStatusInProgress CraftStatus = "in_progress"
	CraftStatusCompleted  CraftStatus = "completed"
	CraftStatusCancelled  CraftStatus = "cancelled"
)

var validCraftStatuses = []CraftStatus{
	CraftStatusPlanned,
	CraftStatusInProgress,
	CraftStatusCompleted,
	CraftStatusCancelled,
}

// String implements fmt.Stringer.
func (c CraftStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CraftStatus.
func (c CraftStatus) IsValid() bool {
	for _, candidate := range validCraftStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (c CraftStatus) IsTerminal() bool {
	return c == CraftStatusCompleted || c == CraftStatusCancelled
}

// CanTransitionTo reports whether the lifecycle allows moving to target.
func (c CraftStatus) CanTransitionTo(target CraftStatus) bool {
	switch c {
	case CraftStatusPlanned:
		return target == CraftStatusInProgress || target == CraftStatusCancelled
	case CraftStatusInProgress:
		return target == CraftStatusCompleted || target == CraftStatusCancelled
	default:
		return false
	}
}

// ParseCraftStatus converts raw input into a CraftStatus.
func ParseCraftStatus(value string) (CraftStatus, error) {
	for _, candidate := range validCraftStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid craft status %q", value)
}
