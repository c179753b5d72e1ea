package enums

import "fmt"

// SourceType identifies where a craft ingredient is supplied from.
type SourceType string

const (
	SourceTypeStock    SourceType = "stock"
	SourceTypePlayer   SourceType = "player"
	SourceTypeUniverse SourceType = "universe"
)

var validSourceTypes = []SourceType{
	SourceTypeStock,
	SourceTypePlayer,
	SourceTypeUniverse,
}

// String implements fmt.Stringer.
func (s SourceType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SourceType.
func (s SourceType) IsValid() bool {
	for _, candidate := range validSourceTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSourceType converts raw input into a SourceType.
func ParseSourceType(value string) (SourceType, error) {
	for _, candidate := range validSourceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid source type %q", value)
}
