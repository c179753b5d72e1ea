package enums

import "fmt"

// LocationType categorizes stock locations.
type LocationType string

const (
	LocationTypeStation         LocationType = "station"
	LocationTypeShip            LocationType = "ship"
	LocationTypePlayerInventory LocationType = "player_inventory"
	LocationTypeWarehouse       LocationType = "warehouse"
	LocationTypeStructure       LocationType = "structure"
)

var validLocationTypes = []LocationType{
	LocationTypeStation,
	LocationTypeShip,
	LocationTypePlayerInventory,
	LocationTypeWarehouse,
	LocationTypeStructure,
}

// String implements fmt.Stringer.
func (l LocationType) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LocationType.
func (l LocationType) IsValid() bool {
	for _, candidate := range validLocationTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLocationType converts raw input into a LocationType.
func ParseLocationType(value string) (LocationType, error) {
	for _, candidate := range validLocationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid location type %q", value)
}
