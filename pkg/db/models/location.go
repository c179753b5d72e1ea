package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Comnyando/craftstock-backend/pkg/enums"
)

// Location is a place stock can sit: a station, ship, player inventory,
// warehouse or structure. Locations form a tree via ParentLocationID and may
// link to a canonical public location. Ownership rules are enforced outside
// the engine; only identity and accessibility are read here.
type Location struct {
	ID                  uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                string             `gorm:"column:name;not null" json:"name"`
	Type                enums.LocationType `gorm:"column:type;type:location_type_enum;not null" json:"type"`
	OwnerID             uuid.UUID          `gorm:"column:owner_id;type:uuid;not null" json:"owner_id"`
	ParentLocationID    *uuid.UUID         `gorm:"column:parent_location_id;type:uuid" json:"parent_location_id,omitempty"`
	CanonicalLocationID *uuid.UUID         `gorm:"column:canonical_location_id;type:uuid" json:"canonical_location_id,omitempty"`
	IsAccessible        bool               `gorm:"column:is_accessible;not null;default:true" json:"is_accessible"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
