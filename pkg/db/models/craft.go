package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Comnyando/craftstock-backend/pkg/enums"
)

// Craft is one queued/running/finished execution of a blueprint. It owns its
// ingredients: they are created with the craft and destroyed only with it.
type Craft struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BlueprintID      uuid.UUID         `gorm:"column:blueprint_id;type:uuid;not null" json:"blueprint_id"`
	Status           enums.CraftStatus `gorm:"column:status;type:craft_status_enum;not null" json:"status"`
	Priority         int               `gorm:"column:priority;not null;default:0" json:"priority"`
	OutputLocationID uuid.UUID         `gorm:"column:output_location_id;type:uuid;not null" json:"output_location_id"`
	ScheduledStart   *time.Time        `gorm:"column:scheduled_start" json:"scheduled_start,omitempty"`
	StartedAt        *time.Time        `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt      *time.Time        `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedBy        uuid.UUID         `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	Ingredients      []CraftIngredient `gorm:"foreignKey:CraftID;references:ID" json:"ingredients"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// CraftIngredient binds one blueprint ingredient line to a chosen source for
// the lifetime of a craft.
type CraftIngredient struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CraftID          uuid.UUID              `gorm:"column:craft_id;type:uuid;not null;index" json:"craft_id"`
	Position         int                    `gorm:"column:position;not null" json:"position"`
	ItemID           uuid.UUID              `gorm:"column:item_id;type:uuid;not null" json:"item_id"`
	RequiredQuantity decimal.Decimal        `gorm:"column:required_quantity;type:numeric(20,4);not null" json:"required_quantity"`
	SourceLocationID uuid.UUID              `gorm:"column:source_location_id;type:uuid;not null" json:"source_location_id"`
	SourceType       enums.SourceType       `gorm:"column:source_type;type:source_type_enum;not null" json:"source_type"`
	Status           enums.IngredientStatus `gorm:"column:status;type:ingredient_status_enum;not null" json:"status"`
	Optional         bool                   `gorm:"column:optional;not null;default:false" json:"optional"`
}
