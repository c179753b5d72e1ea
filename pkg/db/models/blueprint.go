package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Blueprint describes how to craft an output item from an ordered list of
// ingredients. Immutable for the lifetime of any craft that references it.
type Blueprint struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name           string                `gorm:"column:name;not null" json:"name"`
	CraftingTime   int                   `gorm:"column:crafting_time_seconds;not null" json:"crafting_time_seconds"`
	OutputItemID   uuid.UUID             `gorm:"column:output_item_id;type:uuid;not null" json:"output_item_id"`
	OutputQuantity decimal.Decimal       `gorm:"column:output_quantity;type:numeric(20,4);not null" json:"output_quantity"`
	IsPublic       bool                  `gorm:"column:is_public;not null;default:false" json:"is_public"`
	UsageCount     int                   `gorm:"column:usage_count;not null;default:0" json:"usage_count"`
	Ingredients    []BlueprintIngredient `gorm:"foreignKey:BlueprintID;references:ID" json:"ingredients"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// BlueprintIngredient is one required input line of a blueprint. Position
// preserves the authored ordering.
type BlueprintIngredient struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BlueprintID uuid.UUID       `gorm:"column:blueprint_id;type:uuid;not null;index" json:"blueprint_id"`
	Position    int             `gorm:"column:position;not null" json:"position"`
	ItemID      uuid.UUID       `gorm:"column:item_id;type:uuid;not null" json:"item_id"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric(20,4);not null" json:"quantity"`
	Optional    bool            `gorm:"column:optional;not null;default:false" json:"optional"`
}
