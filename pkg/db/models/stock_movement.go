package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Comnyando/craftstock-backend/pkg/enums"
)

// StockMovement is the append-only audit record for every on-hand quantity
// mutation. Rows are never updated or deleted.
type StockMovement struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ItemID     uuid.UUID            `gorm:"column:item_id;type:uuid;not null" json:"item_id"`
	LocationID uuid.UUID            `gorm:"column:location_id;type:uuid;not null" json:"location_id"`
	Delta      decimal.Decimal      `gorm:"column:delta;type:numeric(20,4);not null" json:"delta"`
	Reason     enums.MovementReason `gorm:"column:reason;type:movement_reason_enum;not null" json:"reason"`
	ActorID    uuid.UUID            `gorm:"column:actor_id;type:uuid;not null" json:"actor_id"`
	CraftID    *uuid.UUID           `gorm:"column:craft_id;type:uuid" json:"craft_id,omitempty"`
	Note       *string              `gorm:"column:note" json:"note,omitempty"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
