package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlayerStock is an externally-tracked stock observation for another player.
// Rows are maintained by importers outside the engine; the Source Finder
// reads them when include_player_stocks is requested.
type PlayerStock struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ItemID      uuid.UUID       `gorm:"column:item_id;type:uuid;not null;index" json:"item_id"`
	PlayerName  string          `gorm:"column:player_name;not null" json:"player_name"`
	LocationID  *uuid.UUID      `gorm:"column:location_id;type:uuid" json:"location_id,omitempty"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric(20,4);not null" json:"quantity"`
	UnitCost    decimal.Decimal `gorm:"column:unit_cost;type:numeric(20,4);not null" json:"unit_cost"`
	Reliability decimal.Decimal `gorm:"column:reliability;type:numeric(5,4);not null;default:0.5" json:"reliability"`
	LastSeenAt  time.Time       `gorm:"column:last_seen_at;not null" json:"last_seen_at"`
}
