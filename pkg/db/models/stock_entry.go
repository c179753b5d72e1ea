package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockEntry is the single source of truth for on-hand vs reserved quantity
// at one (item, location) key. Invariant: 0 <= reserved_quantity <= quantity.
// No other table or field may be used to infer availability.
type StockEntry struct {
	ItemID           uuid.UUID       `gorm:"column:item_id;type:uuid;primaryKey" json:"item_id"`
	LocationID       uuid.UUID       `gorm:"column:location_id;type:uuid;primaryKey" json:"location_id"`
	Quantity         decimal.Decimal `gorm:"column:quantity;type:numeric(20,4);not null" json:"quantity"`
	ReservedQuantity decimal.Decimal `gorm:"column:reserved_quantity;type:numeric(20,4);not null" json:"reserved_quantity"`
	UnitCost         decimal.Decimal `gorm:"column:unit_cost;type:numeric(20,4);not null" json:"unit_cost"`
	Reliability      decimal.Decimal `gorm:"column:reliability;type:numeric(5,4);not null;default:1" json:"reliability"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Available returns the quantity not held by reservations.
func (s StockEntry) Available() decimal.Decimal {
	return s.Quantity.Sub(s.ReservedQuantity)
}
