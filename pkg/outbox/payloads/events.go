package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Comnyando/craftstock-backend/pkg/enums"
)

// CraftCreatedEvent signals a new craft entering the queue.
type CraftCreatedEvent struct {
	CraftID          uuid.UUID         `json:"craft_id"`
	BlueprintID      uuid.UUID         `json:"blueprint_id"`
	Status           enums.CraftStatus `json:"status"`
	Priority         int               `json:"priority"`
	OutputLocationID uuid.UUID         `json:"output_location_id"`
	ReservedCount    int               `json:"reserved_count"`
	IngredientCount  int               `json:"ingredient_count"`
}

// CraftStartedEvent is emitted when a craft moves to in_progress.
type CraftStartedEvent struct {
	CraftID     uuid.UUID `json:"craft_id"`
	BlueprintID uuid.UUID `json:"blueprint_id"`
	StartedAt   time.Time `json:"started_at"`
}

// CraftCompletedEvent surfaces the consumed inputs and produced output.
type CraftCompletedEvent struct {
	CraftID          uuid.UUID       `json:"craft_id"`
	BlueprintID      uuid.UUID       `json:"blueprint_id"`
	OutputItemID     uuid.UUID       `json:"output_item_id"`
	OutputLocationID uuid.UUID       `json:"output_location_id"`
	OutputQuantity   decimal.Decimal `json:"output_quantity"`
	CompletedAt      time.Time       `json:"completed_at"`
}

// CraftCancelledEvent is emitted when a craft is cancelled and its
// reservations are released.
type CraftCancelledEvent struct {
	CraftID       uuid.UUID `json:"craft_id"`
	BlueprintID   uuid.UUID `json:"blueprint_id"`
	ReleasedCount int       `json:"released_count"`
	CancelledAt   time.Time `json:"cancelled_at"`
}

// StockAdjustedEvent reports a manual on-hand quantity change.
type StockAdjustedEvent struct {
	ItemID     uuid.UUID            `json:"item_id"`
	LocationID uuid.UUID            `json:"location_id"`
	Delta      decimal.Decimal      `json:"delta"`
	Quantity   decimal.Decimal      `json:"quantity"`
	Reason     enums.MovementReason `json:"reason"`
}

// StockTransferredEvent reports a quantity moved between two locations.
type StockTransferredEvent struct {
	ItemID         uuid.UUID       `json:"item_id"`
	FromLocationID uuid.UUID       `json:"from_location_id"`
	ToLocationID   uuid.UUID       `json:"to_location_id"`
	Quantity       decimal.Decimal `json:"quantity"`
}
