package crafts

import (
	"time"

	"github.com/google/uuid"

	"github.com/Comnyando/craftstock-backend/pkg/enums"
)

// CreateInput queues a new craft for a blueprint. Sources maps item id to the
// caller's chosen source location; unset items default to the best finder
// candidate. Optional blueprint ingredients are included only when the caller
// names a source for them here.
type CreateInput struct {
	BlueprintID      uuid.UUID
	OutputLocationID uuid.UUID
	Priority         int
	ScheduledStart   *time.Time
	CreatedBy        uuid.UUID
	ReserveNow       bool
	Sources          map[uuid.UUID]uuid.UUID
}

// FailedIngredient describes one ingredient a reservation pass could not
// cover. Returned in error details.
type FailedIngredient struct {
	IngredientID uuid.UUID `json:"ingredient_id"`
	ItemID       uuid.UUID `json:"item_id"`
	LocationID   uuid.UUID `json:"location_id"`
	Requested    string    `json:"requested"`
	Reason       string    `json:"reason"`
}

// ProgressOutput is the derived, read-only completion state of a craft.
type ProgressOutput struct {
	CraftID             uuid.UUID         `json:"craft_id"`
	Status              enums.CraftStatus `json:"status"`
	CraftingTimeSeconds int               `json:"crafting_time_seconds"`
	ElapsedSeconds      int64             `json:"elapsed_seconds"`
	RemainingSeconds    int64             `json:"remaining_seconds"`
	PercentComplete     float64           `json:"percent_complete"`
	ScheduledStart      *time.Time        `json:"scheduled_start,omitempty"`
	StartedAt           *time.Time        `json:"started_at,omitempty"`
	CompletedAt         *time.Time        `json:"completed_at,omitempty"`
}
