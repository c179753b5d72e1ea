package sources

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Comnyando/craftstock-backend/pkg/enums"
)

// FindOptions tunes the candidate search and ranking.
type FindOptions struct {
	OwnerID                 uuid.UUID
	MaxSources              int
	IncludePlayerStocks     bool
	MinReliability          decimal.Decimal
	PreferLowerCost         bool
	PreferHigherReliability bool
}

// FindInput asks for ranked sources covering RequiredQty of one item.
type FindInput struct {
	ItemID      uuid.UUID
	RequiredQty decimal.Decimal
	Options     FindOptions
}

// Source is one ranked candidate.
type Source struct {
	Type        enums.SourceType `json:"type"`
	LocationID  *uuid.UUID       `json:"location_id,omitempty"`
	PlayerName  string           `json:"player_name,omitempty"`
	Available   decimal.Decimal  `json:"available"`
	UnitCost    decimal.Decimal  `json:"unit_cost"`
	Reliability decimal.Decimal  `json:"reliability"`
	OwnStock    bool             `json:"own_stock"`
}

// FindResult carries the ranked, truncated candidate list. TotalAvailable
// sums every candidate that survived filtering, before truncation.
type FindResult struct {
	Sources        []Source        `json:"sources"`
	TotalAvailable decimal.Decimal `json:"total_available"`
	HasSufficient  bool            `json:"has_sufficient"`
}
