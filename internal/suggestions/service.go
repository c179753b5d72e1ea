package suggestions

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Comnyando/craftstock-backend/internal/blueprints"
	"github.com/Comnyando/craftstock-backend/internal/sources"
	"github.com/Comnyando/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
	"github.com/Comnyando/craftstock-backend/pkg/logger"
)

// SuggestInput asks which blueprints could produce TargetQty of the target
// item from the caller's current stock.
type SuggestInput struct {
	TargetItemID   uuid.UUID
	TargetQty      decimal.Decimal
	MaxSuggestions int
	OwnerID        uuid.UUID
}

// Suggestion scores one candidate blueprint. AffordableRuns counts whole
// craft runs current stock can feed; SuggestedCount caps that at what the
// target quantity needs.
type Suggestion struct {
	BlueprintID             uuid.UUID       `json:"blueprint_id"`
	BlueprintName           string          `json:"blueprint_name"`
	OutputQuantity          decimal.Decimal `json:"output_quantity"`
	UsageCount              int             `json:"usage_count"`
	AffordableRuns          int64           `json:"affordable_runs"`
	SuggestedCount          int64           `json:"suggested_count"`
	AllIngredientsAvailable bool            `json:"all_ingredients_available"`
}

// SuggestResult is the ranked, truncated suggestion list.
type SuggestResult struct {
	TargetItemID uuid.UUID    `json:"target_item_id"`
	Suggestions  []Suggestion `json:"suggestions"`
}

// Service computes craft suggestions. Advisory only; it never reserves.
type Service interface {
	Suggest(ctx context.Context, input SuggestInput) (*SuggestResult, error)
}

type service struct {
	blueprints        blueprints.Repository
	finder            sources.Service
	defaultMaxResults int
	logg              *logger.Logger
}

// NewService wires the suggestion engine with its read dependencies.
func NewService(blueprintRepo blueprints.Repository, finder sources.Service, defaultMaxResults int, logg *logger.Logger) (Service, error) {
	if blueprintRepo == nil {
		return nil, fmt.Errorf("blueprint repository required")
	}
	if finder == nil {
		return nil, fmt.Errorf("source finder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if defaultMaxResults <= 0 {
		defaultMaxResults = 10
	}
	return &service{
		blueprints:        blueprintRepo,
		finder:            finder,
		defaultMaxResults: defaultMaxResults,
		logg:              logg,
	}, nil
}

func (s *service) Suggest(ctx context.Context, input SuggestInput) (*SuggestResult, error) {
	if input.TargetItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target item id is required")
	}
	if !input.TargetQty.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target quantity must be positive")
	}

	maxResults := input.MaxSuggestions
	if maxResults <= 0 {
		maxResults = s.defaultMaxResults
	}

	candidates, err := s.blueprints.ListProducing(ctx, input.TargetItemID)
	if err != nil {
		return nil, err
	}

	// one availability lookup per distinct ingredient item
	availability := map[uuid.UUID]decimal.Decimal{}
	lookup := func(itemID uuid.UUID) (decimal.Decimal, error) {
		if avail, ok := availability[itemID]; ok {
			return avail, nil
		}
		found, err := s.finder.Find(ctx, sources.FindInput{
			ItemID:      itemID,
			RequiredQty: decimal.Zero,
			Options:     sources.FindOptions{OwnerID: input.OwnerID, MaxSources: 1},
		})
		if err != nil {
			return decimal.Zero, err
		}
		availability[itemID] = found.TotalAvailable
		return found.TotalAvailable, nil
	}

	suggestions := make([]Suggestion, 0, len(candidates))
	for _, bp := range candidates {
		if !bp.OutputQuantity.IsPositive() {
			continue
		}

		affordable, err := s.affordableRuns(ctx, bp.Ingredients, lookup)
		if err != nil {
			return nil, err
		}

		neededRuns := input.TargetQty.Div(bp.OutputQuantity).Ceil().IntPart()
		if affordable < 0 {
			// no required ingredient constrains the run count; only the
			// target caps it
			affordable = neededRuns
		}
		suggested := affordable
		if neededRuns < suggested {
			suggested = neededRuns
		}
		if suggested < 0 {
			suggested = 0
		}

		allAvailable := true
		for _, ing := range bp.Ingredients {
			if ing.Optional {
				continue
			}
			avail, err := lookup(ing.ItemID)
			if err != nil {
				return nil, err
			}
			// vacuously true at suggested == 0: zero runs need nothing
			needed := ing.Quantity.Mul(decimal.NewFromInt(suggested))
			if avail.LessThan(needed) {
				allAvailable = false
				break
			}
		}

		suggestions = append(suggestions, Suggestion{
			BlueprintID:             bp.ID,
			BlueprintName:           bp.Name,
			OutputQuantity:          bp.OutputQuantity,
			UsageCount:              bp.UsageCount,
			AffordableRuns:          affordable,
			SuggestedCount:          suggested,
			AllIngredientsAvailable: allAvailable,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.AllIngredientsAvailable != b.AllIngredientsAvailable {
			return a.AllIngredientsAvailable
		}
		if a.SuggestedCount != b.SuggestedCount {
			return a.SuggestedCount > b.SuggestedCount
		}
		if a.UsageCount != b.UsageCount {
			return a.UsageCount > b.UsageCount
		}
		return a.BlueprintID.String() < b.BlueprintID.String()
	})
	if len(suggestions) > maxResults {
		suggestions = suggestions[:maxResults]
	}

	return &SuggestResult{TargetItemID: input.TargetItemID, Suggestions: suggestions}, nil
}

// affordableRuns is the bottleneck ingredient's whole-run count. Optional
// ingredients never constrain it. Returns -1 when no required ingredient
// constrains the count at all.
func (s *service) affordableRuns(
	ctx context.Context,
	ingredients []models.BlueprintIngredient,
	lookup func(uuid.UUID) (decimal.Decimal, error),
) (int64, error) {
	runs := int64(-1)
	for _, ing := range ingredients {
		if ing.Optional {
			continue
		}
		if !ing.Quantity.IsPositive() {
			continue
		}
		avail, err := lookup(ing.ItemID)
		if err != nil {
			return 0, err
		}
		ingRuns := avail.Div(ing.Quantity).Floor().IntPart()
		if runs < 0 || ingRuns < runs {
			runs = ingRuns
		}
	}
	return runs, nil
}
