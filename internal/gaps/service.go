package gaps

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Comnyando/craftstock-backend/internal/crafts"
	"github.com/Comnyando/craftstock-backend/internal/sources"
	"github.com/Comnyando/craftstock-backend/internal/stock"
	"github.com/Comnyando/craftstock-backend/pkg/db/models"
	"github.com/Comnyando/craftstock-backend/pkg/enums"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
	"github.com/Comnyando/craftstock-backend/pkg/logger"
)

// AnalyzeOptions tunes the alternative-source lookup for uncovered
// ingredients.
type AnalyzeOptions struct {
	MaxSources int
}

// IngredientGap reports one ingredient's coverage at its chosen source. A
// negative Gap means surplus; alternatives are attached only when Gap is
// positive.
type IngredientGap struct {
	IngredientID     uuid.UUID              `json:"ingredient_id"`
	ItemID           uuid.UUID              `json:"item_id"`
	SourceLocationID uuid.UUID              `json:"source_location_id"`
	SourceType       enums.SourceType       `json:"source_type"`
	Status           enums.IngredientStatus `json:"status"`
	Required         decimal.Decimal        `json:"required"`
	Available        decimal.Decimal        `json:"available"`
	Gap              decimal.Decimal        `json:"gap"`
	Alternatives     []sources.Source       `json:"alternatives,omitempty"`
}

// AnalysisResult reports per-ingredient coverage for a planned craft.
type AnalysisResult struct {
	CraftID    uuid.UUID       `json:"craft_id"`
	Gaps       []IngredientGap `json:"gaps"`
	TotalGaps  int             `json:"total_gaps"`
	CanProceed bool            `json:"can_proceed"`
}

// Service analyzes whether a planned craft's sources can cover its
// ingredients. Read-only; repeated calls see whatever stock exists at call
// time.
type Service interface {
	Analyze(ctx context.Context, craftID uuid.UUID, opts AnalyzeOptions) (*AnalysisResult, error)
}

type service struct {
	crafts        crafts.Repository
	stockRepo     stock.Repository
	sourceRepo    sources.Repository
	finder        sources.Service
	maxGapSources int
	logg          *logger.Logger
}

// NewService wires the gap analyzer with its read dependencies.
func NewService(
	craftRepo crafts.Repository,
	stockRepo stock.Repository,
	sourceRepo sources.Repository,
	finder sources.Service,
	maxGapSources int,
	logg *logger.Logger,
) (Service, error) {
	if craftRepo == nil {
		return nil, fmt.Errorf("craft repository required")
	}
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if sourceRepo == nil {
		return nil, fmt.Errorf("source repository required")
	}
	if finder == nil {
		return nil, fmt.Errorf("source finder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if maxGapSources <= 0 {
		maxGapSources = 5
	}
	return &service{
		crafts:        craftRepo,
		stockRepo:     stockRepo,
		sourceRepo:    sourceRepo,
		finder:        finder,
		maxGapSources: maxGapSources,
		logg:          logg,
	}, nil
}

func (s *service) Analyze(ctx context.Context, craftID uuid.UUID, opts AnalyzeOptions) (*AnalysisResult, error) {
	if craftID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "craft id is required")
	}

	craft, err := s.crafts.GetByID(ctx, craftID)
	if err != nil {
		return nil, err
	}
	if craft.Status != enums.CraftStatusPlanned {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "gap analysis only applies to planned crafts").
			WithDetails(map[string]any{"status": craft.Status})
	}

	maxSources := opts.MaxSources
	if maxSources <= 0 {
		maxSources = s.maxGapSources
	}

	result := &AnalysisResult{CraftID: craft.ID, Gaps: []IngredientGap{}, CanProceed: true}
	for _, ing := range craft.Ingredients {
		available, err := s.availableAtSource(ctx, ing)
		if err != nil {
			return nil, err
		}

		line := IngredientGap{
			IngredientID:     ing.ID,
			ItemID:           ing.ItemID,
			SourceLocationID: ing.SourceLocationID,
			SourceType:       ing.SourceType,
			Status:           ing.Status,
			Required:         ing.RequiredQuantity,
			Available:        available,
			Gap:              decimal.Zero,
		}
		// an existing hold already covers the ingredient; its line reports
		// zero gap regardless of what is still free at the source
		if ing.Status == enums.IngredientStatusPending {
			line.Gap = ing.RequiredQuantity.Sub(available)
		}

		if line.Gap.IsPositive() {
			alternatives, err := s.finder.Find(ctx, sources.FindInput{
				ItemID:      ing.ItemID,
				RequiredQty: line.Gap,
				Options: sources.FindOptions{
					OwnerID:    craft.CreatedBy,
					MaxSources: maxSources,
				},
			})
			if err != nil {
				return nil, err
			}
			line.Alternatives = alternatives.Sources
			result.TotalGaps++
			if !anySourceCovers(line.Alternatives, line.Gap) {
				result.CanProceed = false
			}
		}

		result.Gaps = append(result.Gaps, line)
	}

	logCtx := s.logg.WithCraftID(ctx, craft.ID.String())
	s.logg.Info(logCtx, "gap analysis complete")
	return result, nil
}

// anySourceCovers reports whether a single candidate can supply the whole
// remainder.
func anySourceCovers(candidates []sources.Source, gap decimal.Decimal) bool {
	for _, c := range candidates {
		if c.Available.GreaterThanOrEqual(gap) {
			return true
		}
	}
	return false
}

// availableAtSource resolves the uncommitted quantity at the ingredient's
// chosen source. Player sources read the observed player rows instead of the
// ledger.
func (s *service) availableAtSource(ctx context.Context, ing models.CraftIngredient) (decimal.Decimal, error) {
	if ing.SourceType == enums.SourceTypePlayer {
		rows, err := s.sourceRepo.ListPlayerStocks(ctx, ing.ItemID)
		if err != nil {
			return decimal.Zero, err
		}
		total := decimal.Zero
		for _, row := range rows {
			if row.LocationID != nil && *row.LocationID == ing.SourceLocationID {
				total = total.Add(row.Quantity)
			}
		}
		return total, nil
	}

	entry, err := s.stockRepo.Get(ctx, ing.ItemID, ing.SourceLocationID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return entry.Quantity.Sub(entry.ReservedQuantity), nil
}
