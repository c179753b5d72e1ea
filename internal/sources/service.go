package sources

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Comnyando/craftstock-backend/pkg/enums"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
)

// Service ranks candidate sources for an item. Read-only; reservations are
// taken elsewhere.
type Service interface {
	Find(ctx context.Context, input FindInput) (*FindResult, error)
}

type service struct {
	repo              Repository
	defaultMaxSources int
}

// NewService wires the source finder with its repository.
func NewService(repo Repository, defaultMaxSources int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("source repository required")
	}
	if defaultMaxSources <= 0 {
		defaultMaxSources = 25
	}
	return &service{repo: repo, defaultMaxSources: defaultMaxSources}, nil
}

func (s *service) Find(ctx context.Context, input FindInput) (*FindResult, error) {
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if input.RequiredQty.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "required quantity must not be negative")
	}

	maxSources := input.Options.MaxSources
	if maxSources <= 0 {
		maxSources = s.defaultMaxSources
	}

	rows, err := s.repo.ListStockCandidates(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}

	candidates := make([]Source, 0, len(rows))
	for _, row := range rows {
		available := row.Quantity.Sub(row.ReservedQuantity)
		if !available.IsPositive() {
			continue
		}
		own := row.OwnerID == input.Options.OwnerID
		srcType := enums.SourceTypeUniverse
		if own {
			srcType = enums.SourceTypeStock
		}
		locationID := row.LocationID
		candidates = append(candidates, Source{
			Type:        srcType,
			LocationID:  &locationID,
			Available:   available,
			UnitCost:    row.UnitCost,
			Reliability: row.Reliability,
			OwnStock:    own,
		})
	}

	if input.Options.IncludePlayerStocks {
		playerRows, err := s.repo.ListPlayerStocks(ctx, input.ItemID)
		if err != nil {
			return nil, err
		}
		for _, row := range playerRows {
			if !row.Quantity.IsPositive() {
				continue
			}
			candidates = append(candidates, Source{
				Type:        enums.SourceTypePlayer,
				LocationID:  row.LocationID,
				PlayerName:  row.PlayerName,
				Available:   row.Quantity,
				UnitCost:    row.UnitCost,
				Reliability: row.Reliability,
			})
		}
	}

	if input.Options.MinReliability.IsPositive() {
		filtered := candidates[:0]
		for _, c := range candidates {
			if c.Reliability.GreaterThanOrEqual(input.Options.MinReliability) {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}

	rankSources(candidates, input.Options)

	total := decimal.Zero
	for _, c := range candidates {
		total = total.Add(c.Available)
	}

	if len(candidates) > maxSources {
		candidates = candidates[:maxSources]
	}

	return &FindResult{
		Sources:        candidates,
		TotalAvailable: total,
		HasSufficient:  total.GreaterThanOrEqual(input.RequiredQty),
	}, nil
}

// rankSources applies the fixed preference chain: own stock first, then cost
// ascending and reliability descending when enabled, with the location id as
// the deterministic tie-break.
func rankSources(candidates []Source, opts FindOptions) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.OwnStock != b.OwnStock {
			return a.OwnStock
		}
		if opts.PreferLowerCost && !a.UnitCost.Equal(b.UnitCost) {
			return a.UnitCost.LessThan(b.UnitCost)
		}
		if opts.PreferHigherReliability && !a.Reliability.Equal(b.Reliability) {
			return a.Reliability.GreaterThan(b.Reliability)
		}
		return tieBreakKey(a) < tieBreakKey(b)
	})
}

func tieBreakKey(s Source) string {
	if s.LocationID != nil {
		return s.LocationID.String()
	}
	return "~" + s.PlayerName
}
