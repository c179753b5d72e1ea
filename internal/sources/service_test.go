package sources

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Comnyando/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
)

type stubRepo struct {
	stockRows  []StockCandidateRow
	playerRows []models.PlayerStock
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) ListStockCandidates(ctx context.Context, itemID uuid.UUID) ([]StockCandidateRow, error) {
	return s.stockRows, nil
}

func (s *stubRepo) ListPlayerStocks(ctx context.Context, itemID uuid.UUID) ([]models.PlayerStock, error) {
	return s.playerRows, nil
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decf(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func row(owner uuid.UUID, qty, reserved, cost int64, reliability float64) StockCandidateRow {
	return StockCandidateRow{
		ItemID:           uuid.New(),
		LocationID:       uuid.New(),
		Quantity:         dec(qty),
		ReservedQuantity: dec(reserved),
		UnitCost:         dec(cost),
		Reliability:      decf(reliability),
		OwnerID:          owner,
	}
}

func TestFindOwnStockRanksFirst(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	foreign := uuid.New()
	own := row(owner, 5, 0, 50, 0.9)
	cheap := row(foreign, 100, 0, 1, 1.0)

	svc, err := NewService(&stubRepo{stockRows: []StockCandidateRow{cheap, own}}, 25)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.Find(context.Background(), FindInput{
		ItemID:      uuid.New(),
		RequiredQty: dec(10),
		Options:     FindOptions{OwnerID: owner, PreferLowerCost: true},
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(result.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(result.Sources))
	}
	if !result.Sources[0].OwnStock {
		t.Fatal("expected own stock ranked first despite higher cost")
	}
	if !result.TotalAvailable.Equal(dec(105)) {
		t.Fatalf("expected total 105, got %s", result.TotalAvailable)
	}
	if !result.HasSufficient {
		t.Fatal("expected has_sufficient")
	}
}

func TestFindCostAndReliabilityToggles(t *testing.T) {
	t.Parallel()

	foreign := uuid.New()
	expensive := row(foreign, 10, 0, 9, 0.9)
	cheapLowRel := row(foreign, 10, 0, 2, 0.3)
	cheapHighRel := StockCandidateRow{
		ItemID:           cheapLowRel.ItemID,
		LocationID:       uuid.New(),
		Quantity:         dec(10),
		ReservedQuantity: dec(0),
		UnitCost:         dec(2),
		Reliability:      decf(0.8),
		OwnerID:          foreign,
	}

	svc, err := NewService(&stubRepo{stockRows: []StockCandidateRow{expensive, cheapLowRel, cheapHighRel}}, 25)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.Find(context.Background(), FindInput{
		ItemID:      uuid.New(),
		RequiredQty: dec(5),
		Options: FindOptions{
			OwnerID:                 uuid.New(),
			PreferLowerCost:         true,
			PreferHigherReliability: true,
		},
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !result.Sources[0].UnitCost.Equal(dec(2)) || !result.Sources[0].Reliability.Equal(decf(0.8)) {
		t.Fatalf("expected cheap high-reliability source first, got %+v", result.Sources[0])
	}
	if !result.Sources[2].UnitCost.Equal(dec(9)) {
		t.Fatalf("expected expensive source last, got %+v", result.Sources[2])
	}
}

func TestFindDeterministicTieBreak(t *testing.T) {
	t.Parallel()

	foreign := uuid.New()
	a := row(foreign, 10, 0, 5, 0.5)
	b := row(foreign, 10, 0, 5, 0.5)

	svc, err := NewService(&stubRepo{stockRows: []StockCandidateRow{a, b}}, 25)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	input := FindInput{
		ItemID:      uuid.New(),
		RequiredQty: dec(1),
		Options:     FindOptions{OwnerID: uuid.New(), PreferLowerCost: true, PreferHigherReliability: true},
	}

	first, err := svc.Find(context.Background(), input)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	second, err := svc.Find(context.Background(), input)
	if err != nil {
		t.Fatalf("find again: %v", err)
	}
	if *first.Sources[0].LocationID != *second.Sources[0].LocationID {
		t.Fatal("expected deterministic ordering across calls")
	}
	wantFirst := a.LocationID.String()
	if b.LocationID.String() < wantFirst {
		wantFirst = b.LocationID.String()
	}
	if first.Sources[0].LocationID.String() != wantFirst {
		t.Fatalf("expected lexical location tie-break, got %s", first.Sources[0].LocationID)
	}
}

func TestFindReliabilityFilterAndPlayerStocks(t *testing.T) {
	t.Parallel()

	foreign := uuid.New()
	reliable := row(foreign, 5, 0, 5, 0.9)
	unreliable := row(foreign, 50, 0, 1, 0.2)
	player := models.PlayerStock{
		ID:          uuid.New(),
		ItemID:      uuid.New(),
		PlayerName:  "Vex",
		Quantity:    dec(7),
		UnitCost:    dec(3),
		Reliability: decf(0.7),
	}

	svc, err := NewService(&stubRepo{
		stockRows:  []StockCandidateRow{reliable, unreliable},
		playerRows: []models.PlayerStock{player},
	}, 25)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.Find(context.Background(), FindInput{
		ItemID:      uuid.New(),
		RequiredQty: dec(20),
		Options: FindOptions{
			OwnerID:             uuid.New(),
			IncludePlayerStocks: true,
			MinReliability:      decf(0.5),
		},
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(result.Sources) != 2 {
		t.Fatalf("expected unreliable source filtered, got %d sources", len(result.Sources))
	}
	if !result.TotalAvailable.Equal(dec(12)) {
		t.Fatalf("expected total 12, got %s", result.TotalAvailable)
	}
	if result.HasSufficient {
		t.Fatal("expected insufficient total")
	}

	foundPlayer := false
	for _, src := range result.Sources {
		if src.PlayerName == "Vex" {
			foundPlayer = true
		}
	}
	if !foundPlayer {
		t.Fatal("expected player stock in results")
	}
}

func TestFindTruncationKeepsTotal(t *testing.T) {
	t.Parallel()

	foreign := uuid.New()
	rows := []StockCandidateRow{}
	for i := 0; i < 6; i++ {
		rows = append(rows, row(foreign, 10, 0, int64(i+1), 0.5))
	}

	svc, err := NewService(&stubRepo{stockRows: rows}, 25)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.Find(context.Background(), FindInput{
		ItemID:      uuid.New(),
		RequiredQty: dec(100),
		Options:     FindOptions{OwnerID: uuid.New(), MaxSources: 2, PreferLowerCost: true},
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(result.Sources) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(result.Sources))
	}
	if !result.TotalAvailable.Equal(dec(60)) {
		t.Fatalf("expected pre-truncation total 60, got %s", result.TotalAvailable)
	}
	if result.HasSufficient {
		t.Fatal("expected insufficient for 100")
	}
}

func TestFindValidation(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubRepo{}, 25)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	_, err = svc.Find(context.Background(), FindInput{RequiredQty: dec(1)})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
