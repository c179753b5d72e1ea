package reservation

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Comnyando/craftstock-backend/pkg/db/models"
	"github.com/Comnyando/craftstock-backend/pkg/enums"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:reservation_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	entries := `
CREATE TABLE IF NOT EXISTS stock_entries (
  item_id TEXT NOT NULL,
  location_id TEXT NOT NULL,
  quantity NUMERIC NOT NULL DEFAULT 0,
  reserved_quantity NUMERIC NOT NULL DEFAULT 0,
  unit_cost NUMERIC NOT NULL DEFAULT 0,
  reliability NUMERIC NOT NULL DEFAULT 1,
  updated_at DATETIME,
  PRIMARY KEY (item_id, location_id)
);`
	movements := `
CREATE TABLE IF NOT EXISTS stock_movements (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL,
  location_id TEXT NOT NULL,
  delta NUMERIC NOT NULL,
  reason TEXT NOT NULL,
  actor_id TEXT NOT NULL,
  craft_id TEXT,
  note TEXT,
  created_at DATETIME
);`
	if err := db.Exec(entries).Error; err != nil {
		t.Fatalf("create stock_entries: %v", err)
	}
	if err := db.Exec(movements).Error; err != nil {
		t.Fatalf("create stock_movements: %v", err)
	}
	return db
}

func seed(t *testing.T, db *gorm.DB, itemID, locationID uuid.UUID, qty, reserved int64) {
	t.Helper()
	entry := models.StockEntry{
		ItemID:           itemID,
		LocationID:       locationID,
		Quantity:         decimal.NewFromInt(qty),
		ReservedQuantity: decimal.NewFromInt(reserved),
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("seed entry: %v", err)
	}
}

func loadEntry(t *testing.T, db *gorm.DB, itemID, locationID uuid.UUID) models.StockEntry {
	t.Helper()
	var entry models.StockEntry
	if err := db.First(&entry, "item_id = ? AND location_id = ?", itemID, locationID).Error; err != nil {
		t.Fatalf("load entry: %v", err)
	}
	return entry
}

func TestReserveFulfillWalk(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	itemID, locationID, actor := uuid.New(), uuid.New(), uuid.New()
	seed(t, db, itemID, locationID, 10, 3)

	if err := Reserve(ctx, db, itemID, locationID, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	entry := loadEntry(t, db, itemID, locationID)
	if !entry.ReservedQuantity.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("expected reserved 8, got %s", entry.ReservedQuantity)
	}
	if !entry.Available().Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected available 2, got %s", entry.Available())
	}

	craftID := uuid.New()
	if err := Fulfill(ctx, db, itemID, locationID, decimal.NewFromInt(5), actor, &craftID); err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	entry = loadEntry(t, db, itemID, locationID)
	if !entry.Quantity.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected quantity 5, got %s", entry.Quantity)
	}
	if !entry.ReservedQuantity.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected reserved 3, got %s", entry.ReservedQuantity)
	}

	var movement models.StockMovement
	if err := db.First(&movement, "item_id = ?", itemID).Error; err != nil {
		t.Fatalf("load movement: %v", err)
	}
	if movement.Reason != enums.MovementReasonCraftConsume {
		t.Fatalf("expected craft_consume movement, got %s", movement.Reason)
	}
	if movement.CraftID == nil || *movement.CraftID != craftID {
		t.Fatalf("expected movement bound to craft %s", craftID)
	}
	if !movement.Delta.Equal(decimal.NewFromInt(-5)) {
		t.Fatalf("expected delta -5, got %s", movement.Delta)
	}
}

func TestReserveAllOrNothing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	itemID, locationID := uuid.New(), uuid.New()
	seed(t, db, itemID, locationID, 10, 8)

	err := Reserve(ctx, db, itemID, locationID, decimal.NewFromInt(3))
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	entry := loadEntry(t, db, itemID, locationID)
	if !entry.ReservedQuantity.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("partial hold taken: reserved %s", entry.ReservedQuantity)
	}
}

func TestReserveMissingEntryReportsZeroAvailable(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	err := Reserve(context.Background(), db, uuid.New(), uuid.New(), decimal.NewFromInt(1))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestReleaseFloorsAtZero(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	itemID, locationID := uuid.New(), uuid.New()
	seed(t, db, itemID, locationID, 10, 3)

	if err := Release(ctx, db, itemID, locationID, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("release: %v", err)
	}
	entry := loadEntry(t, db, itemID, locationID)
	if !entry.ReservedQuantity.IsZero() {
		t.Fatalf("expected reserved 0, got %s", entry.ReservedQuantity)
	}
	if !entry.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("release must not touch quantity, got %s", entry.Quantity)
	}

	err := Release(ctx, db, uuid.New(), uuid.New(), decimal.NewFromInt(1))
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFulfillRequiresCoveringHold(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	itemID, locationID := uuid.New(), uuid.New()
	seed(t, db, itemID, locationID, 10, 2)

	err := Fulfill(ctx, db, itemID, locationID, decimal.NewFromInt(5), uuid.New(), nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeReservationMismatch) {
		t.Fatalf("expected reservation mismatch, got %v", err)
	}

	entry := loadEntry(t, db, itemID, locationID)
	if !entry.Quantity.Equal(decimal.NewFromInt(10)) || !entry.ReservedQuantity.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("rejected fulfill mutated the entry: %+v", entry)
	}

	var count int64
	if err := db.Table("stock_movements").Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no movements, got %d", count)
	}
}

func TestReserveInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	err := Reserve(context.Background(), db, uuid.New(), uuid.New(), decimal.Zero)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConcurrentReservesGrantExactlyAvailable(t *testing.T) {
	db := newTestDB(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// single connection serializes sqlite writers without busy errors
	sqlDB.SetMaxOpenConns(1)

	ctx := context.Background()
	itemID, locationID := uuid.New(), uuid.New()
	seed(t, db, itemID, locationID, 5, 0)

	const workers = 20
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = Reserve(ctx, db, itemID, locationID, decimal.NewFromInt(1))
		}(i)
	}
	wg.Wait()

	granted := 0
	for _, err := range errs {
		switch {
		case err == nil:
			granted++
		case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if granted != 5 {
		t.Fatalf("expected exactly 5 grants, got %d", granted)
	}

	entry := loadEntry(t, db, itemID, locationID)
	if !entry.ReservedQuantity.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected reserved 5, got %s", entry.ReservedQuantity)
	}
}
